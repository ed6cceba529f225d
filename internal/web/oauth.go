package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/nhle/mailgate/internal/model"
)

const stateCookie = "mailgate_oauth_state"

// Scopes requested at sign-in.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailLabelsScope,
	gmail.GmailSendScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
	oauth2api.OpenIDScope,
}

// UserInfo is the part of the identity provider's profile kept in the
// session.
type UserInfo struct {
	Email string
	Name  string
}

// UserInfoFunc looks up the signed-in user with a fresh token.
type UserInfoFunc func(ctx context.Context, ts oauth2.TokenSource) (UserInfo, error)

// GoogleUserInfo queries the Google oauth2/v2 userinfo endpoint.
func GoogleUserInfo(ctx context.Context, ts oauth2.TokenSource) (UserInfo, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return UserInfo{}, fmt.Errorf("creating userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	return UserInfo{Email: info.Email, Name: info.Name}, nil
}

// OAuth runs the Google authorization-code flow and turns its result into
// a stored session.
type OAuth struct {
	config    oauth2.Config
	publicURL string
	userInfo  UserInfoFunc
}

// NewOAuth returns the sign-in flow for cfg, or nil when sign-in is not
// configured. publicURL may be empty.
func NewOAuth(cfg model.OAuthConfig, publicURL string) *OAuth {
	if !cfg.Enabled() {
		return nil
	}
	return &OAuth{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		},
		publicURL: strings.TrimRight(publicURL, "/"),
		userInfo:  GoogleUserInfo,
	}
}

// WithEndpoint overrides the authorization server.
func (o *OAuth) WithEndpoint(ep oauth2.Endpoint) *OAuth {
	o.config.Endpoint = ep
	return o
}

// WithUserInfo overrides the profile lookup.
func (o *OAuth) WithUserInfo(fn UserInfoFunc) *OAuth {
	o.userInfo = fn
	return o
}

// configFor copies the client config with the redirect URI for r.
func (o *OAuth) configFor(r *http.Request) *oauth2.Config {
	cfg := o.config
	base := o.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	cfg.RedirectURL = base + "/oauth_callback"
	return &cfg
}

// start sets a fresh state cookie and redirects to the consent screen.
func (o *OAuth) start(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/oauth_callback",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	url := o.configFor(r).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// complete validates the callback, exchanges the code and returns the
// session to store.
func (o *OAuth) complete(w http.ResponseWriter, r *http.Request) (model.Session, error) {
	ctx := r.Context()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		return model.Session{}, fmt.Errorf("state mismatch")
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/oauth_callback", MaxAge: -1})

	if e := r.URL.Query().Get("error"); e != "" {
		return model.Session{}, fmt.Errorf("authorization denied: %s", e)
	}

	cfg := o.configFor(r)
	tok, err := cfg.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		return model.Session{}, fmt.Errorf("exchanging code: %w", err)
	}

	info, err := o.userInfo(ctx, cfg.TokenSource(ctx, tok))
	if err != nil {
		return model.Session{}, err
	}
	if info.Email == "" {
		return model.Session{}, fmt.Errorf("identity provider returned no email")
	}

	blob, err := model.NewTokenBlob(model.CredentialsFromToken(tok, cfg))
	if err != nil {
		return model.Session{}, err
	}

	return model.Session{
		IdentityMarker: info.Email,
		TokenBlob:      blob,
		DisplayName:    info.Name,
	}, nil
}
