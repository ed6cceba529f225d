package model

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Session is the locally persisted sign-in state. It is written by the
// sign-in flow and removed only by an explicit sign-out.
type Session struct {
	// IdentityMarker identifies the signed-in user (an email address).
	IdentityMarker string

	// TokenBlob is the opaque credential structure forwarded to the API.
	TokenBlob TokenBlob

	// DisplayName is optional.
	DisplayName string
}

// Authenticated reports whether both the identity marker and the token blob
// are present. Token contents and expiry are not inspected.
func (s Session) Authenticated() bool {
	return s.IdentityMarker != "" && s.TokenBlob.Present()
}

// TokenBlob is a JSON-serialised credential structure. It is passed to the
// API verbatim and never re-encoded.
type TokenBlob json.RawMessage

// Present reports whether the blob holds any content.
func (b TokenBlob) Present() bool {
	return len(b) > 0
}

// MarshalJSON emits the blob as raw JSON. An empty blob encodes as null.
func (b TokenBlob) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(b).MarshalJSON()
}

// UnmarshalJSON stores a copy of data.
func (b *TokenBlob) UnmarshalJSON(data []byte) error {
	if b == nil {
		return fmt.Errorf("model.TokenBlob: UnmarshalJSON on nil pointer")
	}
	*b = append((*b)[0:0], data...)
	return nil
}

// Credentials mirrors the credential structure issued by the sign-in flow.
type Credentials struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       *string  `json:"expiry"`
}

// NewTokenBlob serialises creds into a blob.
func NewTokenBlob(creds Credentials) (TokenBlob, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshaling credentials: %w", err)
	}
	return TokenBlob(data), nil
}

// CredentialsFromToken builds the stored credential structure from an
// OAuth2 token and the client that obtained it.
func CredentialsFromToken(tok *oauth2.Token, cfg *oauth2.Config) Credentials {
	creds := Credentials{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC().Format(time.RFC3339)
		creds.Expiry = &expiry
	}
	return creds
}

// OAuth2Token decodes the blob as Credentials and returns the equivalent
// token. It fails when the blob is not a JSON object.
func (b TokenBlob) OAuth2Token() (*oauth2.Token, error) {
	var creds Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return nil, fmt.Errorf("decoding token blob: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  creds.Token,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if creds.Expiry != nil && *creds.Expiry != "" {
		expiry, err := parseExpiry(*creds.Expiry)
		if err != nil {
			return nil, fmt.Errorf("parsing token expiry %q: %w", *creds.Expiry, err)
		}
		tok.Expiry = expiry
	}
	return tok, nil
}

// parseExpiry accepts RFC 3339 and the zone-less ISO form some issuers write.
func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.999999", s)
}
