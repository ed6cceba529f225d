package session

import (
	"context"
	"log/slog"

	"github.com/nhle/mailgate/internal/dom"
	"github.com/nhle/mailgate/internal/nav"
)

// Element ids of the signed-in chrome.
const (
	ElementUserInfo  = "userInfo"
	ElementUserEmail = "userEmail"
	ElementLogoutBtn = "logoutBtn"
)

// NoticeSignInRequired is shown when a guarded view is opened signed out.
const NoticeSignInRequired = "Please sign in to access this feature"

// Gate decides whether the user is signed in and updates page chrome to
// match. Storage errors are returned unchanged in meaning: callers treat
// them as fatal for the current page.
type Gate struct {
	repo      Repository
	navigator nav.Navigator
	notifier  nav.Notifier
	logger    *slog.Logger
}

// NewGate creates a Gate. A nil logger discards output.
func NewGate(repo Repository, navigator nav.Navigator, notifier nav.Notifier, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		repo:      repo,
		navigator: navigator,
		notifier:  notifier,
		logger:    logger,
	}
}

// IsAuthenticated reports whether both the identity marker and the token
// blob are stored. When they are, the signed-in chrome on page is revealed
// and the identity marker is written into it. page may be nil.
func (g *Gate) IsAuthenticated(ctx context.Context, page *dom.Page) (bool, error) {
	s, err := g.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	if !s.Authenticated() {
		return false, nil
	}

	if page != nil {
		if page.RemoveClass(ElementUserInfo, dom.ClassHidden) {
			page.SetText(ElementUserEmail, s.IdentityMarker)
		}
		page.RemoveClass(ElementLogoutBtn, dom.ClassHidden)
	}
	return true, nil
}

// SignOut clears every session key and navigates home. The token itself
// stays valid upstream until it expires.
func (g *Gate) SignOut(ctx context.Context) error {
	if err := g.repo.Clear(ctx); err != nil {
		return err
	}
	g.logger.Info("signed out")
	g.navigator.Navigate(nav.PathHome)
	return nil
}

// RequireAuthenticated is the guard for protected views. When the user is
// not signed in it raises a notice and navigates to the sign-in page.
func (g *Gate) RequireAuthenticated(ctx context.Context, page *dom.Page) (bool, error) {
	ok, err := g.IsAuthenticated(ctx, page)
	if err != nil {
		return false, err
	}
	if !ok {
		g.notifier.Notify(NoticeSignInRequired)
		g.navigator.Navigate(nav.PathAuth)
		return false, nil
	}
	return true, nil
}

// OnPageLoad refreshes the chrome and marks the nav item whose href equals
// path as active.
func (g *Gate) OnPageLoad(ctx context.Context, page *dom.Page, path string) error {
	if _, err := g.IsAuthenticated(ctx, page); err != nil {
		return err
	}
	page.MarkActiveNav(path)
	return nil
}
