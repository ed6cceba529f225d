// Package view loads the inbox list into a host page.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nhle/mailgate/internal/api"
	"github.com/nhle/mailgate/internal/dom"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/nav"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/session"
)

// Element ids the inbox writes into.
const (
	ElementEmailList    = "emailList"
	ElementStatsSection = "statsSection"
)

// Notices and fallback messages shown by the inbox.
const (
	NoticeSignInFirst    = "Please sign in first"
	MessageLoadFailed    = "Failed to load emails"
	MessageNetworkPrefix = "Network error: "
)

// EmailFetcher retrieves the inbox envelope for a token blob.
type EmailFetcher interface {
	FetchEmails(ctx context.Context, tokens model.TokenBlob) (*model.EmailsResponse, error)
}

// Inbox renders the email list and stats digest. It reads the session
// only through the repository and never calls the session gate.
type Inbox struct {
	repo      session.Repository
	fetcher   EmailFetcher
	renderer  *render.Renderer
	navigator nav.Navigator
	notifier  nav.Notifier
	logger    *slog.Logger
}

// NewInbox wires an Inbox. A nil logger discards output.
func NewInbox(
	repo session.Repository,
	fetcher EmailFetcher,
	renderer *render.Renderer,
	navigator nav.Navigator,
	notifier nav.Notifier,
	logger *slog.Logger,
) *Inbox {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inbox{
		repo:      repo,
		fetcher:   fetcher,
		renderer:  renderer,
		navigator: navigator,
		notifier:  notifier,
		logger:    logger,
	}
}

// Outcome is how an inbox fetch ended when it produced no emails. The zero
// value means the envelope is ready to render.
type Outcome struct {
	// Notice is set when no token blob is stored.
	Notice string
	// Failure is the text of the error panel.
	Failure string
	// Cause is the fetch error behind Failure, if any.
	Cause error
}

// OK reports whether the fetch produced a renderable envelope.
func (o Outcome) OK() bool {
	return o.Notice == "" && o.Failure == ""
}

// Err returns the outcome as an error, or nil when it is OK. A fetch error
// stays reachable through errors.As.
func (o Outcome) Err() error {
	switch {
	case o.Notice != "":
		return errors.New(o.Notice)
	case o.Cause != nil:
		return fmt.Errorf("%s%w", MessageNetworkPrefix, o.Cause)
	case o.Failure != "":
		return errors.New(o.Failure)
	}
	return nil
}

// Fetch reads the session and fetches the inbox envelope. The returned
// error is only a failure to read the session; everything else ends in
// the Outcome.
func (in *Inbox) Fetch(ctx context.Context) (*model.EmailsResponse, Outcome, error) {
	tokens, out, err := in.tokens(ctx)
	if err != nil || !out.OK() {
		return nil, out, err
	}
	resp, out := in.fetch(ctx, tokens)
	return resp, out, nil
}

func (in *Inbox) tokens(ctx context.Context) (model.TokenBlob, Outcome, error) {
	s, err := in.repo.Get(ctx)
	if err != nil {
		return "", Outcome{}, err
	}
	if !s.TokenBlob.Present() {
		return "", Outcome{Notice: NoticeSignInFirst}, nil
	}
	return s.TokenBlob, Outcome{}, nil
}

func (in *Inbox) fetch(ctx context.Context, tokens model.TokenBlob) (*model.EmailsResponse, Outcome) {
	resp, err := in.fetcher.FetchEmails(ctx, tokens)
	if err != nil {
		in.logger.Warn("loading emails failed", "transport", api.IsTransportError(err), "error", err)
		return nil, Outcome{Failure: MessageNetworkPrefix + err.Error(), Cause: err}
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = MessageLoadFailed
		}
		in.logger.Info("email API reported failure", "error", msg)
		return nil, Outcome{Failure: msg}
	}
	return resp, Outcome{}
}

// LoadEmailList fetches the inbox and renders it into page. Every fetch or
// render failure ends as an error panel in the list container; only a
// failure to read the session is returned.
func (in *Inbox) LoadEmailList(ctx context.Context, page *dom.Page) error {
	tokens, out, err := in.tokens(ctx)
	if err != nil {
		return err
	}
	if out.Notice != "" {
		in.notifier.Notify(out.Notice)
		return nil
	}
	if !page.Has(ElementEmailList) {
		return nil
	}

	page.SetInnerHTML(ElementEmailList, render.Loading())

	resp, out := in.fetch(ctx, tokens)
	if !out.OK() {
		in.showError(page, out.Failure)
		return nil
	}

	if err := in.renderEmailList(page, resp.Emails); err != nil {
		in.showError(page, MessageNetworkPrefix+err.Error())
		return nil
	}
	if resp.Stats != nil {
		in.renderStats(page, *resp.Stats)
	}

	in.logger.Debug("rendered inbox", "emails", len(resp.Emails))
	return nil
}

// renderEmailList replaces the list container with the cards for emails.
func (in *Inbox) renderEmailList(page *dom.Page, emails []model.EmailSummary) error {
	markup, err := in.renderer.EmailList(emails)
	if err != nil {
		return err
	}
	page.SetInnerHTML(ElementEmailList, markup)
	return nil
}

// renderStats fills the stats section when the page has one.
func (in *Inbox) renderStats(page *dom.Page, stats model.StatsDigest) {
	if !page.Has(ElementStatsSection) {
		return
	}
	markup, err := in.renderer.Stats(stats)
	if err != nil {
		in.logger.Warn("rendering stats failed", "error", err)
		return
	}
	page.SetInnerHTML(ElementStatsSection, markup)
}

func (in *Inbox) showError(page *dom.Page, message string) {
	page.SetInnerHTML(ElementEmailList, render.ErrorPanel(message))
}

// OnPageLoad loads the list when path is the inbox and a token blob is
// stored. Other pages are left alone.
func (in *Inbox) OnPageLoad(ctx context.Context, page *dom.Page, path string) error {
	if path != nav.PathInbox {
		return nil
	}
	s, err := in.repo.Get(ctx)
	if err != nil {
		return err
	}
	if !s.TokenBlob.Present() {
		return nil
	}
	return in.LoadEmailList(ctx, page)
}

// OpenEmail navigates to the detail view of id.
func (in *Inbox) OpenEmail(id string) {
	in.navigator.Navigate(nav.EmailPath(id))
}

// OpenSummary navigates to the AI summary of id.
func (in *Inbox) OpenSummary(id string) {
	in.navigator.Navigate(nav.SummaryPath(id))
}

// OpenSmartReply navigates to the smart reply view of id.
func (in *Inbox) OpenSmartReply(id string) {
	in.navigator.Navigate(nav.SmartReplyPath(id))
}
