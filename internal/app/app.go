// Package app is the terminal inbox: a Bubble Tea program over the same
// session storage and email API as the web host.
package app

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailgate/internal/keys"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/nav"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/session"
	"github.com/nhle/mailgate/internal/ui"
	"github.com/nhle/mailgate/internal/ui/detail"
	helpview "github.com/nhle/mailgate/internal/ui/help"
	"github.com/nhle/mailgate/internal/ui/inbox"
	"github.com/nhle/mailgate/internal/view"
)

const title = "Mailgate"

// ViewState represents the current active view.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
)

// Deps are the collaborators of the terminal inbox.
type Deps struct {
	Repo     session.Repository
	Fetcher  view.EmailFetcher
	Renderer *render.Renderer

	// BaseURL is the web host that email links point at.
	BaseURL string

	Logger *slog.Logger
}

// emailsLoadedMsg carries the result of one inbox load. err is a failure
// to read the session; otherwise resp is set when out is OK.
type emailsLoadedMsg struct {
	account string
	resp    *model.EmailsResponse
	out     view.Outcome
	err     error
}

// signedOutMsg reports the end of a sign-out.
type signedOutMsg struct {
	err error
}

// Model is the root Bubble Tea model. It routes between the list, the
// detail view and the help overlay.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	deps         Deps
	keys         *keys.KeyMap
	inbox        inbox.Model
	detail       detail.Model
	helpView     helpview.Model
	account      string
	status       string
	statusError  bool
	ready        bool
}

// New creates the root model. The inbox starts in its loading state; Init
// issues the first load.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.New(render.Options{})
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewList,
		deps:        deps,
		keys:        k,
		inbox:       inbox.New(deps.Renderer, k, 80, 24),
		detail:      detail.New(deps.Renderer, k, 80, 24),
		helpView:    helpview.New(k, deps.BaseURL, 80, 24),
	}
	m.inbox.SetLoading()
	return m
}

// Init loads the inbox.
func (m Model) Init() tea.Cmd {
	return m.loadEmails()
}

// newInbox builds the web inbox over the model's dependencies. rec
// receives its navigations and notices.
func (m Model) newInbox(rec *nav.Recorder) *view.Inbox {
	return view.NewInbox(m.deps.Repo, m.deps.Fetcher, m.deps.Renderer, rec, rec, m.deps.Logger)
}

// loadEmails runs the same fetch as the web inbox and reports its outcome.
func (m Model) loadEmails() tea.Cmd {
	repo, in := m.deps.Repo, m.newInbox(&nav.Recorder{})
	return func() tea.Msg {
		ctx := context.Background()
		sess, err := repo.Get(ctx)
		if err != nil {
			return emailsLoadedMsg{err: err}
		}
		resp, out, err := in.Fetch(ctx)
		return emailsLoadedMsg{account: sess.IdentityMarker, resp: resp, out: out, err: err}
	}
}

func (m Model) signOut() tea.Cmd {
	rec := &nav.Recorder{}
	gate := session.NewGate(m.deps.Repo, rec, rec, m.deps.Logger)
	return func() tea.Msg {
		return signedOutMsg{err: gate.SignOut(context.Background())}
	}
}

// link resolves an email view to its web host URL through the same
// navigation helpers the web inbox uses.
func (m Model) link(id, viewName string) string {
	rec := &nav.Recorder{}
	in := m.newInbox(rec)
	switch viewName {
	case detail.ViewSummary:
		in.OpenSummary(id)
	case detail.ViewSmartReply:
		in.OpenSmartReply(id)
	default:
		in.OpenEmail(id)
	}
	return m.deps.BaseURL + rec.Location
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusError = isError
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.inbox.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m, nil

	case emailsLoadedMsg:
		m.account = msg.account
		switch {
		case msg.err != nil:
			m.deps.Logger.Error("reading session", "error", msg.err)
			m.setStatus("Storage error: "+msg.err.Error(), true)
			return m, m.inbox.SetMessage(msg.err.Error())
		case msg.out.Notice != "":
			m.setStatus(msg.out.Notice, true)
			return m, m.inbox.SetMessage(msg.out.Notice)
		case msg.out.Failure != "":
			m.setStatus(msg.out.Failure, true)
			return m, m.inbox.SetMessage(msg.out.Failure)
		}
		m.setStatus("", false)
		return m, m.inbox.SetEmails(msg.resp.Emails, msg.resp.Stats)

	case signedOutMsg:
		if msg.err != nil {
			m.setStatus("Sign out failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.account = ""
		m.currentView = ViewList
		m.setStatus("Signed out", false)
		return m, m.inbox.Clear()

	case inbox.SelectedEmailMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetEmail(msg.Email)
		return m, nil

	case inbox.OpenMsg:
		m.setStatus("Open "+m.link(msg.ID, detail.ViewMessage), false)
		return m, nil

	case detail.OpenMsg:
		m.setStatus("Open "+m.link(msg.ID, msg.View), false)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
			m.currentView = m.previousView
			return m, nil

		case m.currentView == ViewList && key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case m.currentView == ViewList && key.Matches(msg, m.keys.Refresh):
			m.inbox.SetLoading()
			m.setStatus("", false)
			return m, m.loadEmails()

		case m.currentView == ViewList && key.Matches(msg, m.keys.SignOut):
			return m, m.signOut()
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return inbox.TextLoading
	}

	account := m.account
	if account == "" {
		account = "signed out"
	}
	header := m.layout.RenderHeader(title, account)
	statusBar := m.layout.RenderStatusBar(m.statusText(), m.statusError)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.inbox.View()
	}
}

// statusText returns the current status, or key hints when there is none.
func (m Model) statusText() string {
	if m.status != "" {
		return m.status
	}
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | o link | s summary | R smart reply | j/k scroll"
	default:
		return "q quit | ? help | enter open | r reload | L sign out"
	}
}
