// Package web hosts the session gate and the inbox renderer behind HTTP.
// Each request parses a host page, runs the page-load hooks against it and
// then either writes the page or carries out the navigation and notices
// the hooks requested.
package web

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"github.com/nhle/mailgate/internal/dom"
	"github.com/nhle/mailgate/internal/nav"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/session"
	"github.com/nhle/mailgate/internal/view"
)

// Deps are the collaborators of a Server.
type Deps struct {
	Repo     session.Repository
	Fetcher  view.EmailFetcher
	Renderer *render.Renderer

	// OAuth is nil when sign-in is not configured.
	OAuth *OAuth

	Logger *slog.Logger
}

// Server is the web host.
type Server struct {
	repo     session.Repository
	fetcher  view.EmailFetcher
	renderer *render.Renderer
	oauth    *OAuth
	pages    *pageSet
	logger   *slog.Logger
	handler  http.Handler
}

// NewServer builds the routes for deps.
func NewServer(deps Deps) (*Server, error) {
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.New(render.Options{})
	}

	s := &Server{
		repo:     deps.Repo,
		fetcher:  deps.Fetcher,
		renderer: renderer,
		oauth:    deps.OAuth,
		pages:    pages,
		logger:   logger,
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage(pageHome, "Home", false))
	mux.HandleFunc("GET /inbox", s.handlePage(pageInbox, "Inbox", false))
	mux.HandleFunc("GET /auth", s.handleAuth)
	mux.HandleFunc("GET /oauth_callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /email/{id}", s.handleEmail("Message"))
	mux.HandleFunc("GET /email/{id}/summary", s.handleEmail("AI Summary"))
	mux.HandleFunc("GET /email/{id}/smart-reply", s.handleEmail("Smart Reply"))
	mux.HandleFunc("GET /open/{id}", s.handleOpen((*view.Inbox).OpenEmail))
	mux.HandleFunc("GET /open/{id}/summary", s.handleOpen((*view.Inbox).OpenSummary))
	mux.HandleFunc("GET /open/{id}/smart-reply", s.handleOpen((*view.Inbox).OpenSmartReply))
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.handler = s.logRequests(mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// pageContext holds the per-request modules. The recorder stands in for
// the browser: it collects the navigation and notices the modules raise.
type pageContext struct {
	rec   *nav.Recorder
	gate  *session.Gate
	inbox *view.Inbox
}

func (s *Server) newPageContext() *pageContext {
	rec := &nav.Recorder{}
	return &pageContext{
		rec:   rec,
		gate:  session.NewGate(s.repo, rec, rec, s.logger),
		inbox: view.NewInbox(s.repo, s.fetcher, s.renderer, rec, rec, s.logger),
	}
}

// load runs the page-load hooks in order: session chrome first, then the
// inbox. A guarded page runs the guard before the inbox hook.
func (pc *pageContext) load(ctx context.Context, page *dom.Page, path string, guarded bool) error {
	if err := pc.gate.OnPageLoad(ctx, page, path); err != nil {
		return err
	}
	if guarded {
		ok, err := pc.gate.RequireAuthenticated(ctx, page)
		if err != nil || !ok {
			return err
		}
	}
	return pc.inbox.OnPageLoad(ctx, page, path)
}

func (s *Server) handlePage(name, title string, guarded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.servePage(w, r, name, pageData{Title: title}, guarded)
	}
}

func (s *Server) handleEmail(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		viewName := "message"
		switch r.URL.Path {
		case nav.SummaryPath(id):
			viewName = "summary"
		case nav.SmartReplyPath(id):
			viewName = "smart-reply"
		}
		s.servePage(w, r, pageEmail, pageData{
			Title:          title,
			EmailID:        id,
			View:           viewName,
			DetailPath:     nav.EmailPath(id),
			SummaryPath:    nav.SummaryPath(id),
			SmartReplyPath: nav.SmartReplyPath(id),
		}, true)
	}
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, name string, data pageData, guarded bool) {
	data.OAuthEnabled = s.oauth != nil

	page, err := s.pages.build(name, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	pc := s.newPageContext()
	if err := pc.load(r.Context(), page, r.URL.Path, guarded); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, page, pc.rec)
}

// respond turns what the modules did into an HTTP response.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, page *dom.Page, rec *nav.Recorder) {
	if len(rec.Notices) > 0 {
		location := rec.Location
		if location == "" {
			location = r.URL.RequestURI()
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := s.pages.writeNotice(w, noticeData{Notices: rec.Notices, Location: location}); err != nil {
			s.logger.Error("writing notice page", "error", err)
		}
		return
	}

	if rec.Navigated() {
		http.Redirect(w, r, rec.Location, http.StatusSeeOther)
		return
	}

	if page == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := page.Render(w); err != nil {
		s.logger.Error("writing page", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	pc := s.newPageContext()
	if err := pc.gate.SignOut(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, nil, pc.rec)
}

func (s *Server) handleOpen(open func(*view.Inbox, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pc := s.newPageContext()
		open(pc.inbox, r.PathValue("id"))
		s.respond(w, r, nil, pc.rec)
	}
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if s.oauth != nil && r.URL.Query().Get("start") != "" {
		s.oauth.start(w, r)
		return
	}
	s.servePage(w, r, pageAuth, pageData{Title: "Sign in"}, false)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		http.NotFound(w, r)
		return
	}

	rec := &nav.Recorder{}
	sess, err := s.oauth.complete(w, r)
	if err != nil {
		s.logger.Warn("sign in failed", "error", err)
		rec.Notify("Sign in failed: " + err.Error())
		rec.Navigate(nav.PathHome)
		s.respond(w, r, nil, rec)
		return
	}

	if err := s.repo.Set(r.Context(), sess); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("signed in", "user", sess.IdentityMarker)
	rec.Navigate(nav.PathInbox)
	s.respond(w, r, nil, rec)
}

// fail reports an unrecoverable error, such as unusable storage.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// logRequests tags each request with an id and logs its outcome.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration.Round(time.Microsecond),
		)
	})
}
