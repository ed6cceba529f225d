package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/nhle/mailgate/internal/dom"
)

//go:embed pages/*.html
var pageFS embed.FS

//go:embed static
var staticFS embed.FS

// Host page names.
const (
	pageHome  = "home"
	pageAuth  = "auth"
	pageInbox = "inbox"
	pageEmail = "email"
)

// pageData feeds the host page templates.
type pageData struct {
	Title string

	// OAuthEnabled switches the sign-in page between the Google link and
	// the "not configured" notice.
	OAuthEnabled bool

	// Email views only.
	EmailID        string
	View           string
	DetailPath     string
	SummaryPath    string
	SmartReplyPath string
}

// noticeData feeds the interstitial notice page.
type noticeData struct {
	Notices  []string
	Location string
}

// pageSet holds one parsed template set per host page.
type pageSet struct {
	pages  map[string]*template.Template
	notice *template.Template
}

func loadPages() (*pageSet, error) {
	ps := &pageSet{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageHome, pageAuth, pageInbox, pageEmail} {
		t, err := template.New(name).ParseFS(pageFS, "pages/layout.html", "pages/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", name, err)
		}
		ps.pages[name] = t
	}

	notice, err := template.New("notice").ParseFS(pageFS, "pages/notice.html")
	if err != nil {
		return nil, fmt.Errorf("parsing notice page: %w", err)
	}
	ps.notice = notice
	return ps, nil
}

// build executes a host page and parses the result into a mutable page.
func (ps *pageSet) build(name string, data pageData) (*dom.Page, error) {
	t, ok := ps.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("executing page %s: %w", name, err)
	}
	return dom.Parse(&buf)
}

// writeNotice renders the interstitial that shows notices and then moves
// to location.
func (ps *pageSet) writeNotice(w io.Writer, data noticeData) error {
	return ps.notice.ExecuteTemplate(w, "notice", data)
}
