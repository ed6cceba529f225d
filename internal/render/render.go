// Package render turns email API data into HTML fragments. Every function
// is pure: the output depends only on the input and the Renderer options,
// so fragments can be asserted on without a live page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nhle/mailgate/internal/dom"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/nav"
)

// SnippetLimit is the number of characters kept from a snippet.
const SnippetLimit = 100

// Ellipsis is appended to truncated snippets.
const Ellipsis = "..."

// DefaultDateLayout renders a date followed by a time, en-US style.
const DefaultDateLayout = "1/2/2006 3:04:05 PM"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("render").ParseFS(templateFS, "templates/*.tmpl"))

// dateLayouts are tried in order by FormatDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Options configures date rendering.
type Options struct {
	// DateLayout is the output layout; empty means DefaultDateLayout.
	DateLayout string

	// Location is the display zone; nil means time.Local.
	Location *time.Location
}

// Renderer builds the inbox fragments.
type Renderer struct {
	layout string
	loc    *time.Location
}

// New returns a Renderer with opts applied.
func New(opts Options) *Renderer {
	r := &Renderer{layout: opts.DateLayout, loc: opts.Location}
	if r.layout == "" {
		r.layout = DefaultDateLayout
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	return r
}

// card is the template view of one email. Text fields hold escaped markup.
type card struct {
	ID             string
	DetailPath     string
	SummaryPath    string
	SmartReplyPath string
	Subject        template.HTML
	Priority       model.Priority
	PriorityText   template.HTML
	Sender         template.HTML
	Snippet        template.HTML
	Labels         []template.HTML
	Date           template.HTML
}

// escaped runs s through the DOM escaping primitive and marks the result
// as safe markup so the template does not encode it twice.
func escaped(s string) template.HTML {
	return template.HTML(dom.Escape(s))
}

// EmailList renders one card per email in input order, or the empty state
// when there are none.
func (r *Renderer) EmailList(emails []model.EmailSummary) (string, error) {
	if len(emails) == 0 {
		return Empty(), nil
	}

	cards := make([]card, 0, len(emails))
	for _, e := range emails {
		c := card{
			ID:             e.ID,
			DetailPath:     nav.EmailPath(e.ID),
			SummaryPath:    nav.SummaryPath(e.ID),
			SmartReplyPath: nav.SmartReplyPath(e.ID),
			Subject:        escaped(e.Subject),
			Priority:       e.Priority,
			PriorityText:   escaped(string(e.Priority)),
			Sender:         escaped(e.Sender),
			Snippet:        escaped(TruncateSnippet(e.Snippet)),
			Date:           escaped(r.FormatDate(e.Date)),
		}
		// Labels are escaped like every other field; see DESIGN.md.
		for _, label := range e.AILabels {
			c.Labels = append(c.Labels, escaped(label))
		}
		cards = append(cards, c)
	}

	return execute("email_list", cards)
}

// Stats renders the four fixed tiles: total, work, promotions, low.
func (r *Renderer) Stats(stats model.StatsDigest) (string, error) {
	return execute("stats", stats)
}

// FormatDate renders raw as a local date and time when it parses as a
// timestamp. Timestamps without a zone are read in the Renderer's
// location. Anything else is returned unchanged.
func (r *Renderer) FormatDate(raw string) string {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, r.loc)
		if err != nil {
			continue
		}
		return t.In(r.loc).Format(r.layout)
	}
	return raw
}

// TruncateSnippet cuts s to SnippetLimit characters and appends Ellipsis
// when it was longer. The cut is not word-aware.
func TruncateSnippet(s string) string {
	if utf8.RuneCountInString(s) <= SnippetLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:SnippetLimit]) + Ellipsis
}

// Loading is the placeholder shown while the list is being fetched.
func Loading() string {
	return mustExecute("loading", nil)
}

// Empty is the placeholder for an empty inbox.
func Empty() string {
	return mustExecute("empty", nil)
}

// ErrorPanel renders message, escaped, inside the inline error panel.
func ErrorPanel(message string) string {
	return mustExecute("error", escaped(message))
}

func execute(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return b.String(), nil
}

// mustExecute is for templates whose data cannot make execution fail.
func mustExecute(name string, data interface{}) string {
	out, err := execute(name, data)
	if err != nil {
		panic(err)
	}
	return out
}
