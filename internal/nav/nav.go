// Package nav defines the navigation surface of the client and the two
// side effects the UI modules may request from their host: a full-page
// navigation and a blocking notice.
package nav

// Paths of the navigation surface.
const (
	PathHome  = "/"
	PathAuth  = "/auth"
	PathInbox = "/inbox"
)

// EmailPath returns the detail view path for id. The id is used verbatim.
func EmailPath(id string) string {
	return "/email/" + id
}

// SummaryPath returns the AI summary view path for id.
func SummaryPath(id string) string {
	return "/email/" + id + "/summary"
}

// SmartReplyPath returns the smart reply view path for id.
func SmartReplyPath(id string) string {
	return "/email/" + id + "/smart-reply"
}

// Navigator performs a full-page navigation to path.
type Navigator interface {
	Navigate(path string)
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(message string)
}

// Recorder implements Navigator and Notifier by remembering what was
// requested. Hosts inspect it once the page hooks have run.
type Recorder struct {
	// Location is the last navigation target, empty if none was requested.
	Location string

	// Notices holds every notice in the order it was raised.
	Notices []string
}

// Navigate records path as the new location.
func (r *Recorder) Navigate(path string) {
	r.Location = path
}

// Notify records message.
func (r *Recorder) Notify(message string) {
	r.Notices = append(r.Notices, message)
}

// Navigated reports whether a navigation was requested.
func (r *Recorder) Navigated() bool {
	return r.Location != ""
}
