package model

// Priority is the closed-set classification the API attaches to each email.
// It drives badge styling only; lists are never re-sorted by it.
type Priority string

// Priority values produced by the email API.
const (
	PriorityWork       Priority = "work"
	PriorityMedium     Priority = "medium"
	PriorityLow        Priority = "low"
	PriorityPromotions Priority = "promotions"
	PrioritySpam       Priority = "spam"
)

// EmailSummary is one row of the inbox list as returned by the email API.
// It is not persisted and is treated as immutable for one render.
type EmailSummary struct {
	// ID is the provider message id. It is used verbatim in navigation paths.
	ID string `json:"id"`

	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Snippet string `json:"snippet"`

	// Date is whatever the API sent; FormatDate decides how to show it.
	Date string `json:"date"`

	Priority Priority `json:"priority"`

	// AILabels is the ordered list of tags produced by the AI backend.
	AILabels []string `json:"ai_labels"`

	// Summary is a short AI summary. It is carried but not shown in the list.
	Summary string `json:"summary,omitempty"`
}

// StatsDigest holds the per-priority counts sent alongside an email list.
type StatsDigest struct {
	Total      int `json:"total"`
	Work       int `json:"work"`
	Promotions int `json:"promotions"`
	Low        int `json:"low"`

	// Medium and Spam are reported by the API but have no tile.
	Medium int `json:"medium,omitempty"`
	Spam   int `json:"spam,omitempty"`
}

// EmailsResponse is the envelope returned by the emails endpoint.
type EmailsResponse struct {
	Success  bool           `json:"success"`
	Emails   []EmailSummary `json:"emails,omitempty"`
	Stats    *StatsDigest   `json:"stats,omitempty"`
	Error    string         `json:"error,omitempty"`
	Analysis string         `json:"analysis,omitempty"`
}

// EmailsRequest is the payload posted to the emails endpoint.
type EmailsRequest struct {
	Tokens TokenBlob `json:"tokens"`
}
