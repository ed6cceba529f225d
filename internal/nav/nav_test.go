package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailPathsUseIDVerbatim(t *testing.T) {
	assert.Equal(t, "/email/abc123", EmailPath("abc123"))
	assert.Equal(t, "/email/abc123/summary", SummaryPath("abc123"))
	assert.Equal(t, "/email/abc123/smart-reply", SmartReplyPath("abc123"))
	assert.Equal(t, "/email/a b/summary", SummaryPath("a b"))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.False(t, r.Navigated())

	r.Notify("one")
	r.Navigate("/auth")
	r.Notify("two")

	assert.True(t, r.Navigated())
	assert.Equal(t, "/auth", r.Location)
	assert.Equal(t, []string{"one", "two"}, r.Notices)
}
