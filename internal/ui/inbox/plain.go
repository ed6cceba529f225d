package inbox

import (
	"strings"

	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/render"
)

// RenderPlain renders the inbox once for non-interactive output: the
// counters followed by every email as an unselected list row.
func RenderPlain(r *render.Renderer, emails []model.EmailSummary, stats *model.StatsDigest) string {
	var b strings.Builder
	if stats != nil {
		b.WriteString(StatsBar(*stats))
		b.WriteString("\n\n")
	}
	if len(emails) == 0 {
		b.WriteString(TextEmpty + "\n")
		return b.String()
	}
	for _, e := range emails {
		b.WriteString(renderRow(EmailItem{Email: e, Date: r.FormatDate(e.Date)}, false))
		b.WriteString("\n\n")
	}
	return b.String()
}
