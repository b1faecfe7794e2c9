package report

import (
	"fmt"
	"os"
	"strings"

	"refdrift/internal/logging"
	"refdrift/internal/reconcile"
)

// RenderMarkdown renders the reports as one markdown document: a summary
// table and a full change table per field. The view command pages this
// through glamour.
func RenderMarkdown(reports []*reconcile.Report) string {
	var sb strings.Builder
	sb.WriteString("# Reference Drift Report\n\n")

	for _, rep := range reports {
		sum := reconcile.Summarize(rep)

		sb.WriteString(fmt.Sprintf("## %s\n\n", mdEscape(rep.Field)))
		sb.WriteString(fmt.Sprintf("`%s` vs `%s`, scored by %s, generated %s (run %s)\n\n",
			rep.BeforeName, rep.AfterName, rep.Scorer,
			rep.GeneratedAt.Format("2006-01-02 15:04"), rep.RunID))

		sb.WriteString("| Metric | Count |\n| --- | ---: |\n")
		for _, c := range []struct {
			label string
			value int
		}{
			{"Total", sum.Total},
			{"No Change", sum.NoChange},
			{"Modified", sum.Modified},
			{"Severe Change", sum.Severe},
			{"Moderate Change", sum.Moderate},
			{"Minor Wording Change", sum.Minor},
			{"New Entries", sum.NewlyAdded},
			{"Removed", sum.Removed},
		} {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", c.label, c.value))
		}
		sb.WriteString("\n### Changes\n\n")
		sb.WriteString("| Code | Status | Before | After | Similarity | Severity |\n")
		sb.WriteString("| --- | --- | --- | --- | ---: | --- |\n")
		for _, rec := range rep.Records {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				mdEscape(rec.Code), rec.Status,
				mdEscape(rec.BeforeValue), mdEscape(rec.AfterValue),
				rec.SimilarityString(), rec.Severity))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteMarkdown writes the rendered document to path.
func WriteMarkdown(path string, reports []*reconcile.Report) error {
	if err := os.WriteFile(path, []byte(RenderMarkdown(reports)), 0644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	logging.Report("Wrote markdown report %s (%d fields)", path, len(reports))
	return nil
}

// mdEscape keeps cell text from breaking the table: pipes are escaped and
// line breaks collapse to <br>.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = strings.ReplaceAll(s, "\r", "<br>")
	return s
}
