package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refdrift/internal/reconcile"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown([]*reconcile.Report{sampleReport()})

	assert.Contains(t, out, "# Reference Drift Report")
	assert.Contains(t, out, "## Code Notes")
	assert.Contains(t, out, "`q3.xlsx` vs `q4.xlsx`, scored by lexical")
	assert.Contains(t, out, "| Metric | Count |")
	assert.Contains(t, out, "| Total | 4 |")
	assert.Contains(t, out, "| Removed | 1 |")
	assert.Contains(t, out, "### Changes")
	assert.Contains(t, out, "| Code | Status | Before | After | Similarity | Severity |")
	assert.Contains(t, out, "| A2 | Modified | old text | new text | 0.5500 | Moderate Change |")
	assert.Contains(t, out, "| A3 | Removed | gone |  |  | Severe Change |")
}

func TestRenderMarkdownEscapesCells(t *testing.T) {
	rep := sampleReport()
	rep.Records = []reconcile.ChangeRecord{{
		Code:        "X|1",
		Status:      reconcile.StatusModified,
		Field:       "Code Notes",
		BeforeValue: "first line\nsecond line",
		AfterValue:  "a|b\r\nc",
		Similarity:  0.5, HasSimilarity: true,
		Severity: reconcile.SeverityModerate,
	}}
	out := RenderMarkdown([]*reconcile.Report{rep})

	assert.Contains(t, out, `X\|1`)
	assert.Contains(t, out, "first line<br>second line")
	assert.Contains(t, out, `a\|b<br>c`)
	assert.NotContains(t, out, "first line\nsecond line")
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, WriteMarkdown(path, []*reconcile.Report{sampleReport()}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Reference Drift Report")
	assert.Contains(t, string(data), "| Total | 4 |")
}
