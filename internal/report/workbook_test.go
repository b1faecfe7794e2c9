package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"refdrift/internal/reconcile"
)

func sampleReport() *reconcile.Report {
	return &reconcile.Report{
		RunID:       "run-1234",
		Field:       "Code Notes",
		BeforeName:  "q3.xlsx",
		AfterName:   "q4.xlsx",
		Scorer:      "lexical",
		GeneratedAt: time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC),
		Records: []reconcile.ChangeRecord{
			{Code: "A1", Status: reconcile.StatusNoChange, Field: "Code Notes",
				BeforeValue: "same", AfterValue: "same",
				Similarity: 1.0, HasSimilarity: true, Severity: reconcile.SeverityNoChange},
			{Code: "A2", Status: reconcile.StatusModified, Field: "Code Notes",
				BeforeValue: "old text", AfterValue: "new text",
				Similarity: 0.55, HasSimilarity: true, Severity: reconcile.SeverityModerate},
			{Code: "A3", Status: reconcile.StatusRemoved, Field: "Code Notes",
				BeforeValue: "gone", Severity: reconcile.SeveritySevere},
			{Code: "A4", Status: reconcile.StatusNewlyAdded, Field: "Code Notes",
				AfterValue: "fresh", Severity: reconcile.SeverityNewEntry},
		},
	}
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, []*reconcile.Report{sampleReport()}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Code Notes"}, f.GetSheetList(), "default sheet dropped")

	const sheet = "Code Notes"
	assert.Equal(t, "SUMMARY", cell(t, f, sheet, "A1"))
	assert.Contains(t, cell(t, f, sheet, "A2"), "q3.xlsx vs q4.xlsx")

	// Counter block rows 3-10.
	assert.Equal(t, "Total", cell(t, f, sheet, "A3"))
	assert.Equal(t, "4", cell(t, f, sheet, "B3"))
	assert.Equal(t, "No Change", cell(t, f, sheet, "A4"))
	assert.Equal(t, "1", cell(t, f, sheet, "B4"))
	assert.Equal(t, "Severe Change", cell(t, f, sheet, "A6"))
	assert.Equal(t, "1", cell(t, f, sheet, "B6"))
	assert.Equal(t, "New Entries", cell(t, f, sheet, "A9"))
	assert.Equal(t, "1", cell(t, f, sheet, "B9"))
	assert.Equal(t, "Removed", cell(t, f, sheet, "A10"))
	assert.Equal(t, "1", cell(t, f, sheet, "B10"))

	// Header row 11, data from row 12.
	assert.Equal(t, "Code", cell(t, f, sheet, "A11"))
	assert.Equal(t, "Severity", cell(t, f, sheet, "G11"))

	assert.Equal(t, "A1", cell(t, f, sheet, "A12"))
	assert.Equal(t, "1.0000", cell(t, f, sheet, "F12"))
	assert.Equal(t, "0.5500", cell(t, f, sheet, "F13"))
	assert.Equal(t, "", cell(t, f, sheet, "F14"), "removed records carry no similarity")
	assert.Equal(t, "Severe Change", cell(t, f, sheet, "G14"))
	assert.Equal(t, "New Entry", cell(t, f, sheet, "G15"))
}

func TestWriteWorkbookNoReports(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "empty.xlsx"), nil)
	require.Error(t, err)
}

func TestWriteWorkbookDuplicateFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.xlsx")
	a, b := sampleReport(), sampleReport()
	require.NoError(t, WriteWorkbook(path, []*reconcile.Report{a, b}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Code Notes", "Code Notes 2"}, f.GetSheetList())
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "Code Notes", sheetName("Code Notes", 0, used))
	assert.Equal(t, "Code Notes 2", sheetName("Code Notes", 1, used))
	assert.Equal(t, "Field 3", sheetName("", 2, used))

	withBad := sheetName("Notes: WA/Q3 [draft]", 3, used)
	assert.NotContains(t, withBad, ":")
	assert.NotContains(t, withBad, "/")
	assert.NotContains(t, withBad, "[")

	long := sheetName("this field label runs far past the worksheet cap", 4, used)
	assert.LessOrEqual(t, len(long), 31)
}
