// Package report renders change reports: an xlsx workbook with severity
// fills and a summary block, a lipgloss terminal summary, and a markdown
// document for the pager. The core never renders; everything presentational
// lives here.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"refdrift/internal/logging"
	"refdrift/internal/reconcile"
)

// Severity fill colors, one per band plus new entries. No fill for NoChange.
const (
	fillSevere   = "FFC7CE" // red
	fillModerate = "FFEB9C" // yellow
	fillMinor    = "C6EFCE" // green
	fillNewEntry = "BDD7EE" // blue
)

// recordHeaders is the data table header row, one sheet column each.
var recordHeaders = []interface{}{
	"Code", "Status", "Field", "Before", "After", "Similarity", "Severity",
}

// Rows 1-10 hold the summary block, row 11 the header, data from row 12.
const (
	summaryRows  = 10
	headerRow    = summaryRows + 1
	firstDataRow = headerRow + 1
	lastColumn   = "G"
)

// WriteWorkbook writes one sheet per report to an xlsx file at path. Each
// sheet carries the summary block at the top, a bold header row, frozen
// panes below it, and one severity-filled row per change record.
func WriteWorkbook(path string, reports []*reconcile.Report) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	used := map[string]bool{}
	for i, rep := range reports {
		name := sheetName(rep.Field, i, used)
		if err := writeSheet(f, name, rep); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		if i == 0 {
			idx, err := f.GetSheetIndex(name)
			if err != nil {
				return err
			}
			f.SetActiveSheet(idx)
		}
	}

	// Drop the default sheet excelize creates, unless a field claimed the
	// name.
	if !used["Sheet1"] {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	logging.Report("Wrote workbook %s (%d sheets)", path, len(reports))
	return nil
}

func writeSheet(f *excelize.File, name string, rep *reconcile.Report) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sum := reconcile.Summarize(rep)

	// Summary block.
	if err := f.SetCellValue(name, "A1", "SUMMARY"); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellValue(name, "A2",
		fmt.Sprintf("%s vs %s (%s, run %s)", rep.BeforeName, rep.AfterName,
			rep.GeneratedAt.Format("2006-01-02 15:04"), rep.RunID)); err != nil {
		return err
	}

	counters := []struct {
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
	}
	for i, c := range counters {
		row := 3 + i
		if err := f.SetCellValue(name, fmt.Sprintf("A%d", row), c.label); err != nil {
			return err
		}
		if err := f.SetCellValue(name, fmt.Sprintf("B%d", row), c.value); err != nil {
			return err
		}
	}

	// Header row.
	if err := f.SetSheetRow(name, fmt.Sprintf("A%d", headerRow), &recordHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, fmt.Sprintf("A%d", headerRow),
		fmt.Sprintf("%s%d", lastColumn, headerRow), bold); err != nil {
		return err
	}

	fills := map[reconcile.Severity]int{}
	for severity, color := range map[reconcile.Severity]string{
		reconcile.SeveritySevere:   fillSevere,
		reconcile.SeverityModerate: fillModerate,
		reconcile.SeverityMinor:    fillMinor,
		reconcile.SeverityNewEntry: fillNewEntry,
	} {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return err
		}
		fills[severity] = style
	}

	// Data rows.
	for i, rec := range rep.Records {
		row := firstDataRow + i
		cells := []interface{}{
			rec.Code,
			string(rec.Status),
			rec.Field,
			rec.BeforeValue,
			rec.AfterValue,
			rec.SimilarityString(),
			string(rec.Severity),
		}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		if style, ok := fills[rec.Severity]; ok {
			if err := f.SetCellStyle(name, fmt.Sprintf("A%d", row),
				fmt.Sprintf("%s%d", lastColumn, row), style); err != nil {
				return err
			}
		}
	}

	// Freeze everything above the data so the summary and header stay
	// visible while scrolling.
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", firstDataRow),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := f.SetColWidth(name, "A", "A", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(name, "B", "C", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(name, "D", "E", 48); err != nil {
		return err
	}
	return f.SetColWidth(name, "F", lastColumn, 18)
}

// sheetName derives a legal, unique worksheet name from the field label.
// Excel caps names at 31 characters and forbids a handful of characters.
func sheetName(field string, i int, used map[string]bool) string {
	name := field
	if name == "" {
		name = fmt.Sprintf("Field %d", i+1)
	}
	for _, c := range []string{":", "\\", "/", "?", "*", "[", "]"} {
		name = strings.ReplaceAll(name, c, " ")
	}
	if len(name) > 31 {
		name = name[:31]
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" %d", n)
		if len(base)+len(suffix) > 31 {
			name = base[:31-len(suffix)] + suffix
		} else {
			name = base + suffix
		}
	}
	used[name] = true
	return name
}
