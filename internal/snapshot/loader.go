package snapshot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"refdrift/internal/logging"
)

// Table is raw tabular input before key resolution: the header row plus one
// map per data row, keyed by actual header.
type Table struct {
	Path    string
	Headers []string
	Rows    []map[string]string
}

// LoadConfig controls how tabular files are read.
type LoadConfig struct {
	// Sheet selects the worksheet for workbook inputs. Empty means the first
	// sheet.
	Sheet string
	// Placeholders are cell values treated as empty, compared
	// case-insensitively after trimming. Dataframe exports commonly write
	// "nan" for missing cells.
	Placeholders []string
}

// DefaultLoadConfig returns the load settings used when none are given.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		Placeholders: []string{"nan", "n/a"},
	}
}

// Load reads a tabular snapshot file, dispatching on extension.
func Load(path string, cfg LoadConfig) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, cfg)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, cfg)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// LoadCSV reads one CSV file into a Table. The first row is the header; a
// UTF-8 BOM is stripped and ragged rows are tolerated (missing cells read as
// empty).
func LoadCSV(path string, cfg LoadConfig) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var raw [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = append(raw, rec)
	}
	return buildTable(path, headers, raw, cfg), nil
}

// LoadXLSX reads one worksheet of a workbook into a Table.
func LoadXLSX(path string, cfg LoadConfig) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := cfg.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %s has no header row", sheet, path)
	}
	return buildTable(path, rows[0], rows[1:], cfg), nil
}

// buildTable assembles row maps, padding ragged rows, dropping all-empty rows
// and normalizing placeholder cells to the empty string.
func buildTable(path string, headers []string, raw [][]string, cfg LoadConfig) *Table {
	placeholders := make(map[string]struct{}, len(cfg.Placeholders))
	for _, p := range cfg.Placeholders {
		placeholders[strings.ToLower(p)] = struct{}{}
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, rec := range raw {
		row := make(map[string]string, len(headers))
		empty := true
		for i, h := range headers {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			if _, drop := placeholders[strings.ToLower(strings.TrimSpace(cell))]; drop {
				cell = ""
			}
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
			row[h] = cell
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	logging.SnapshotDebug("Loaded %d rows x %d columns from %s", len(rows), len(headers), path)
	return &Table{Path: path, Headers: headers, Rows: rows}
}
