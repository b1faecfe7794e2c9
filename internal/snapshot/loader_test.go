package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadCSV(t *testing.T) {
	// BOM prefix, a ragged row, a placeholder cell and an all-empty row.
	content := "﻿Code,Code Notes\n" +
		"A1,Patient must submit form X\n" +
		"A2\n" +
		"A3,nan\n" +
		",\n" +
		"A4,Approval required\n"

	path := filepath.Join(t.TempDir(), "q3.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := LoadCSV(path, DefaultLoadConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"Code", "Code Notes"}, table.Headers)
	require.Len(t, table.Rows, 4)

	assert.Equal(t, "Patient must submit form X", table.Rows[0]["Code Notes"])
	assert.Equal(t, "", table.Rows[1]["Code Notes"], "ragged row pads missing cells")
	assert.Equal(t, "", table.Rows[2]["Code Notes"], "placeholder cell normalized to empty")
	assert.Equal(t, "A4", table.Rows[3]["Code"])
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"), DefaultLoadConfig())
	require.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q3.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Code", "Code Notes"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"A1", "some text"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"A2", "NaN"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := LoadXLSX(path, DefaultLoadConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"Code", "Code Notes"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "some text", table.Rows[0]["Code Notes"])
	assert.Equal(t, "", table.Rows[1]["Code Notes"], "placeholder match is case-insensitive")
}

func TestLoadXLSXNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("WA Q3")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("WA Q3", "A1", &[]interface{}{"Code", "Notes"}))
	require.NoError(t, f.SetSheetRow("WA Q3", "A2", &[]interface{}{"B7", "rule text"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultLoadConfig()
	cfg.Sheet = "WA Q3"

	table, err := LoadXLSX(path, cfg)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "B7", table.Rows[0]["Code"])
}

func TestLoadDispatch(t *testing.T) {
	t.Run("csv extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snap.csv")
		require.NoError(t, os.WriteFile(path, []byte("Code,Notes\nA1,x\n"), 0644))

		table, err := Load(path, DefaultLoadConfig())
		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load("snap.txt", DefaultLoadConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported snapshot format")
	})
}
