package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Code", "Code"},
		{"embedded newline", "MHI Code\nNotes", "MHI Code Notes"},
		{"crlf run collapses to one space", "MHI Code\r\nNotes", "MHI Code Notes"},
		{"surrounding whitespace", "  Effective Date  ", "Effective Date"},
		{"only breaks", "\r\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.in))
		})
	}
}

func TestResolveColumn(t *testing.T) {
	headers := []string{"Code", "Description", "MHI Code\nNotes", "  Effective Date  "}

	t.Run("exact match", func(t *testing.T) {
		col, err := ResolveColumn(headers, []string{"Code"})
		require.NoError(t, err)
		assert.Equal(t, "Code", col)
	})

	t.Run("case insensitive", func(t *testing.T) {
		col, err := ResolveColumn(headers, []string{"CODE"})
		require.NoError(t, err)
		assert.Equal(t, "Code", col)
	})

	t.Run("line breaks in header collapse to spaces", func(t *testing.T) {
		col, err := ResolveColumn(headers, []string{"MHI Code Notes"})
		require.NoError(t, err)
		assert.Equal(t, "MHI Code\nNotes", col)
	})

	t.Run("header whitespace trimmed", func(t *testing.T) {
		col, err := ResolveColumn(headers, []string{"effective date"})
		require.NoError(t, err)
		assert.Equal(t, "  Effective Date  ", col)
	})

	t.Run("first alias with a match wins", func(t *testing.T) {
		col, err := ResolveColumn(headers, []string{"Code Notes", "MHI Code Notes", "Description"})
		require.NoError(t, err)
		assert.Equal(t, "MHI Code\nNotes", col)
	})

	t.Run("no match returns ColumnNotFoundError", func(t *testing.T) {
		_, err := ResolveColumn(headers, []string{"Code Notes", "Rule Text"})
		require.Error(t, err)

		var colErr *ColumnNotFoundError
		require.True(t, errors.As(err, &colErr))
		assert.Equal(t, []string{"Code Notes", "Rule Text"}, colErr.Aliases)
		assert.Equal(t, headers, colErr.Available)
	})

	t.Run("empty header list", func(t *testing.T) {
		_, err := ResolveColumn(nil, []string{"Code"})
		var colErr *ColumnNotFoundError
		require.True(t, errors.As(err, &colErr))
	})
}
