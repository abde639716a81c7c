package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{"statement text", []string{"HDFC BANK\nPayment Due Date 12/11/2024\nTotal Dues 83,794.00"}, true},
		{"rupee amounts", []string{"Total Amount Due ₹ 12,345.67 on your card"}, true},
		{"too short", []string{"Card"}, false},
		{"no statement words", []string{"lorem ipsum dolor sit amet consectetur"}, false},
		{"binary garbage", []string{"\x00\x01\x02ÿþý\x03\x04ÆØÅ\x05\x06\x07card\x08\x09ÿÿÿÿÿÿÿÿÿÿÿÿÿÿ"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isReadableText(tt.pages))
		})
	}
}

func TestTextQuality(t *testing.T) {
	assert.Equal(t, 0.0, textQuality(nil))
	assert.Equal(t, 1.0, textQuality([]string{"Total Due: $1,234.56"}))
	assert.Less(t, textQuality([]string{"ÆØÅÆØÅab"}), 0.5)
}

func TestTotalTextLen(t *testing.T) {
	assert.Equal(t, 0, totalTextLen([]string{"  ", "\n"}))
	assert.Equal(t, 6, totalTextLen([]string{" abc ", "def"}))
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestExtractTextNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	pages, err := ExtractText(path)
	if err == nil {
		// pdftotext is installed and produced nothing usable.
		assert.Zero(t, totalTextLen(pages))
	}
}
