// Package extract turns uploaded file bytes into plain text for chunking.
// PDF parsing is handled by github.com/ledongthuc/pdf; everything else is
// treated as UTF-8 text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction is returned when input bytes cannot be turned into usable
// text: unsupported or corrupt formats, or files that are empty after
// extraction. Callers surface it as an invalid-input failure, never a retry.
var ErrExtraction = errors.New("text extraction failed")

// Text extracts plain text from raw file bytes. The filename is used only
// to pick the parser by extension.
func Text(filename string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrExtraction)
	}

	var text string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = pdfText(raw)
	default:
		text, err = plainText(raw)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text extracted from %s", ErrExtraction, filename)
	}

	return normalize(text), nil
}

func plainText(raw []byte) (string, error) {
	if bytes.ContainsRune(raw, 0) || !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", ErrExtraction)
	}
	return string(raw), nil
}

func pdfText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: opening pdf: %v", ErrExtraction, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: reading pdf text: %v", ErrExtraction, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: reading pdf buffer: %v", ErrExtraction, err)
	}

	return buf.String(), nil
}

// normalize collapses carriage returns so chunk offsets are stable across
// platforms.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
