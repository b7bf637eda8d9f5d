package enrich

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Result carries what content extraction produced for one file.
type Result struct {
	PageCount     int
	ExtractedText string
}

// Enricher is the optional content-extraction step. A nil Result with a nil
// error means the file type is not supported; an error marks the row as
// parsedOk=false but never fails the file's mirror.
type Enricher interface {
	Enrich(name, mimeType string, data []byte) (*Result, error)
}

// maxExtractedText caps how much text is stored on a catalog row.
const maxExtractedText = 64 * 1024

// Extractor enriches PDFs (page count plus text) and plain text files.
type Extractor struct{}

func (Extractor) Enrich(name, mimeType string, data []byte) (*Result, error) {
	switch {
	case mimeType == "application/pdf" || strings.HasSuffix(strings.ToLower(name), ".pdf"):
		return enrichPDF(data)
	case strings.HasPrefix(mimeType, "text/"):
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s: not valid utf-8", name)
		}
		return &Result{ExtractedText: truncate(string(data))}, nil
	default:
		return nil, nil
	}
}

func enrichPDF(data []byte) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	res := &Result{PageCount: r.NumPage()}

	text, err := r.GetPlainText()
	if err != nil {
		// page count alone is still useful
		return res, nil
	}
	var sb strings.Builder
	if _, err := io.CopyN(&sb, text, maxExtractedText); err != nil && err != io.EOF {
		return res, nil
	}
	res.ExtractedText = sb.String()
	return res, nil
}

func truncate(s string) string {
	if len(s) <= maxExtractedText {
		return s
	}
	return s[:maxExtractedText]
}
