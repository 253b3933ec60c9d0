package pdfvalidation

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Limits bounds an uploaded PDF.
type Limits struct {
	MaxFileSizeMB int
	MaxPages      int
	Label         string // used in messages, e.g. "question paper"
}

var (
	DefaultLimits = Limits{MaxFileSizeMB: 50, MaxPages: 500, Label: "document"}

	// Notes and books may be long.
	NotesLimits = Limits{MaxFileSizeMB: 100, MaxPages: 2000, Label: "notes"}
)

// LimitsFor picks limits by document type name.
func LimitsFor(documentType string, maxFileSizeMB int) Limits {
	limits := DefaultLimits
	switch documentType {
	case "Notes", "Books", "Book":
		limits = NotesLimits
	}
	if maxFileSizeMB > 0 && maxFileSizeMB < limits.MaxFileSizeMB {
		limits.MaxFileSizeMB = maxFileSizeMB
	}
	return limits
}

// Result reports the outcome of a validation. Error is a user-facing message
// and is empty when Valid is true.
type Result struct {
	Valid     bool
	PageCount int
	FileSize  int64
	Error     string
}

// ValidateBytes checks size, header and page count of a PDF held in memory.
func ValidateBytes(content []byte, limits Limits) Result {
	result := Result{FileSize: int64(len(content))}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if limits.MaxFileSizeMB > 0 && result.FileSize > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result
	}

	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		result.Error = "Invalid PDF file: missing PDF header"
		return result
	}

	pageCount, err := PageCount(content)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to read PDF: %v", err)
		return result
	}
	result.PageCount = pageCount

	if pageCount == 0 {
		result.Error = "PDF has no pages"
		return result
	}
	if limits.MaxPages > 0 && pageCount > limits.MaxPages {
		result.Error = fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d pages for %s",
			pageCount, limits.MaxPages, limits.Label)
		return result
	}

	result.Valid = true
	return result
}

// PageCount parses content and returns its number of pages.
func PageCount(content []byte) (int, error) {
	content = trimTrailingGarbage(content)
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return reader.NumPage(), nil
}

// trimTrailingGarbage cuts anything after the last %%EOF marker; some
// scanners append junk the reader rejects.
func trimTrailingGarbage(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return content
	}
	eofMarker := []byte("%%EOF")
	lastEOF := bytes.LastIndex(content, eofMarker)
	if lastEOF == -1 {
		return content
	}
	end := lastEOF + len(eofMarker)
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	return content[:end]
}
