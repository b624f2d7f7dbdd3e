package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/reasm-dev/reasm/internal/analysis"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
)

// TextExtractor turns document bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Extractor handles PDF and plain-text resumes.
type Extractor struct {
	// MaxPages bounds how many PDF pages are read; zero reads all of them.
	MaxPages int
}

// NewExtractor returns an extractor reading at most maxPages PDF pages.
func NewExtractor(maxPages int) *Extractor {
	return &Extractor{MaxPages: maxPages}
}

// Extract detects the document type and returns its cleaned text.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", &analysis.EmptyInputError{Field: "resume", Message: "uploaded document is empty"}
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is(mimePDF):
		return e.extractPDF(ctx, data)
	case isText(mt):
		text := CleanText(string(data))
		if text == "" {
			return "", &analysis.EmptyInputError{Field: "resume", Message: "document contains only whitespace"}
		}
		return text, nil
	default:
		return "", &analysis.UnsupportedDocumentError{MediaType: mt.String()}
	}
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &analysis.ExtractionFailedError{Message: "the PDF could not be parsed", Cause: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &analysis.ExtractionFailedError{Message: "the PDF could not be opened", Cause: err}
	}

	pages := reader.NumPage()
	if e.MaxPages > 0 && pages > e.MaxPages {
		pages = e.MaxPages
	}

	var builder strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &analysis.ExtractionFailedError{Message: fmt.Sprintf("reading page %d", i), Cause: err}
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}

	cleaned := CleanText(builder.String())
	if cleaned == "" {
		return "", &analysis.ExtractionFailedError{
			Message: "no extractable text found; ensure the PDF is not a scanned image",
		}
	}

	return cleaned, nil
}

// isText accepts plain text and its descendants (CSV-looking or markdown resumes).
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(mimeText) {
			return true
		}
	}
	return false
}
