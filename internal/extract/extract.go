package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// RawLine is one line of receipt text together with its position in the
// document. The index is kept for diagnostics and multi-line item stitching.
type RawLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ExtractionError means the document has no machine-extractable text layer,
// e.g. a scanned image that was never OCRed.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting text: %s", e.Reason)
}

// Extractor produces the ordered line sequence for a single receipt document.
type Extractor interface {
	// Lines returns the text lines of the document in reading order.
	Lines(data []byte) ([]RawLine, error)
}

// PDFExtractor reads the text layer of a PDF.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Lines extracts the text layer of every page and splits it into lines.
// Line order follows the text layer exactly; no deduplication happens here.
func (p *PDFExtractor) Lines(data []byte) ([]RawLine, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var raw []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		raw = append(raw, strings.Split(text, "\n")...)
	}

	lines := NormalizeLines(raw)
	if len(lines) == 0 {
		return nil, &ExtractionError{Reason: "document has no text layer"}
	}
	return lines, nil
}

var innerSpaceRe = regexp.MustCompile(`[ \t]+`)

// NormalizeLines collapses runs of spaces and tabs, trims each line, and
// drops lines that are pure whitespace or page-break artifacts. The original
// line indices are preserved so diagnostics can point back into the document.
func NormalizeLines(raw []string) []RawLine {
	lines := make([]RawLine, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimSpace(innerSpaceRe.ReplaceAllString(text, " "))
		if text == "" {
			continue
		}
		lines = append(lines, RawLine{Index: i, Text: text})
	}
	return lines
}
