package document

import (
	"context"
	"io"
	"regexp"
	"strings"
)

// Texts an extractor returns instead of an error when a document has nothing usable.
const (
	MissingDocumentText    = "Please upload a blood test report PDF file to get a detailed analysis of your results."
	InvalidFormatText      = "Please upload a valid PDF file containing your blood test report."
	EmptyDocumentText      = "The uploaded PDF appears to be empty or unreadable. Please ensure you've uploaded a valid blood test report."
	UnreadableDocumentText = "Unable to read the PDF file. Please ensure you've uploaded a valid blood test report in PDF format."
)

var sentinels = map[string]bool{
	MissingDocumentText:    true,
	InvalidFormatText:      true,
	EmptyDocumentText:      true,
	UnreadableDocumentText: true,
}

// Extractor turns a stored document into normalized text.
// Unreadable input yields one of the sentinel texts with a nil error;
// an error means the extraction itself could not run (e.g. cancelled).
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
	Close() error
}

// IsPlaceholder reports whether text carries no report data: empty, a sentinel,
// or an upload instruction.
func IsPlaceholder(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || sentinels[trimmed] {
		return true
	}
	return strings.Contains(strings.ToLower(trimmed), "please upload")
}

var (
	multiNewline = regexp.MustCompile(`\n{2,}`)
	multiSpace   = regexp.MustCompile(` {2,}`)
)

// CleanText collapses blank lines and runs of spaces and trims the result.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiNewline.ReplaceAllString(text, "\n")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
