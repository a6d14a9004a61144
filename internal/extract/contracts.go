// Package extract is the document-text boundary: file path in, ordered page texts out.
package extract

import (
	"context"
	"strings"
	"time"
)

// TextExtractor turns a document path into page texts.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Document, error)
}

// PageCounter reports how many pages a document has.
type PageCounter interface {
	PageCount(ctx context.Context, path string) (int, error)
}

type Document struct {
	Path     string
	Pages    []string
	Method   string // "pdftotext"
	Duration time.Duration
}

// Text concatenates the pages, each followed by a newline.
func (d Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
