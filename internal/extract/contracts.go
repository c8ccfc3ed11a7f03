// Package extract is the text-extraction boundary: the external capability
// that turns a source document into raw text the engine can match against.
package extract

import (
	"context"
	"time"
)

// TextExtractor converts one source file into its full text content.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "plain-text"
	Duration time.Duration
	Warnings []string
}
