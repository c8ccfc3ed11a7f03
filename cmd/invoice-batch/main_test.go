package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectt/autofacture-extractor/internal/extract"
)

type stubExtractor struct {
	texts map[string]string
}

func (s stubExtractor) Extract(_ context.Context, path string) (extract.TextExtractionResult, error) {
	text, ok := s.texts[path]
	if !ok {
		return extract.TextExtractionResult{}, errors.New("broken file")
	}
	return extract.TextExtractionResult{Text: text, Pages: 1, Method: "plain-text"}, nil
}

func TestExtractDocuments(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ex := stubExtractor{texts: map[string]string{
		"/in/a.pdf": "Auto-facture: 4968S0001",
		"/in/c.pdf": "Auto-facture: 4968S0003",
	}}

	docs := extractDocuments(context.Background(), ex, []string{"/in/a.pdf", "/in/b.pdf", "/in/c.pdf"}, logger)

	require.Len(t, docs, 3, "extraction failures still get a batch entry")
	assert.Equal(t, "a.pdf", docs[0].ID)
	assert.Equal(t, "Auto-facture: 4968S0001", docs[0].Text)
	assert.Equal(t, "b.pdf", docs[1].ID)
	assert.Empty(t, docs[1].Text, "failed document carries empty text for downstream FAILED handling")
	assert.Equal(t, "c.pdf", docs[2].ID)
}
