package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

// Extractor reads the text layer of born-digital PDFs via pdftotext and
// plain .txt files directly. Scanned (image-only) PDFs are out of scope.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	var res TextExtractionResult
	switch ext {
	case "pdf":
		text, pages, warns, err := e.pdfToText(ctx, path)
		if err != nil {
			return res, fmt.Errorf("pdftotext %s: %w", path, err)
		}
		res = TextExtractionResult{Text: text, Pages: pages, Method: "pdf-text", Warnings: warns}
	case "txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return res, err
		}
		res = TextExtractionResult{Text: string(b), Pages: 1, Method: "plain-text"}
	default:
		return res, fmt.Errorf("unsupported extension: %q", ext)
	}

	res.Duration = time.Since(start)
	e.logger.Debug("extract.ok", "path", path, "method", res.Method, "pages", res.Pages, "bytes", len(res.Text))
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}
