package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/selectt/autofacture-extractor/internal/common"
	"github.com/selectt/autofacture-extractor/internal/entity"
	"github.com/selectt/autofacture-extractor/internal/export"
	"github.com/selectt/autofacture-extractor/internal/extract"
	"github.com/selectt/autofacture-extractor/internal/pipeline"
	"github.com/selectt/autofacture-extractor/internal/repository"
	"github.com/selectt/autofacture-extractor/internal/rules"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir       = flag.String("dir", "", "directory with auto-facture PDFs (required)")
		out       = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		rulesPath = flag.String("rules", "", "ruleset JSON override (defaults to the embedded Select T.T ruleset)")
		workers   = flag.Int("workers", 0, "parallel documents (0 = use WORKERS env / default)")
		inmem     = flag.Bool("inmem", false, "archive to an in-memory store (ignores DB_URL/SQLITE_PATH)")
		noStore   = flag.Bool("no-archive", false, "skip the archive store")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "invoices.xlsx")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Load configuration (.env is optional)
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if *rulesPath != "" {
		cfg.Batch.RulesPath = *rulesPath
	}
	if *inmem {
		cfg.Database.DSN = ""
		cfg.Database.SQLitePath = "file::memory:?cache=shared"
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Ruleset: embedded default unless overridden
	ruleset := rules.Default()
	if cfg.Batch.RulesPath != "" {
		rs, err := rules.Load(cfg.Batch.RulesPath)
		if err != nil {
			logger.Error("failed to load ruleset", "path", cfg.Batch.RulesPath, "error", err)
			os.Exit(1)
		}
		ruleset = rs
		logger.Info("loaded ruleset", "path", cfg.Batch.RulesPath, "name", rs.Name)
	}

	// Collect source files
	paths, err := collectSources(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		logger.Error("no .pdf or .txt files found", "dir", *dir)
		os.Exit(1)
	}
	logger.Info("found source documents", "dir", *dir, "count", len(paths))

	extractor := extract.NewExtractor(extract.Config{Pdftotext: cfg.Extract.Pdftotext}, logger)
	docs := extractDocuments(ctx, extractor, paths, logger)

	// Run the batch
	proc := pipeline.NewRulesetProcessor(logger, ruleset, cfg.ToleranceDecimal())
	batch := pipeline.NewBatchProcessor(proc, logger,
		pipeline.WithWorkers(cfg.Batch.Workers),
		pipeline.WithProgress(func(done, total int) {
			fmt.Printf("processed %d/%d\n", done, total)
		}),
	)
	result, err := batch.Run(ctx, docs)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	// Archive (best effort; never fatal to the batch)
	if !*noStore {
		store, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			SQLitePath:      cfg.Database.SQLitePath,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open archive store", "error", err)
		} else {
			defer store.Close()
			if err := repository.NewInvoiceRepository(store, logger).SaveBatch(ctx, result); err != nil {
				logger.Error("failed to archive batch", "error", common.WrapError(err, "archive batch"))
			}
		}
	}

	// Export to XLSX
	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(logger).BuildWorkbook(result)
	if err != nil {
		logger.Error("failed to build workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"batch_id", result.BatchID.String(),
		"total", result.Total,
		"complete", result.Complete,
		"partial", result.Partial,
		"failed", result.Failed,
		"output_file", *out)

	fmt.Printf("Extraction complete!\n")
	fmt.Printf("- Documents: %d\n", result.Total)
	fmt.Printf("- Complete:  %d\n", result.Complete)
	fmt.Printf("- Partial:   %d\n", result.Partial)
	fmt.Printf("- Failed:    %d\n", result.Failed)
	fmt.Printf("- Output:    %s\n", *out)
}

// extractDocuments turns source paths into batch documents. A document that
// fails extraction still gets a batch entry: empty text resolves to FAILED
// downstream.
func extractDocuments(ctx context.Context, extractor extract.TextExtractor, paths []string, logger *slog.Logger) []entity.Document {
	docs := make([]entity.Document, 0, len(paths))
	for _, p := range paths {
		res, err := extractor.Extract(ctx, p)
		if err != nil {
			logger.Error("text extraction failed", "path", p, "error", err)
			docs = append(docs, entity.Document{ID: filepath.Base(p)})
			continue
		}
		docs = append(docs, entity.Document{ID: filepath.Base(p), Text: res.Text})
	}
	return docs
}

// collectSources walks root and returns .pdf/.txt files, sorted for a
// deterministic batch order.
func collectSources(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, common.WrapError(err, "walk "+root)
	}
	sort.Strings(paths)
	return paths, nil
}
