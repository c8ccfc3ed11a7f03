// Package pipeline drives extraction for single documents and whole batches.
package pipeline

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/common"
	"github.com/selectt/autofacture-extractor/internal/entity"
	"github.com/selectt/autofacture-extractor/internal/parse"
	"github.com/selectt/autofacture-extractor/internal/rules"
)

// Processor coordinates field extraction + line-item parsing, then assembly,
// for one document. Per-document processing is pure with respect to shared
// state; a Processor is safe for concurrent use.
type Processor struct {
	Logger    *slog.Logger
	Fields    *parse.FieldExtractor
	Lines     *parse.LineItemParser
	Assembler *Assembler
}

func NewProcessor(logger *slog.Logger, fields *parse.FieldExtractor, lines *parse.LineItemParser, asm *Assembler) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Fields: fields, Lines: lines, Assembler: asm}
}

// NewRulesetProcessor wires a Processor for one ruleset.
func NewRulesetProcessor(logger *slog.Logger, rs *rules.Ruleset, tolerance decimal.Decimal) *Processor {
	return NewProcessor(logger,
		parse.NewFieldExtractor(rs, logger),
		parse.NewLineItemParser(rs, logger),
		NewAssembler(rs, tolerance, logger),
	)
}

// ProcessDocument produces the BatchResult entry for one document. Every
// document-level failure resolves to a FAILED entry; nothing propagates.
func (p *Processor) ProcessDocument(doc entity.Document) entity.DocumentOutcome {
	text := parse.CleanText(doc.Text)
	if text == "" {
		p.Logger.Warn("doc.unreadable", "doc_id", doc.ID)
		return entity.DocumentOutcome{
			DocumentID: doc.ID,
			Status:     constants.StatusFailed,
			Diagnostic: common.ErrDocumentUnreadable.Error() + ": empty text",
		}
	}

	fields := p.Fields.Extract(text)
	items := p.Lines.Parse(text)

	rec, diags, err := p.Assembler.Assemble(fields, items)
	if err != nil {
		p.Logger.Warn("doc.failed", "doc_id", doc.ID, "error", err)
		return entity.DocumentOutcome{DocumentID: doc.ID, Status: constants.StatusFailed, Diagnostic: err.Error()}
	}

	p.Logger.Info("doc.ok",
		"doc_id", doc.ID,
		"invoice", rec.InvoiceNumber,
		"status", rec.Status,
		"line_items", len(rec.LineItems),
		"missing_fields", len(rec.MissingFields),
	)
	return entity.DocumentOutcome{
		DocumentID: doc.ID,
		Record:     rec,
		Status:     rec.Status,
		Diagnostic: strings.Join(diags, "; "),
	}
}
