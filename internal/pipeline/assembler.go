package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/amount"
	"github.com/selectt/autofacture-extractor/internal/common"
	"github.com/selectt/autofacture-extractor/internal/entity"
	"github.com/selectt/autofacture-extractor/internal/parse"
	"github.com/selectt/autofacture-extractor/internal/rules"
)

// Assembler merges one document's header fields and line items into an
// InvoiceRecord and decides its extraction status.
type Assembler struct {
	ruleset   *rules.Ruleset
	tolerance decimal.Decimal
	logger    *slog.Logger
}

// NewAssembler builds an assembler. tolerance is the absolute slack allowed
// on the net+VAT vs gross check; negative values fall back to 0.01.
func NewAssembler(rs *rules.Ruleset, tolerance decimal.Decimal, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if tolerance.IsNegative() {
		tolerance = decimal.New(1, -2)
	}
	return &Assembler{ruleset: rs, tolerance: tolerance, logger: logger}
}

// Assemble builds the record. It returns ErrDocumentUnreadable when no
// anchor matched at all or the identity field is absent; any other gap
// downgrades the status instead of failing. The returned diagnostics feed
// the document's BatchResult entry.
func (a *Assembler) Assemble(fields parse.FieldSet, items parse.LineItemResult) (*entity.InvoiceRecord, []string, error) {
	if len(fields.Values) == 0 {
		return nil, nil, fmt.Errorf("no anchors matched: %w", common.ErrDocumentUnreadable)
	}
	invoiceNo, ok := fields.Get(constants.FieldInvoiceNumber)
	if !ok {
		return nil, nil, fmt.Errorf("identity field %s absent: %w", constants.FieldInvoiceNumber, common.ErrDocumentUnreadable)
	}

	missing := append([]string(nil), fields.Missing...)
	diags := append([]string(nil), items.Diagnostics...)

	rec := &entity.InvoiceRecord{InvoiceNumber: invoiceNo}
	rec.OrderNumber, _ = fields.Get(constants.FieldOrderNumber)
	rec.Recipient, _ = fields.Get(constants.FieldRecipient)
	rec.BatchID, _ = fields.Get(constants.FieldBatchID)
	rec.AssignmentID, _ = fields.Get(constants.FieldAssignmentID)

	parseDate := func(field string) *time.Time {
		raw, ok := fields.Get(field)
		if !ok {
			return nil
		}
		t, err := time.Parse(constants.HeaderDateFormat, raw)
		if err != nil {
			missing = append(missing, field)
			diags = append(diags, fmt.Sprintf("%s: unparseable date %q", field, raw))
			return nil
		}
		return &t
	}
	rec.InvoiceDate = parseDate(constants.FieldInvoiceDate)
	rec.DueDate = parseDate(constants.FieldDueDate)

	parseAmount := func(field string) *decimal.Decimal {
		raw, ok := fields.Get(field)
		if !ok {
			return nil
		}
		d, err := amount.Normalize(raw)
		if err != nil {
			// AmountParseError: the field counts as unparsed, same downgrade
			// rule as an absent field.
			missing = append(missing, field)
			diags = append(diags, fmt.Sprintf("%s: %v", field, err))
			return nil
		}
		return &d
	}
	rec.NetAmount = parseAmount(constants.FieldNetAmount)
	rec.VATAmount = parseAmount(constants.FieldVATAmount)
	rec.GrossAmount = parseAmount(constants.FieldGrossAmount)

	status := constants.StatusComplete
	for _, f := range missing {
		if a.ruleset.FieldRequired(f) {
			status = constants.StatusPartial
			diags = append(diags, (&common.MissingFieldError{Field: f, Required: true}).Error())
		}
	}

	if rec.NetAmount != nil && rec.VATAmount != nil && rec.GrossAmount != nil {
		sum := rec.NetAmount.Add(*rec.VATAmount)
		if sum.Sub(*rec.GrossAmount).Abs().GreaterThan(a.tolerance) {
			status = constants.StatusPartial
			diags = append(diags, fmt.Sprintf("totals do not reconcile: net+VAT=%s gross=%s",
				sum.StringFixed(2), rec.GrossAmount.StringFixed(2)))
		}
	}

	lineItems := make([]entity.LineItem, len(items.Items))
	for i, it := range items.Items {
		it.InvoiceNumber = invoiceNo
		lineItems[i] = it
	}
	rec.LineItems = lineItems
	rec.MissingFields = missing
	rec.Status = status
	return rec, diags, nil
}
