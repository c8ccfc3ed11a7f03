package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/selectt/autofacture-extractor/constants"
)

// InvoiceRecord is one extracted auto-facture. Identity is InvoiceNumber,
// unique within a batch; duplicates are flagged, never merged.
// Records are value objects: built once by the pipeline, never mutated after.
type InvoiceRecord struct {
	InvoiceNumber string                     `json:"invoice_number"`
	OrderNumber   string                     `json:"order_number"`
	InvoiceDate   *time.Time                 `json:"invoice_date,omitempty"`
	DueDate       *time.Time                 `json:"due_date,omitempty"`
	Recipient     string                     `json:"recipient"`
	BatchID       string                     `json:"batch_id"`
	AssignmentID  string                     `json:"assignment_id"`
	NetAmount     *decimal.Decimal           `json:"net_amount,omitempty"`
	VATAmount     *decimal.Decimal           `json:"vat_amount,omitempty"`
	GrossAmount   *decimal.Decimal           `json:"gross_amount,omitempty"`
	Status        constants.ExtractionStatus `json:"status"`
	MissingFields []string                   `json:"missing_fields,omitempty"`
	LineItems     []LineItem                 `json:"line_items,omitempty"`
}

// LineItem is one billed service/period row. InvoiceNumber is a
// back-reference to the owning record; ownership (and ordering) lives on
// InvoiceRecord.LineItems.
type LineItem struct {
	InvoiceNumber string          `json:"invoice_number"`
	Description   string          `json:"description"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	Unit          constants.Unit  `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
}

// Document pairs a source identifier with its extractable raw text,
// as supplied by the external text-extraction collaborator.
type Document struct {
	ID   string
	Text string
}

// DocumentOutcome is one BatchResult entry. Record is nil when Status is
// FAILED; Diagnostic carries the human-readable reason, if any.
type DocumentOutcome struct {
	DocumentID string                     `json:"document_id"`
	Record     *InvoiceRecord             `json:"record,omitempty"`
	Status     constants.ExtractionStatus `json:"status"`
	Diagnostic string                     `json:"diagnostic,omitempty"`
}

// BatchResult aggregates one batch run. Outcomes holds exactly one entry per
// input document, in input order, regardless of success or failure.
type BatchResult struct {
	BatchID  uuid.UUID         `json:"batch_id"`
	Total    int               `json:"total"`
	Complete int               `json:"complete"`
	Partial  int               `json:"partial"`
	Failed   int               `json:"failed"`
	Outcomes []DocumentOutcome `json:"outcomes"`
}

// Records returns the non-FAILED invoice records in outcome order.
func (r *BatchResult) Records() []*InvoiceRecord {
	out := make([]*InvoiceRecord, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Record != nil {
			out = append(out, o.Record)
		}
	}
	return out
}
