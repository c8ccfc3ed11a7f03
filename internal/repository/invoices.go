package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/entity"
)

type InvoiceRepository interface {
	SaveBatch(ctx context.Context, res *entity.BatchResult) error
	ListRecords(ctx context.Context, batchID uuid.UUID) ([]*entity.InvoiceRecord, error)
	ListLineItems(ctx context.Context, batchID uuid.UUID) ([]entity.LineItem, error)
}

type invoiceRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewInvoiceRepository(store *Store, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{store: store, logger: logger}
}

const dateLayout = "2006-01-02"

func (r *invoiceRepository) SaveBatch(ctx context.Context, res *entity.BatchResult) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		r.store.rebind(`INSERT INTO batches (id, total, complete, partial, failed, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		res.BatchID.String(), res.Total, res.Complete, res.Partial, res.Failed,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	insInvoice := r.store.rebind(`INSERT INTO invoices
		(batch_id, doc_seq, document_id, invoice_number, order_number, invoice_date, due_date,
		 recipient, vendor_batch_id, assignment_id, net_amount, vat_amount, gross_amount,
		 status, missing_fields, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insItem := r.store.rebind(`INSERT INTO line_items
		(batch_id, invoice_number, seq, description, period_start, period_end, unit, unit_price, quantity, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for seq, o := range res.Outcomes {
		rec := o.Record
		if rec == nil {
			rec = &entity.InvoiceRecord{}
		}
		if _, err := tx.ExecContext(ctx, insInvoice,
			res.BatchID.String(), seq, o.DocumentID,
			rec.InvoiceNumber, rec.OrderNumber,
			dateOrEmpty(rec.InvoiceDate), dateOrEmpty(rec.DueDate),
			rec.Recipient, rec.BatchID, rec.AssignmentID,
			decOrEmpty(rec.NetAmount), decOrEmpty(rec.VATAmount), decOrEmpty(rec.GrossAmount),
			string(o.Status), strings.Join(rec.MissingFields, ","), o.Diagnostic,
		); err != nil {
			return fmt.Errorf("insert invoice %s: %w", o.DocumentID, err)
		}
		for i, it := range rec.LineItems {
			if _, err := tx.ExecContext(ctx, insItem,
				res.BatchID.String(), it.InvoiceNumber, i,
				it.Description,
				it.PeriodStart.Format(dateLayout), it.PeriodEnd.Format(dateLayout),
				string(it.Unit), it.UnitPrice.String(), it.Quantity, it.Amount.String(),
			); err != nil {
				return fmt.Errorf("insert line item %s/%d: %w", it.InvoiceNumber, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("archive.batch.saved", "batch_id", res.BatchID.String(), "invoices", len(res.Outcomes))
	return nil
}

func (r *invoiceRepository) ListRecords(ctx context.Context, batchID uuid.UUID) ([]*entity.InvoiceRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(
		`SELECT invoice_number, order_number, invoice_date, due_date, recipient,
		        vendor_batch_id, assignment_id, net_amount, vat_amount, gross_amount,
		        status, missing_fields
		   FROM invoices WHERE batch_id = ? AND invoice_number <> '' ORDER BY doc_seq`),
		batchID.String())
	if err != nil {
		r.logger.Error("failed to list invoices", "batch_id", batchID, "error", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.InvoiceRecord
	for rows.Next() {
		var rec entity.InvoiceRecord
		var invDate, dueDate, net, vat, gross, status, missing sql.NullString
		if err := rows.Scan(&rec.InvoiceNumber, &rec.OrderNumber, &invDate, &dueDate,
			&rec.Recipient, &rec.BatchID, &rec.AssignmentID, &net, &vat, &gross,
			&status, &missing); err != nil {
			return nil, err
		}
		rec.InvoiceDate = scanDate(invDate)
		rec.DueDate = scanDate(dueDate)
		rec.NetAmount = scanDec(net)
		rec.VATAmount = scanDec(vat)
		rec.GrossAmount = scanDec(gross)
		rec.Status = constants.ExtractionStatus(status.String)
		if missing.String != "" {
			rec.MissingFields = strings.Split(missing.String, ",")
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *invoiceRepository) ListLineItems(ctx context.Context, batchID uuid.UUID) ([]entity.LineItem, error) {
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(
		`SELECT invoice_number, description, period_start, period_end, unit, unit_price, quantity, amount
		   FROM line_items WHERE batch_id = ? ORDER BY invoice_number, seq`),
		batchID.String())
	if err != nil {
		r.logger.Error("failed to list line items", "batch_id", batchID, "error", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		var start, end, unit, price, amt sql.NullString
		if err := rows.Scan(&it.InvoiceNumber, &it.Description, &start, &end, &unit, &price, &it.Quantity, &amt); err != nil {
			return nil, err
		}
		if t := scanDate(start); t != nil {
			it.PeriodStart = *t
		}
		if t := scanDate(end); t != nil {
			it.PeriodEnd = *t
		}
		it.Unit = constants.Unit(unit.String)
		if d := scanDec(price); d != nil {
			it.UnitPrice = *d
		}
		if d := scanDec(amt); d != nil {
			it.Amount = *d
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func decOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func scanDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func scanDec(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}
