// Package export renders a BatchResult into the reconciliation workbook.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/entity"
)

const (
	sheetSummary  = "Summary"
	sheetDetail   = "Line Detail"
	sheetAnalysis = "Analysis"
)

// Service produces XLSX bytes from an assembled batch. It only reads the
// result; the column layout here is presentation, not pipeline logic.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildWorkbook renders the three sheets: Summary (one row per
// COMPLETE/PARTIAL record), Line Detail (one row per line item with its
// parent invoice number), and Analysis (the reconciliation projection).
func (s *Service) BuildWorkbook(res *entity.BatchResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	for _, sheet := range []string{sheetSummary, sheetDetail, sheetAnalysis} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := s.writeSummary(f, res); err != nil {
		return nil, err
	}
	if err := s.writeDetail(f, res); err != nil {
		return nil, err
	}
	if err := s.writeAnalysis(f, res); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"batch_id", res.BatchID.String(),
		"documents", res.Total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummary(f *excelize.File, res *entity.BatchResult) error {
	headers := []string{
		"Document",
		"Invoice Number",
		"Order Number",
		"Invoice Date",
		"Due Date",
		"Recipient",
		"Batch ID",
		"Assignment ID",
		"Net (" + constants.Currency + ")",
		"VAT (" + constants.Currency + ")",
		"Gross (" + constants.Currency + ")",
		"Status",
		"Missing Fields",
		"Diagnostic",
	}
	writeHeaders(f, sheetSummary, headers)

	row := 2
	for _, o := range res.Outcomes {
		rec := o.Record
		if rec == nil {
			continue
		}
		write := cellWriter(f, sheetSummary, row)
		write(1, o.DocumentID)
		write(2, rec.InvoiceNumber)
		write(3, rec.OrderNumber)
		write(4, dateCell(rec.InvoiceDate))
		write(5, dateCell(rec.DueDate))
		write(6, rec.Recipient)
		write(7, rec.BatchID)
		write(8, rec.AssignmentID)
		write(9, decCell(rec.NetAmount))
		write(10, decCell(rec.VATAmount))
		write(11, decCell(rec.GrossAmount))
		write(12, string(rec.Status))
		write(13, strings.Join(rec.MissingFields, ", "))
		write(14, o.Diagnostic)
		row++
	}

	_ = f.SetColWidth(sheetSummary, "A", "A", 32) // document
	_ = f.SetColWidth(sheetSummary, "B", "C", 16)
	_ = f.SetColWidth(sheetSummary, "D", "E", 12) // dates
	_ = f.SetColWidth(sheetSummary, "F", "F", 28) // recipient
	_ = f.SetColWidth(sheetSummary, "I", "K", 14) // amounts
	_ = f.SetColWidth(sheetSummary, "N", "N", 48) // diagnostic
	return nil
}

func (s *Service) writeDetail(f *excelize.File, res *entity.BatchResult) error {
	headers := []string{
		"Invoice Number",
		"Description",
		"Period Start",
		"Period End",
		"Unit",
		"Unit Price",
		"Quantity",
		"Amount (" + constants.Currency + ")",
	}
	writeHeaders(f, sheetDetail, headers)

	row := 2
	for _, rec := range res.Records() {
		for _, it := range rec.LineItems {
			write := cellWriter(f, sheetDetail, row)
			write(1, it.InvoiceNumber)
			write(2, it.Description)
			write(3, it.PeriodStart.Format("2006-01-02"))
			write(4, it.PeriodEnd.Format("2006-01-02"))
			write(5, string(it.Unit))
			write(6, it.UnitPrice.StringFixed(2))
			write(7, it.Quantity)
			write(8, it.Amount.StringFixed(2))
			row++
		}
	}

	_ = f.SetColWidth(sheetDetail, "B", "B", 40) // description
	_ = f.SetColWidth(sheetDetail, "C", "D", 12)
	_ = f.SetColWidth(sheetDetail, "F", "H", 12)
	return nil
}

func (s *Service) writeAnalysis(f *excelize.File, res *entity.BatchResult) error {
	headers := []string{
		"Invoice Number",
		"Order Number",
		"Invoice Date",
		"Batch ID",
		"Assignment ID",
		"Net",
		"VAT",
		"Gross",
		"Line Count",
		"Status",
	}
	writeHeaders(f, sheetAnalysis, headers)

	row := 2
	for _, rec := range res.Records() {
		write := cellWriter(f, sheetAnalysis, row)
		write(1, rec.InvoiceNumber)
		write(2, rec.OrderNumber)
		write(3, dateCell(rec.InvoiceDate))
		write(4, rec.BatchID)
		write(5, rec.AssignmentID)
		write(6, decCell(rec.NetAmount))
		write(7, decCell(rec.VATAmount))
		write(8, decCell(rec.GrossAmount))
		write(9, len(rec.LineItems))
		write(10, string(rec.Status))
		row++
	}

	_ = f.SetColWidth(sheetAnalysis, "A", "B", 16)
	_ = f.SetColWidth(sheetAnalysis, "F", "H", 12)
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func cellWriter(f *excelize.File, sheet string, row int) func(col int, v any) {
	return func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func decCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
