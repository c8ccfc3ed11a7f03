package parse

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/amount"
	"github.com/selectt/autofacture-extractor/internal/common"
	"github.com/selectt/autofacture-extractor/internal/entity"
	"github.com/selectt/autofacture-extractor/internal/rules"
)

// LineItemResult is the output of one line-item pass: parsed rows in source
// order plus diagnostics for the rows that were skipped.
type LineItemResult struct {
	Items       []entity.LineItem
	Diagnostics []string
}

// LineItemParser segments the line-item region of raw text into rows with
// the fixed column layout: description | period | unit | unit price |
// quantity | amount. Rows that do not fit the layout are skipped and
// recorded, never fatal.
type LineItemParser struct {
	layout *rules.LineItemLayout
	logger *slog.Logger
}

func NewLineItemParser(rs *rules.Ruleset, logger *slog.Logger) *LineItemParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineItemParser{layout: &rs.LineItems, logger: logger}
}

// Parse extracts line items from text, preserving source row order. The
// owning invoice number is filled in later by the assembler; here the rows
// are parsed standalone.
func (p *LineItemParser) Parse(text string) LineItemResult {
	var res LineItemResult
	row := 0
	for _, line := range strings.Split(p.region(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, p.layout.Delimiter) {
			continue
		}
		row++
		item, err := p.parseRow(row, line)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, err.Error())
			p.logger.Warn("lineitems.row.skipped", "row", row, "error", err)
			continue
		}
		res.Items = append(res.Items, item)
	}
	return res
}

// region bounds the searchable text by the configured start and end markers.
func (p *LineItemParser) region(text string) string {
	if re := p.layout.StartRegexp(); re != nil {
		if loc := re.FindStringIndex(text); loc != nil {
			text = text[loc[1]:]
		}
	}
	if re := p.layout.EndRegexp(); re != nil {
		if loc := re.FindStringIndex(text); loc != nil {
			text = text[:loc[0]]
		}
	}
	return text
}

func (p *LineItemParser) parseRow(row int, line string) (entity.LineItem, error) {
	cells := strings.Split(line, p.layout.Delimiter)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if len(cells) != p.layout.Columns {
		return entity.LineItem{}, &common.RowParseError{
			Row: row, Line: line,
			Reason: fmt.Sprintf("expected %d columns, got %d", p.layout.Columns, len(cells)),
		}
	}
	if cells[0] == "" {
		return entity.LineItem{}, &common.RowParseError{Row: row, Line: line, Reason: "empty description"}
	}

	start, end, err := p.parsePeriod(cells[1])
	if err != nil {
		return entity.LineItem{}, &common.RowParseError{Row: row, Line: line, Reason: fmt.Sprintf("period: %v", err)}
	}
	unit, known := constants.CanonicalizeUnit(cells[2])
	if !known {
		p.logger.Debug("lineitems.unit.fallback",
			"row", row, "unit", cells[2],
			"allowed", strings.Join(constants.UnitsAsStringSlice(), ","))
	}
	unitPrice, err := amount.Normalize(cells[3])
	if err != nil {
		return entity.LineItem{}, &common.RowParseError{Row: row, Line: line, Reason: fmt.Sprintf("unit price: %v", err)}
	}
	qty, err := strconv.Atoi(cells[4])
	if err != nil {
		return entity.LineItem{}, &common.RowParseError{Row: row, Line: line, Reason: fmt.Sprintf("quantity: %v", err)}
	}
	amt, err := amount.Normalize(cells[5])
	if err != nil {
		return entity.LineItem{}, &common.RowParseError{Row: row, Line: line, Reason: fmt.Sprintf("amount: %v", err)}
	}

	return entity.LineItem{
		Description: cells[0],
		PeriodStart: start,
		PeriodEnd:   end,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Quantity:    qty,
		Amount:      amt,
	}, nil
}

// parsePeriod reads "start-end"; a bare date bills a single day.
func (p *LineItemParser) parsePeriod(cell string) (time.Time, time.Time, error) {
	startStr, endStr, ranged := strings.Cut(cell, "-")
	startStr = strings.TrimSpace(startStr)
	start, err := time.Parse(p.layout.PeriodFormat, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ranged {
		return start, start, nil
	}
	end, err := time.Parse(p.layout.PeriodFormat, strings.TrimSpace(endStr))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
