package parse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/parse"
	"github.com/selectt/autofacture-extractor/internal/rules"
)

func TestParseLineItemsPreservesOrder(t *testing.T) {
	text := `Header stuff
Service A | 01/01/2024-31/01/2024 | Each | 100.00 | 1 | 100.00
Service B | 01/02/2024-29/02/2024 | Hours | 50.00 | 2 | 100.00
Service C | 01/03/2024-31/03/2024 | Days | 10.00 | 3 | 30.00
Total 230.00
`
	p := parse.NewLineItemParser(rules.Default(), nil)
	res := p.Parse(text)

	require.Len(t, res.Items, 3)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "Service A", res.Items[0].Description)
	assert.Equal(t, "Service B", res.Items[1].Description)
	assert.Equal(t, "Service C", res.Items[2].Description)

	first := res.Items[0]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first.PeriodStart)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), first.PeriodEnd)
	assert.Equal(t, constants.UnitEach, first.Unit)
	assert.Equal(t, "100", first.UnitPrice.String())
	assert.Equal(t, 1, first.Quantity)
	assert.Equal(t, "100", first.Amount.String())

	assert.Equal(t, constants.UnitHours, res.Items[1].Unit)
	assert.Equal(t, constants.UnitDays, res.Items[2].Unit)
}

func TestParseLineItemsSkipsBadRows(t *testing.T) {
	text := `Service A | 01/01/2024-31/01/2024 | Each | 100.00 | 1 | 100.00
garbage | row | with | wrong | count
Service B | not-a-date | Each | 50.00 | 1 | 50.00
Service C | 01/03/2024-31/03/2024 | Each | bad | 1 | 30.00
Service D | 01/04/2024-30/04/2024 | Each | 30.00 | x | 30.00
Service E | 01/05/2024-31/05/2024 | Each | 30.00 | 1 | 30.00
`
	p := parse.NewLineItemParser(rules.Default(), nil)
	res := p.Parse(text)

	require.Len(t, res.Items, 2, "only the well-formed rows survive")
	assert.Equal(t, "Service A", res.Items[0].Description)
	assert.Equal(t, "Service E", res.Items[1].Description)
	assert.Len(t, res.Diagnostics, 4, "each skipped row leaves a diagnostic")
}

func TestParseLineItemsEndMarker(t *testing.T) {
	text := `Service A | 01/01/2024-31/01/2024 | Each | 100.00 | 1 | 100.00
Invoice Total
Phantom | 01/02/2024-29/02/2024 | Each | 1.00 | 1 | 1.00
`
	p := parse.NewLineItemParser(rules.Default(), nil)
	res := p.Parse(text)

	require.Len(t, res.Items, 1, "rows after the end marker are outside the region")
	assert.Equal(t, "Service A", res.Items[0].Description)
}

func TestParseLineItemsUnitFallback(t *testing.T) {
	text := `Service A | 01/01/2024-31/01/2024 | Furlongs | 100.00 | 1 | 100.00`
	p := parse.NewLineItemParser(rules.Default(), nil)
	res := p.Parse(text)

	require.Len(t, res.Items, 1)
	assert.Equal(t, constants.UnitOther, res.Items[0].Unit)
}

func TestParseLineItemsSingleDatePeriod(t *testing.T) {
	text := `Service A | 15/01/2024 | Each | 100.00 | 1 | 100.00`
	p := parse.NewLineItemParser(rules.Default(), nil)
	res := p.Parse(text)

	require.Len(t, res.Items, 1)
	assert.Equal(t, res.Items[0].PeriodStart, res.Items[0].PeriodEnd)
}

func TestParseLineItemsNoDelimiterNoRows(t *testing.T) {
	p := parse.NewLineItemParser(rules.Default(), nil)
	res := p.Parse("Auto-facture: 4968S0001\nNet: 235.62\n")
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Diagnostics)
}
