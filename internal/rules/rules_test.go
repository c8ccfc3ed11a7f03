package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/rules"
)

func TestDefaultRuleset(t *testing.T) {
	rs := rules.Default()
	require.NotNil(t, rs)
	assert.Equal(t, "selectt-autofacture", rs.Name)

	for _, f := range []string{
		constants.FieldInvoiceNumber,
		constants.FieldOrderNumber,
		constants.FieldNetAmount,
		constants.FieldVATAmount,
		constants.FieldGrossAmount,
	} {
		assert.True(t, rs.FieldRequired(f), "field %s should be required", f)
	}
	assert.False(t, rs.FieldRequired(constants.FieldInvoiceDate))
	assert.False(t, rs.FieldRequired("no_such_field"))

	assert.Equal(t, "|", rs.LineItems.Delimiter)
	assert.Equal(t, 6, rs.LineItems.Columns)
	assert.Equal(t, "02/01/2006", rs.LineItems.PeriodFormat)
	assert.NotNil(t, rs.LineItems.EndRegexp())

	for i := range rs.Fields {
		assert.NotNil(t, rs.Fields[i].AnchorRegexp(), "field %s", rs.Fields[i].Field)
		assert.NotNil(t, rs.Fields[i].ValueRegexp(), "field %s", rs.Fields[i].Field)
	}
}

func TestFromJSONSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing name":       `{"fields": [{"field": "a", "anchor": "A", "value": "\\d+"}], "line_items": {"delimiter": "|", "columns": 6}}`,
		"empty fields":       `{"name": "t", "fields": [], "line_items": {"delimiter": "|", "columns": 6}}`,
		"missing delimiter":  `{"name": "t", "fields": [{"field": "a", "anchor": "A", "value": "\\d+"}], "line_items": {"columns": 6}}`,
		"columns below two":  `{"name": "t", "fields": [{"field": "a", "anchor": "A", "value": "\\d+"}], "line_items": {"delimiter": "|", "columns": 1}}`,
		"bad from value":     `{"name": "t", "fields": [{"field": "a", "anchor": "A", "value": "\\d+", "from": "middle"}], "line_items": {"delimiter": "|", "columns": 6}}`,
		"unknown field keys": `{"name": "t", "fields": [{"field": "a", "anchor": "A", "value": "\\d+", "extra": 1}], "line_items": {"delimiter": "|", "columns": 6}}`,
		"not json":           `{`,
	}
	for name, raw := range cases {
		_, err := rules.FromJSON([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestFromJSONBadRegex(t *testing.T) {
	_, err := rules.FromJSON([]byte(`{
		"name": "t",
		"fields": [{"field": "a", "anchor": "([", "value": "\\d+"}],
		"line_items": {"delimiter": "|", "columns": 6}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anchor")
}

func TestFromJSONDuplicateField(t *testing.T) {
	_, err := rules.FromJSON([]byte(`{
		"name": "t",
		"fields": [
			{"field": "a", "anchor": "A", "value": "\\d+"},
			{"field": "a", "anchor": "B", "value": "\\d+"}
		],
		"line_items": {"delimiter": "|", "columns": 6}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestFromJSONTooManyCaptureGroups(t *testing.T) {
	_, err := rules.FromJSON([]byte(`{
		"name": "t",
		"fields": [{"field": "a", "anchor": "A", "value": "(\\d+)-(\\d+)"}],
		"line_items": {"delimiter": "|", "columns": 6}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture groups")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleset.json")
	raw := `{
		"name": "custom",
		"fields": [{"field": "a", "anchor": "A", "value": "\\d+", "required": true}],
		"line_items": {"delimiter": ";", "columns": 4}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	rs, err := rules.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", rs.Name)
	assert.True(t, rs.FieldRequired("a"))
	assert.Equal(t, ";", rs.LineItems.Delimiter)
	assert.Equal(t, "02/01/2006", rs.LineItems.PeriodFormat, "period format defaults when omitted")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := rules.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
