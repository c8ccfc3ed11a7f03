// Package rules holds the declarative extraction rule tables. A ruleset is
// plain JSON: an ordered list of label-anchored field rules plus the fixed
// column layout of the line-item table. The default Select T.T ruleset is
// embedded; alternate layouts load from disk and are validated against an
// embedded JSON Schema before any regex compiles.
package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed selectt.json
var defaultJSON []byte

// FieldRule locates one labeled header value. The anchor finds the label,
// the value pattern extracts the adjacent token. From selects where the
// value search begins: "end" (default) after the anchor match, "start" at
// the anchor match itself, for composite tokens that are both label and
// value carrier (e.g. 4968_12345_...).
type FieldRule struct {
	Field    string `json:"field"`
	Anchor   string `json:"anchor"`
	Value    string `json:"value"`
	Required bool   `json:"required,omitempty"`
	From     string `json:"from,omitempty"`

	anchorRe *regexp.Regexp
	valueRe  *regexp.Regexp
}

func (r *FieldRule) AnchorRegexp() *regexp.Regexp { return r.anchorRe }
func (r *FieldRule) ValueRegexp() *regexp.Regexp  { return r.valueRe }

// FromStart reports whether the value search begins at the anchor match
// start rather than its end.
func (r *FieldRule) FromStart() bool { return r.From == "start" }

// LineItemLayout describes the fixed column layout of the detail table:
// description | period start-end | unit | unit price | quantity | amount.
type LineItemLayout struct {
	StartMarker  string `json:"start_marker,omitempty"`
	EndMarker    string `json:"end_marker,omitempty"`
	Delimiter    string `json:"delimiter"`
	Columns      int    `json:"columns"`
	PeriodFormat string `json:"period_format,omitempty"`

	startRe *regexp.Regexp
	endRe   *regexp.Regexp
}

func (l *LineItemLayout) StartRegexp() *regexp.Regexp { return l.startRe }
func (l *LineItemLayout) EndRegexp() *regexp.Regexp   { return l.endRe }

// Ruleset is one vendor invoice layout.
type Ruleset struct {
	Name      string         `json:"name"`
	Fields    []FieldRule    `json:"fields"`
	LineItems LineItemLayout `json:"line_items"`
}

// FieldRequired reports whether the named field is declared required.
func (rs *Ruleset) FieldRequired(name string) bool {
	for i := range rs.Fields {
		if rs.Fields[i].Field == name {
			return rs.Fields[i].Required
		}
	}
	return false
}

// Default returns the embedded Select T.T ruleset.
func Default() *Ruleset {
	rs, err := parse(defaultJSON)
	if err != nil {
		// the embedded ruleset is covered by tests; failing here is a build defect
		panic(fmt.Sprintf("embedded ruleset: %v", err))
	}
	return rs
}

// Load reads a ruleset from disk, validates it against the embedded schema,
// and compiles its patterns.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	return FromJSON(data)
}

// FromJSON validates raw ruleset JSON against the embedded schema and
// compiles it.
func FromJSON(data []byte) (*Ruleset, error) {
	if err := validateAgainstSchema(data); err != nil {
		return nil, err
	}
	return parse(data)
}

func validateAgainstSchema(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ruleset.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("ruleset.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal ruleset: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("ruleset does not match schema: %w", err)
	}
	return nil
}

func parse(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal ruleset: %w", err)
	}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (rs *Ruleset) compile() error {
	seen := make(map[string]struct{}, len(rs.Fields))
	for i := range rs.Fields {
		r := &rs.Fields[i]
		if _, dup := seen[r.Field]; dup {
			return fmt.Errorf("field %q: duplicate rule", r.Field)
		}
		seen[r.Field] = struct{}{}

		var err error
		if r.anchorRe, err = regexp.Compile(r.Anchor); err != nil {
			return fmt.Errorf("field %q: anchor: %w", r.Field, err)
		}
		if r.valueRe, err = regexp.Compile(r.Value); err != nil {
			return fmt.Errorf("field %q: value: %w", r.Field, err)
		}
		if r.valueRe.NumSubexp() > 1 {
			return fmt.Errorf("field %q: value pattern has %d capture groups, want at most 1", r.Field, r.valueRe.NumSubexp())
		}
	}

	li := &rs.LineItems
	if li.Columns < 2 {
		return fmt.Errorf("line_items: columns must be >= 2, got %d", li.Columns)
	}
	if li.Delimiter == "" {
		return fmt.Errorf("line_items: delimiter is required")
	}
	if li.PeriodFormat == "" {
		li.PeriodFormat = "02/01/2006"
	}
	var err error
	if li.StartMarker != "" {
		if li.startRe, err = regexp.Compile(li.StartMarker); err != nil {
			return fmt.Errorf("line_items: start_marker: %w", err)
		}
	}
	if li.EndMarker != "" {
		if li.endRe, err = regexp.Compile(li.EndMarker); err != nil {
			return fmt.Errorf("line_items: end_marker: %w", err)
		}
	}
	return nil
}
