// Package parse implements the deterministic matching core: header field
// extraction driven by a rule table, and segmentation of the line-item
// region into typed rows.
package parse

import (
	"log/slog"
	"strings"

	"github.com/selectt/autofacture-extractor/internal/rules"
)

// FieldSet is the output of one field-extraction pass: raw string values
// keyed by rule field name, plus the fields no rule could resolve, in rule
// order.
type FieldSet struct {
	Values  map[string]string
	Missing []string
}

// Get returns the raw value for a field, if present.
func (fs FieldSet) Get(name string) (string, bool) {
	v, ok := fs.Values[name]
	return v, ok
}

// FieldExtractor applies an ordered rule table to raw text. Rules are
// evaluated independently; a rule that fails never blocks another. When an
// anchor matches more than once, the first occurrence in document order
// wins.
type FieldExtractor struct {
	ruleset *rules.Ruleset
	logger  *slog.Logger
}

func NewFieldExtractor(rs *rules.Ruleset, logger *slog.Logger) *FieldExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldExtractor{ruleset: rs, logger: logger}
}

// Extract produces one FieldSet for the given text.
func (e *FieldExtractor) Extract(text string) FieldSet {
	fs := FieldSet{Values: make(map[string]string, len(e.ruleset.Fields))}
	for i := range e.ruleset.Fields {
		r := &e.ruleset.Fields[i]
		v, ok := extractField(text, r)
		if !ok {
			fs.Missing = append(fs.Missing, r.Field)
			e.logger.Debug("fields.absent", "field", r.Field, "required", r.Required)
			continue
		}
		fs.Values[r.Field] = v
	}
	return fs
}

func extractField(text string, r *rules.FieldRule) (string, bool) {
	loc := r.AnchorRegexp().FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	pos := loc[1]
	if r.FromStart() {
		pos = loc[0]
	}

	// The value must sit adjacent to its label: search only the anchor's
	// line and the one after it, mirroring the source layout.
	m := r.ValueRegexp().FindStringSubmatch(twoLineWindow(text, pos))
	if m == nil {
		return "", false
	}
	v := m[0]
	if r.ValueRegexp().NumSubexp() == 1 {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// twoLineWindow returns the text from pos through the end of the line
// following the one containing pos.
func twoLineWindow(text string, pos int) string {
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		lineEnd := pos + i
		if j := strings.IndexByte(text[lineEnd+1:], '\n'); j >= 0 {
			return text[pos : lineEnd+1+j]
		}
	}
	return text[pos:]
}
