package constants

import (
	"strings"
)

// Unit is the billing unit of one invoice line item.
type Unit string

const (
	UnitEach   Unit = "Each"
	UnitHours  Unit = "Hours"
	UnitDays   Unit = "Days"
	UnitWeeks  Unit = "Weeks"
	UnitMonths Unit = "Months"
	UnitOther  Unit = "Other"
)

var allUnits = []Unit{
	UnitEach,
	UnitHours,
	UnitDays,
	UnitWeeks,
	UnitMonths,
	UnitOther,
}

func UnitsAsStringSlice() []string {
	result := make([]string, len(allUnits))
	for i, u := range allUnits {
		result[i] = string(u)
	}
	return result
}

// CanonicalizeUnit maps a vendor unit label onto the enumeration.
// Unknown labels fall back to Other with ok=false.
func CanonicalizeUnit(input string) (Unit, bool) {
	if input == "" {
		return UnitOther, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map (Select T.T invoices mix English and French labels)
	synonyms := map[string]Unit{
		"ea":       UnitEach,
		"unit":     UnitEach,
		"unite":    UnitEach,
		"unité":    UnitEach,
		"hr":       UnitHours,
		"hrs":      UnitHours,
		"hour":     UnitHours,
		"heures":   UnitHours,
		"day":      UnitDays,
		"jour":     UnitDays,
		"jours":    UnitDays,
		"wk":       UnitWeeks,
		"week":     UnitWeeks,
		"semaine":  UnitWeeks,
		"semaines": UnitWeeks,
		"month":    UnitMonths,
		"mois":     UnitMonths,
	}

	if u, ok := synonyms[normalized]; ok {
		return u, true
	}

	// check if it matches any unit string
	for _, u := range allUnits {
		if normalized == strings.ToLower(string(u)) {
			return u, true
		}
	}

	return UnitOther, false
}
