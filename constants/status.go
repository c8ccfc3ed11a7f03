package constants

// ExtractionStatus is the canonical outcome for one processed document.
type ExtractionStatus string

// Stable values (store these exact strings in the archive).
const (
	StatusComplete ExtractionStatus = "COMPLETE" // all required fields resolved, totals reconcile
	StatusPartial  ExtractionStatus = "PARTIAL"  // usable record with gaps or a failed check
	StatusFailed   ExtractionStatus = "FAILED"   // no usable record, diagnostic only
)
