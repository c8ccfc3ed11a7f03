package constants

// Canonical header field names shared by rulesets, the assembler, and the
// archive store.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldOrderNumber   = "order_number"
	FieldInvoiceDate   = "invoice_date"
	FieldDueDate       = "due_date"
	FieldRecipient     = "recipient"
	FieldBatchID       = "batch_id"
	FieldAssignmentID  = "assignment_id"
	FieldNetAmount     = "net_amount"
	FieldVATAmount     = "vat_amount"
	FieldGrossAmount   = "gross_amount"
)

// HeaderDateFormat is the YYYY/MM/DD layout header dates are printed in.
const HeaderDateFormat = "2006/01/02"

// Currency is fixed; conversion is out of scope.
const Currency = "EUR"
