package parse

import "fmt"

// Diagnostic codes attached to a ParsedReceipt. Non-fatal conditions are
// collected here instead of aborting the parse.
const (
	DiagTruncatedReceipt  = "truncated_receipt"
	DiagUnparsableLine    = "unparsable_line"
	DiagItemPriceMismatch = "item_price_mismatch"
	DiagTotalMismatch     = "total_mismatch"
)

// Diagnostic is one non-fatal condition observed during a parse. Line is the
// original document line index, or -1 when the condition is not tied to a
// single line.
type Diagnostic struct {
	Code    string `json:"code"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// HeaderNotFoundError means the order id or date could not be located within
// the header scan window. This is fatal: every downstream row needs the order
// id as a foreign key.
type HeaderNotFoundError struct {
	Window         int
	MissingOrderID bool
	MissingDate    bool
}

func (e *HeaderNotFoundError) Error() string {
	switch {
	case e.MissingOrderID && e.MissingDate:
		return fmt.Sprintf("no order id or date in first %d lines", e.Window)
	case e.MissingOrderID:
		return fmt.Sprintf("no order id in first %d lines", e.Window)
	default:
		return fmt.Sprintf("no order date in first %d lines", e.Window)
	}
}

// UnparsableLineError reports an item line that matched no grammar rule even
// after continuation stitching. The line is skipped and the receipt marked
// partial; the parse itself continues.
type UnparsableLineError struct {
	Line int
	Text string
}

func (e *UnparsableLineError) Error() string {
	return fmt.Sprintf("unparsable item line %d: %q", e.Line, e.Text)
}
