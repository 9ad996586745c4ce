// internal/serial/validator.go
package serial

import (
	"fmt"
	"strings"
)

// ErrorCode classifies a validation failure.
type ErrorCode string

const (
	ErrCodeFormat    ErrorCode = "format"
	ErrCodeOwnership ErrorCode = "ownership"
	ErrCodeDuplicate ErrorCode = "duplicate"
	ErrCodeQuantity  ErrorCode = "quantity"
	ErrCodeNotFound  ErrorCode = "not_found"
)

// ValidationError is one operator-facing validation failure. Validators
// collect every failure instead of stopping at the first so the operator can
// fix a whole submission in one pass.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// LineItem pairs a product barcode with its ordered (or refunded) quantity.
// Slices keep submission order so error lists come out deterministic.
type LineItem struct {
	Barcode  string
	Quantity int
}

type Validator struct {
	codec *Codec
}

func NewValidator(codec *Codec) *Validator {
	return &Validator{codec: codec}
}

// ParseLines splits raw textarea input into trimmed non-empty lines.
func ParseLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ValidateSold checks a sold-serial submission against the order's line
// items. Every line must parse, carry a barcode present in the order, and be
// unique by full token; every barcode's serial count must equal its quantity
// exactly. Empty input is valid only when the order has no line items.
func (v *Validator) ValidateSold(items []LineItem, raw string) []ValidationError {
	var errs []ValidationError
	lines := ParseLines(raw)

	barcodes, qtyByBarcode := indexItems(items)

	if len(lines) == 0 {
		if len(barcodes) > 0 {
			errs = append(errs, ValidationError{
				Code:    ErrCodeQuantity,
				Message: fmt.Sprintf("No serial numbers provided for order with %d items.", len(barcodes)),
			})
		}
		return errs
	}

	serialMap := map[string]int{}
	var allTokens []string

	for _, line := range lines {
		barcode, _, err := v.codec.Decode(line)
		if err != nil {
			errs = append(errs, ValidationError{
				Code:    ErrCodeFormat,
				Message: fmt.Sprintf("Invalid serial format: %s", line),
			})
			continue
		}
		if _, ok := qtyByBarcode[barcode]; !ok {
			errs = append(errs, ValidationError{
				Code:    ErrCodeOwnership,
				Message: fmt.Sprintf("Barcode %s not in order.", barcode),
			})
			continue
		}
		serialMap[barcode]++
		allTokens = append(allTokens, line)
	}

	for _, dup := range duplicateCounts(allTokens) {
		errs = append(errs, ValidationError{
			Code:    ErrCodeDuplicate,
			Message: fmt.Sprintf("Duplicate serial found: %s (used %d times)", dup.token, dup.count),
		})
	}

	for _, barcode := range barcodes {
		qty := qtyByBarcode[barcode]
		found := serialMap[barcode]
		if found != qty {
			errs = append(errs, ValidationError{
				Code:    ErrCodeQuantity,
				Message: fmt.Sprintf("Quantity mismatch for product %s: need exactly %d serial(s), found %d.", barcode, qty, found),
			})
		}
	}

	return errs
}

// ValidateReturned checks a returned-serial submission against what was sold
// and what was actually refunded. Empty returned input opts out cleanly.
// Returned counts must match refunded counts per barcode in both directions,
// and returns without any refund on record are rejected.
func (v *Validator) ValidateReturned(soldRaw, returnedRaw string, refunded []LineItem) []ValidationError {
	if strings.TrimSpace(returnedRaw) == "" {
		return nil
	}

	var errs []ValidationError
	refundedBarcodes, refundedQty := indexItems(refunded)

	soldSet := map[string]bool{}
	for _, line := range ParseLines(soldRaw) {
		if _, _, err := v.codec.Decode(line); err == nil {
			soldSet[line] = true
		}
	}

	returnedSeen := map[string]bool{}
	returnedByBarcode := map[string]int{}
	var returnedBarcodes []string
	returnedAny := false

	for _, line := range ParseLines(returnedRaw) {
		barcode, _, err := v.codec.Decode(line)
		if err != nil {
			errs = append(errs, ValidationError{
				Code:    ErrCodeFormat,
				Message: fmt.Sprintf("Invalid returned serial format: %s", line),
			})
			continue
		}
		if !soldSet[line] {
			errs = append(errs, ValidationError{
				Code:    ErrCodeOwnership,
				Message: fmt.Sprintf("Serial '%s' was not found in sold items", line),
			})
			continue
		}
		if returnedSeen[line] {
			errs = append(errs, ValidationError{
				Code:    ErrCodeDuplicate,
				Message: fmt.Sprintf("Duplicate returned serial: %s", line),
			})
			continue
		}
		returnedSeen[line] = true
		returnedAny = true
		if returnedByBarcode[barcode] == 0 {
			returnedBarcodes = append(returnedBarcodes, barcode)
		}
		returnedByBarcode[barcode]++
	}

	if len(refundedBarcodes) > 0 {
		for _, barcode := range refundedBarcodes {
			want := refundedQty[barcode]
			got := returnedByBarcode[barcode]
			if got != want {
				errs = append(errs, ValidationError{
					Code:    ErrCodeQuantity,
					Message: fmt.Sprintf("Quantity mismatch for returned product %s: expected %d, found %d", barcode, want, got),
				})
			}
		}
		for _, barcode := range returnedBarcodes {
			if refundedQty[barcode] <= 0 {
				errs = append(errs, ValidationError{
					Code:    ErrCodeQuantity,
					Message: fmt.Sprintf("Product %s has returned serials but no refunds on record", barcode),
				})
			}
		}
	} else if returnedAny {
		errs = append(errs, ValidationError{
			Code:    ErrCodeQuantity,
			Message: "No refunds found for this order, but returned serials were provided",
		})
	}

	return errs
}

// ValidateReplacement checks a replacement order's sold serials against the
// returned serials of the order it references. refLabel names the referenced
// order in error messages. Every barcode sold here must have returned stock
// of the same barcode in the referenced order, and must not exceed it.
// Replacing fewer units than were returned is allowed.
func (v *Validator) ValidateReplacement(soldRaw, referencedReturnedRaw, refLabel string) []ValidationError {
	var errs []ValidationError

	returnedByBarcode := v.groupByBarcode(referencedReturnedRaw)
	if len(returnedByBarcode.counts) == 0 {
		return append(errs, ValidationError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("No valid returned serials found in order #%s", refLabel),
		})
	}

	soldByBarcode := v.groupByBarcode(soldRaw)
	for _, barcode := range soldByBarcode.order {
		soldQty := soldByBarcode.counts[barcode]
		returnedQty, ok := returnedByBarcode.counts[barcode]
		if !ok {
			errs = append(errs, ValidationError{
				Code:    ErrCodeOwnership,
				Message: fmt.Sprintf("Product %s in current order doesn't have returned items in order #%s", barcode, refLabel),
			})
			continue
		}
		if soldQty > returnedQty {
			errs = append(errs, ValidationError{
				Code:    ErrCodeQuantity,
				Message: fmt.Sprintf("Quantity mismatch for product %s: replacing %d items but only %d were returned in order #%s", barcode, soldQty, returnedQty, refLabel),
			})
		}
	}

	return errs
}

// barcodeGroups is a per-barcode token count that remembers first-seen order.
type barcodeGroups struct {
	order  []string
	counts map[string]int
}

// groupByBarcode tallies decodable tokens per barcode, skipping malformed
// lines.
func (v *Validator) groupByBarcode(raw string) barcodeGroups {
	g := barcodeGroups{counts: map[string]int{}}
	for _, line := range ParseLines(raw) {
		barcode, _, err := v.codec.Decode(line)
		if err != nil {
			continue
		}
		if g.counts[barcode] == 0 {
			g.order = append(g.order, barcode)
		}
		g.counts[barcode]++
	}
	return g
}

// indexItems collapses line items into a barcode set with first-seen order.
// Quantities for a repeated barcode are summed.
func indexItems(items []LineItem) (order []string, qty map[string]int) {
	qty = map[string]int{}
	for _, it := range items {
		if it.Barcode == "" {
			continue
		}
		if _, seen := qty[it.Barcode]; !seen {
			order = append(order, it.Barcode)
		}
		qty[it.Barcode] += it.Quantity
	}
	return order, qty
}

type dupEntry struct {
	token string
	count int
}

// duplicateCounts reports tokens appearing more than once, in first-seen
// order, with their total occurrence counts.
func duplicateCounts(tokens []string) []dupEntry {
	counts := map[string]int{}
	var order []string
	for _, t := range tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	var dups []dupEntry
	for _, t := range order {
		if counts[t] > 1 {
			dups = append(dups, dupEntry{token: t, count: counts[t]})
		}
	}
	return dups
}
