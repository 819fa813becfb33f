package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SaleAmount computes the billed amount for quantity × rate, rounded to the
// nearest integer currency unit (half away from zero). Amounts in this
// system are always integer-valued; the rounding is part of the contract,
// not display formatting.
func SaleAmount(quantity, rate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(rate).Round(0)
}

// FormatID renders a sequence value as a human-readable transaction ID,
// "S17" for sales and "R42" for payment receipts.
func FormatID(kind SequenceKind, n int64) string {
	prefix := "S"
	if kind == SequenceReceipt {
		prefix = "R"
	}
	return fmt.Sprintf("%s%d", prefix, n)
}
