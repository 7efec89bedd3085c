package hisab

import "github.com/shopspring/decimal"

// EqualSplit divides total among n heads, rounded half away from zero to
// cents. It returns zero when n <= 0. Every rounded per-head amount in the
// book comes from here, so n*EqualSplit(total, n) may differ from total by
// a cent or two.
func EqualSplit(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// PerHeadAmount returns the stored per-head share of e. Entries written
// before per-head was stored fall back to EqualSplit over fallbackTotal and
// fallbackCount, or over the entry's own amount (or total) and name count
// when the fallbacks are zero.
func PerHeadAmount(e Entry, fallbackTotal decimal.Decimal, fallbackCount int) decimal.Decimal {
	if e.PerHead != nil {
		return *e.PerHead
	}
	total := fallbackTotal
	if total.IsZero() {
		total = e.Amount
		if total.IsZero() {
			total = e.Total
		}
	}
	count := fallbackCount
	if count <= 0 {
		count = len(e.Names)
	}
	return EqualSplit(total, count)
}
