package reconcile

import "math"

// Profit derives the referral profit from spending and share rate. The
// derivation is total: any error tag, absent value or non-finite operand
// yields 0.00 instead of failing, so a single bad row cannot abort a
// batch.
func Profit(spending, rate Value) float64 {
	spend, ok := spending.Number()
	if !ok {
		return 0
	}
	r, ok := rate.Number()
	if !ok {
		return 0
	}
	if !isFinite(spend) || !isFinite(r) {
		return 0
	}
	return spend * r
}

// DeriveProfit fills the Profit field on every row.
func DeriveProfit(rows []Row) {
	for i := range rows {
		rows[i].Profit = Profit(rows[i].Spending, rows[i].ShareRate)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
