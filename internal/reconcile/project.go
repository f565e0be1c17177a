package reconcile

import (
	"strconv"

	"github.com/smallbiznis/referral/internal/config"
)

// Projector renders reconciled rows into the fixed external column order.
// Legacy sentinel strings appear here and nowhere earlier.
type Projector struct {
	cfg config.ReportConfig
}

func NewProjector(cfg config.ReportConfig) *Projector {
	return &Projector{cfg: cfg}
}

// Header returns the published column names.
func (p *Projector) Header() []string {
	return append([]string{}, p.cfg.Columns...)
}

// Project renders every row. Text columns default to the generic
// not-found sentinel; EDP status defaults to empty because a missing EDP
// type is ordinary business metadata, not an error.
func (p *Projector) Project(rows []Row) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, p.project(row))
	}
	return out
}

func (p *Projector) project(row Row) []any {
	sentinels := p.cfg.Sentinels
	cells := make([]any, len(p.cfg.Columns))
	for i, column := range p.cfg.Columns {
		switch column {
		case config.ColumnMonth:
			cells[i] = strconv.Itoa(row.Period)
		case config.ColumnAccountName:
			cells[i] = row.AccountName.Render(sentinels, sentinels.NullValue)
		case "Currency":
			cells[i] = row.Currency.Render(sentinels, sentinels.NullValue)
		case "Spending $$":
			cells[i] = row.Spending.Render(sentinels, sentinels.NullValue)
		case "Referral share rate":
			cells[i] = row.ShareRate.Render(sentinels, sentinels.NullValue)
		case "Profit $$":
			cells[i] = row.Profit
		case "Referral Company":
			cells[i] = row.ReferralCompany.Render(sentinels, sentinels.NullValue)
		case config.ColumnStatus:
			cells[i] = string(row.PaymentStatus)
		case "Sales":
			cells[i] = row.SalesRep.Render(sentinels, sentinels.NullValue)
		case "EDP status":
			cells[i] = row.EDPType.Render(sentinels, "")
		default:
			cells[i] = ""
		}
	}
	return cells
}
