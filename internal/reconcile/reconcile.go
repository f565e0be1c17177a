package reconcile

import (
	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	warehousedomain "github.com/smallbiznis/referral/internal/warehouse/domain"
)

// Match classifies the join outcome for one account.
type Match string

const (
	MatchBoth        Match = "both"
	MatchUsageOnly   Match = "usage_only"
	MatchProfileOnly Match = "profile_only"
)

// Row is one reconciled account for one period. Every field is a defined
// Value; missing sides carry error tags, never nulls.
type Row struct {
	BillingAccountID string
	Period           int
	Match            Match

	AccountName     Value
	ReferralCompany Value
	SalesRep        Value
	EDPType         Value
	ShareRate       Value

	Spending Value
	Currency Value

	PaymentStatus invoicingdomain.Status
	Profit        float64
}

// Merge performs the full outer join of profile and usage snapshots on
// billing account id. Usage is one record per (account, currency), so a
// matched account emits one row per currency, each carrying the profile
// fields; a missing side is filled with error tags. Profiles come first
// in input order, then usage-only accounts. Empty inputs produce an
// empty result.
func Merge(profiles []warehousedomain.ProfileRecord, usage []warehousedomain.UsageRecord) []Row {
	usageByID := make(map[string][]warehousedomain.UsageRecord, len(usage))
	for _, u := range usage {
		usageByID[u.BillingAccountID] = append(usageByID[u.BillingAccountID], u)
	}

	rows := make([]Row, 0, len(profiles)+len(usage))
	seen := make(map[string]struct{}, len(profiles))

	for _, profile := range profiles {
		if _, dup := seen[profile.BillingAccountID]; dup {
			continue
		}
		seen[profile.BillingAccountID] = struct{}{}

		base := Row{
			BillingAccountID: profile.BillingAccountID,
			Period:           profile.Period,
			AccountName:      Text(profile.BillingAccountName),
			ReferralCompany:  Text(profile.ReferralCompany),
			SalesRep:         Text(profile.SalesRep),
			EDPType:          Text(profile.EDPType),
			ShareRate:        rateValue(profile.ReferralShareRate),
		}

		matched := usageByID[profile.BillingAccountID]
		if len(matched) == 0 {
			base.Match = MatchProfileOnly
			base.Spending = Tagged(TagMissingUsage)
			base.Currency = Tagged(TagMissingUsage)
			rows = append(rows, base)
			continue
		}
		for _, u := range matched {
			row := base
			row.Match = MatchBoth
			row.Spending = Number(u.Spending())
			row.Currency = Text(u.Currency)
			if row.Period == 0 {
				row.Period = u.Period
			}
			rows = append(rows, row)
		}
	}

	for _, u := range usage {
		if _, dup := seen[u.BillingAccountID]; dup {
			continue
		}

		rows = append(rows, Row{
			BillingAccountID: u.BillingAccountID,
			Period:           u.Period,
			Match:            MatchUsageOnly,
			AccountName:      Tagged(TagMissingProfile),
			ReferralCompany:  Tagged(TagMissingProfile),
			SalesRep:         Tagged(TagMissingProfile),
			EDPType:          Tagged(TagMissingProfile),
			ShareRate:        Tagged(TagMissingProfile),
			Spending:         Number(u.Spending()),
			Currency:         Text(u.Currency),
		})
	}

	return rows
}

// AttachStatus fills payment status for every row; accounts absent from
// the mapping get the invoice-not-found sentinel. Pure and total.
func AttachStatus(rows []Row, statuses invoicingdomain.StatusMap) {
	for i := range rows {
		if status, ok := statuses[rows[i].BillingAccountID]; ok {
			rows[i].PaymentStatus = status
		} else {
			rows[i].PaymentStatus = invoicingdomain.StatusInvoiceNotFound
		}
	}
}

func rateValue(rate *float64) Value {
	if rate == nil {
		return Value{}
	}
	return Number(*rate)
}
