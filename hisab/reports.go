package hisab

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ReportInput is money the owner drew.
type ReportInput struct {
	Date   string
	Amount decimal.Decimal
	Note   string
}

// ReportSummary compares what workers earned in total with what the owner
// has drawn against it.
type ReportSummary struct {
	TotalEarned decimal.Decimal
	TotalDrawn  decimal.Decimal
	Remaining   decimal.Decimal
	Reports     int
}

// Reports returns company reports, newest first.
func (b *Book) Reports(ctx context.Context) []Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadReports(ctx)
}

func (b *Book) loadReports(ctx context.Context) []Report {
	reports := GetArray[Report](ctx, b.storage, KeyCompanyReports)
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].ID > reports[j].ID
	})
	return reports
}

// AddReport records a drawing. Worker accounts are not touched.
func (b *Book) AddReport(ctx context.Context, in ReportInput) (Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !in.Amount.IsPositive() {
		return Report{}, b.reject(invalid("amount", "amount must be greater than zero"))
	}

	now := b.now()
	reports := b.loadReports(ctx)
	r := Report{
		ID:        now.UnixMilli(),
		Date:      in.Date,
		Amount:    in.Amount,
		Note:      in.Note,
		Timestamp: now.UnixMilli(),
		Type:      ReportPayment,
	}
	if r.Date == "" {
		r.Date = now.Format(dateLayout)
	}
	if len(reports) > 0 && reports[0].ID >= r.ID {
		r.ID = reports[0].ID + 1
	}

	Set(ctx, b.storage, KeyCompanyReports, append([]Report{r}, reports...))
	b.notify.Success("report saved")
	return r, nil
}

// DeleteReport removes report id.
func (b *Book) DeleteReport(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	reports := b.loadReports(ctx)
	kept := make([]Report, 0, len(reports))
	for _, r := range reports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(reports) {
		return b.reject(fmt.Errorf("%w: %d", ErrReportNotFound, id))
	}

	Set(ctx, b.storage, KeyCompanyReports, kept)
	b.notify.Success("report deleted")
	return nil
}

// Summary totals every account's bill against every report.
func (b *Book) Summary(ctx context.Context) ReportSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	var s ReportSummary
	for _, acct := range b.loadAccounts(ctx) {
		s.TotalEarned = s.TotalEarned.Add(acct.Bill)
	}
	reports := b.loadReports(ctx)
	for _, r := range reports {
		s.TotalDrawn = s.TotalDrawn.Add(r.Amount)
	}
	s.Remaining = s.TotalEarned.Sub(s.TotalDrawn)
	s.Reports = len(reports)
	return s
}
