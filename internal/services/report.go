package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

// ReportData is a month's ledger flattened for export: expenses in date
// order plus the final balance per member.
type ReportData struct {
	Year        int
	Month       int
	Settled     bool
	Expenses    []*core.Expense
	Balances    map[core.MemberID]decimal.Decimal
	MemberNames map[core.MemberID]string
}

func (r ReportData) PeriodKey() string {
	return fmt.Sprintf("%04d-%02d", r.Year, r.Month)
}

// ReportExporter writes a monthly report to an external document and
// returns its location (a URL or file path).
type ReportExporter interface {
	Export(ctx context.Context, report ReportData) (string, error)
}

// ReportService builds monthly reports and hands them to the exporter.
type ReportService struct {
	manager  *ledger.ExpenseManager
	exporter ReportExporter
}

func NewReportService(manager *ledger.ExpenseManager, exporter ReportExporter) *ReportService {
	return &ReportService{manager: manager, exporter: exporter}
}

// BuildMonthlyReport assembles the report for a period.
func (s *ReportService) BuildMonthlyReport(ctx context.Context, year, month int) (ReportData, error) {
	share, err := s.manager.GetMonthlyBalance(ctx, year, month)
	if err != nil {
		return ReportData{}, err
	}

	expenses := make([]*core.Expense, len(share.Expenses))
	copy(expenses, share.Expenses)
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].ID < expenses[j].ID
		}
		return expenses[i].Date.Before(expenses[j].Date)
	})

	names := make(map[core.MemberID]string)
	for id, m := range s.manager.Members() {
		names[id] = m.Name
	}

	return ReportData{
		Year:        year,
		Month:       month,
		Settled:     share.Settled,
		Expenses:    expenses,
		Balances:    share.Balances,
		MemberNames: names,
	}, nil
}

// ExportMonthlyReport builds the report and pushes it through the
// exporter, returning the document location.
func (s *ReportService) ExportMonthlyReport(ctx context.Context, year, month int) (string, error) {
	if s.exporter == nil {
		return "", fmt.Errorf("no report exporter configured")
	}
	report, err := s.BuildMonthlyReport(ctx, year, month)
	if err != nil {
		return "", err
	}
	location, err := s.exporter.Export(ctx, report)
	if err != nil {
		return "", fmt.Errorf("export report %s: %w", report.PeriodKey(), err)
	}
	slog.InfoContext(ctx, "Exported monthly report", "period", report.PeriodKey(), "location", location)
	return location, nil
}
