package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MonthlyShare aggregates all expenses posted to one calendar month
// together with the derived per-member balance sheet. It is the unit of
// persistence: there is exactly one per (year, month).
type MonthlyShare struct {
	ID       int64
	Year     int
	Month    int // 1-12
	Expenses []*Expense
	Balances map[MemberID]decimal.Decimal
	Settled  bool
}

func NewMonthlyShare(year, month int) *MonthlyShare {
	return &MonthlyShare{
		Year:     year,
		Month:    month,
		Balances: make(map[MemberID]decimal.Decimal),
	}
}

// PeriodKey returns the period in YYYY-MM form.
func (s *MonthlyShare) PeriodKey() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}

// AddExpense applies the credit-debit ledger rule and appends the
// expense: the payer is credited the full amount, then every member
// (payer included) is debited their computed share. Fails with
// ErrPeriodSettled once the period has been settled.
func (s *MonthlyShare) AddExpense(e *Expense, members map[MemberID]Member) error {
	if s.Settled {
		return fmt.Errorf("period %s: %w", s.PeriodKey(), ErrPeriodSettled)
	}
	if err := s.apply(e, members); err != nil {
		return err
	}
	s.Expenses = append(s.Expenses, e)
	return nil
}

// RecalculateBalances resets the balance sheet and replays every
// expense in list order. Idempotent; a no-op on settled periods.
func (s *MonthlyShare) RecalculateBalances(members map[MemberID]Member) error {
	if s.Settled {
		return nil
	}
	s.Balances = make(map[MemberID]decimal.Decimal)
	for _, e := range s.Expenses {
		if err := s.apply(e, members); err != nil {
			return err
		}
	}
	return nil
}

func (s *MonthlyShare) apply(e *Expense, members map[MemberID]Member) error {
	list := make([]Member, 0, len(members))
	for _, m := range members {
		list = append(list, m)
	}
	shares, err := e.SplitStrategy.CalculateShares(e.Amount, list)
	if err != nil {
		return err
	}
	if s.Balances == nil {
		s.Balances = make(map[MemberID]decimal.Decimal)
	}
	s.Balances[e.PayerID] = s.Balances[e.PayerID].Add(e.Amount)
	for id, share := range shares {
		s.Balances[id] = s.Balances[id].Sub(share)
	}
	return nil
}

// Settle closes the period to further expense additions.
func (s *MonthlyShare) Settle() { s.Settled = true }

// Unsettle reopens a settled period. Administrative correction only;
// not part of the normal lifecycle.
func (s *MonthlyShare) Unsettle() { s.Settled = false }
