package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// ExpenseManager orchestrates expense creation, mutation, deletion and
// settlement against monthly share aggregates fetched from the
// repository. It keeps a read-through cache of members, loaded at
// construction and refreshed whenever a member is added.
//
// Mutations on a given (year, month) aggregate are expected to be
// serialized by the caller; the manager performs plain read-modify-write.
type ExpenseManager struct {
	repo      Repository
	directory MemberDirectory

	mu      sync.RWMutex
	members map[core.MemberID]core.Member
}

func NewExpenseManager(ctx context.Context, repo Repository, directory MemberDirectory) (*ExpenseManager, error) {
	m := &ExpenseManager{
		repo:      repo,
		directory: directory,
		members:   make(map[core.MemberID]core.Member),
	}
	if err := m.reloadMembers(ctx); err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return m, nil
}

func (m *ExpenseManager) reloadMembers(ctx context.Context) error {
	list, err := m.directory.List(ctx)
	if err != nil {
		return err
	}
	members := make(map[core.MemberID]core.Member, len(list))
	for _, mem := range list {
		members[mem.ID] = *mem
	}
	m.mu.Lock()
	m.members = members
	m.mu.Unlock()
	return nil
}

// RefreshMembers reloads the member cache from the directory. Call it
// after mutating a member record outside the manager.
func (m *ExpenseManager) RefreshMembers(ctx context.Context) error {
	return m.reloadMembers(ctx)
}

// Members returns a snapshot of the cached member set.
func (m *ExpenseManager) Members() map[core.MemberID]core.Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[core.MemberID]core.Member, len(m.members))
	for id, mem := range m.members {
		out[id] = mem
	}
	return out
}

// Member returns one cached member.
func (m *ExpenseManager) Member(id core.MemberID) (core.Member, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.members[id]
	return mem, ok
}

// AddMember registers a new member and recalculates the balances of
// every unsettled period, since equal splits now divide differently.
func (m *ExpenseManager) AddMember(ctx context.Context, member *core.Member) error {
	if err := member.Validate(); err != nil {
		return err
	}
	if err := m.directory.Add(ctx, member); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if err := m.reloadMembers(ctx); err != nil {
		return err
	}

	shares, err := m.repo.GetAllMonthlyShares(ctx)
	if err != nil {
		return fmt.Errorf("list monthly shares: %w", err)
	}
	members := m.Members()
	for _, share := range shares {
		if share.Settled {
			continue
		}
		if err := share.RecalculateBalances(members); err != nil {
			return fmt.Errorf("recalculate %s: %w", share.PeriodKey(), err)
		}
		if err := m.repo.SaveMonthlyShare(ctx, share); err != nil {
			return fmt.Errorf("save %s: %w", share.PeriodKey(), err)
		}
	}
	return nil
}

// CreateAndAddExpense persists an expense. Debit expenses post to their
// purchase month. Credit expenses are expanded into one row per
// installment, each a month apart starting the month after the purchase;
// rows 2..N reference row 1. The per-share writes are independent: a
// failure partway leaves the earlier installments persisted.
func (m *ExpenseManager) CreateAndAddExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if e.InstallmentNo == 0 {
		e.InstallmentNo = 1
	}
	if e.Installments == 0 {
		e.Installments = 1
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if e.PaymentType == core.PaymentDebit {
		e.Installments = 1
		e.InstallmentNo = 1
		if err := m.addToMonthlyShare(ctx, e, e.PostingDate()); err != nil {
			return nil, err
		}
		return e, nil
	}

	n := e.Installments
	per := e.Amount.Div(decimal.NewFromInt(int64(n)))
	base := e.BaseDescription()

	first := *e
	first.ID = 0
	first.Amount = per
	first.InstallmentNo = 1
	if n > 1 {
		first.Description = fmt.Sprintf("%s (1/%d)", base, n)
	}
	if err := m.addToMonthlyShare(ctx, &first, first.PostingDate()); err != nil {
		return nil, err
	}

	for i := 2; i <= n; i++ {
		child := first
		child.ID = 0
		child.Description = fmt.Sprintf("%s (%d/%d)", base, i, n)
		child.InstallmentNo = i
		child.ParentExpenseID = first.ID
		if err := m.addToMonthlyShare(ctx, &child, child.PostingDate()); err != nil {
			return nil, fmt.Errorf("installment %d/%d: %w", i, n, err)
		}
	}
	return &first, nil
}

func (m *ExpenseManager) addToMonthlyShare(ctx context.Context, e *core.Expense, postingDate time.Time) error {
	year, month := postingDate.Year(), int(postingDate.Month())
	share, err := m.repo.GetMonthlyShare(ctx, year, month)
	if errors.Is(err, core.ErrShareNotFound) {
		share = core.NewMonthlyShare(year, month)
		if err := m.repo.SaveMonthlyShare(ctx, share); err != nil {
			return fmt.Errorf("create monthly share %s: %w", share.PeriodKey(), err)
		}
		share, err = m.repo.GetMonthlyShare(ctx, year, month)
	}
	if err != nil {
		return err
	}
	if err := share.AddExpense(e, m.Members()); err != nil {
		return err
	}
	return m.repo.SaveMonthlyShare(ctx, share)
}

func (m *ExpenseManager) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	return m.repo.GetExpense(ctx, id)
}

// GetParentExpense resolves the first installment of the purchase the
// given expense belongs to; for a non-child expense it is the expense
// itself.
func (m *ExpenseManager) GetParentExpense(ctx context.Context, id int64) (*core.Expense, error) {
	e, err := m.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.ParentExpenseID != 0 {
		return m.repo.GetExpense(ctx, e.ParentExpenseID)
	}
	return e, nil
}

// GetMonthlyBalance returns the share for a period.
func (m *ExpenseManager) GetMonthlyBalance(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	return m.repo.GetMonthlyShare(ctx, year, month)
}

// UpdateExpense persists changed fields of a non-credit (or single
// installment) expense and recomputes the balances of the owning
// period; if the date moved the expense across months, both periods are
// recomputed.
func (m *ExpenseManager) UpdateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	old, err := m.repo.GetExpense(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if err := m.repo.UpdateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if err := m.recalculatePeriods(ctx, old.PostingDate(), e.PostingDate()); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateCreditExpense re-spreads a credit purchase across a possibly
// different number of installments. e must be the first installment
// carrying the new total amount, description and installment count.
// Excess children are deleted, missing ones are created a month apart
// from the first, and every surviving row is re-stamped; the balances of
// every touched period are then recomputed.
func (m *ExpenseManager) UpdateCreditExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if e.InstallmentNo != 1 {
		return nil, fmt.Errorf("expense %d is not a first installment: %w", e.ID, core.ErrInvalidInstallment)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	old, err := m.repo.GetExpense(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	children, err := m.repo.GetChildExpenses(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("child expenses of %d: %w", e.ID, err)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].InstallmentNo < children[j].InstallmentNo })

	touched := map[string]time.Time{}
	mark := func(d time.Time) { touched[d.Format("2006-01")] = d }
	mark(old.PostingDate())
	for _, c := range children {
		mark(c.PostingDate())
	}

	n := e.Installments
	per := e.Amount.Div(decimal.NewFromInt(int64(n)))
	base := e.BaseDescription()

	first := *e
	first.Amount = per
	first.InstallmentNo = 1
	if n > 1 {
		first.Description = fmt.Sprintf("%s (1/%d)", base, n)
	} else {
		first.Description = base
	}
	if err := m.repo.UpdateExpense(ctx, &first); err != nil {
		return nil, fmt.Errorf("update installment 1: %w", err)
	}
	mark(first.PostingDate())

	present := map[int]bool{1: true}
	for _, c := range children {
		if c.InstallmentNo > n {
			if err := m.repo.DeleteExpense(ctx, c.ID); err != nil {
				return nil, fmt.Errorf("delete installment %d: %w", c.InstallmentNo, err)
			}
			continue
		}
		c.Description = fmt.Sprintf("%s (%d/%d)", base, c.InstallmentNo, n)
		c.Amount = per
		c.Date = e.Date
		c.Category = e.Category
		c.PayerID = e.PayerID
		c.SplitStrategy = e.SplitStrategy
		c.Installments = n
		if err := m.repo.UpdateExpense(ctx, c); err != nil {
			return nil, fmt.Errorf("update installment %d: %w", c.InstallmentNo, err)
		}
		mark(c.PostingDate())
		present[c.InstallmentNo] = true
	}

	// Create every missing installment, not just a tail beyond the
	// highest survivor, so a plan with an individually deleted middle
	// installment is repaired too.
	for i := 2; i <= n; i++ {
		if present[i] {
			continue
		}
		child := first
		child.ID = 0
		child.Description = fmt.Sprintf("%s (%d/%d)", base, i, n)
		child.InstallmentNo = i
		child.ParentExpenseID = first.ID
		if err := m.addToMonthlyShare(ctx, &child, child.PostingDate()); err != nil {
			return nil, fmt.Errorf("create installment %d: %w", i, err)
		}
		mark(child.PostingDate())
	}

	if err := m.recalculateTouched(ctx, touched); err != nil {
		return nil, err
	}
	return &first, nil
}

// DeleteExpense removes an expense. Deleting a credit parent cascades
// to every child installment; the balances of every affected period
// that still exists are recomputed.
func (m *ExpenseManager) DeleteExpense(ctx context.Context, id int64) error {
	e, err := m.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	touched := map[string]time.Time{}
	touched[e.PostingDate().Format("2006-01")] = e.PostingDate()
	if e.PaymentType == core.PaymentCredit && e.ParentExpenseID == 0 {
		children, err := m.repo.GetChildExpenses(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("child expenses of %d: %w", e.ID, err)
		}
		for _, c := range children {
			touched[c.PostingDate().Format("2006-01")] = c.PostingDate()
		}
	}

	if err := m.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return m.recalculateTouched(ctx, touched)
}

// SettleMonthlyShare closes a period. While any member balance exceeds
// the rounding tolerance it creates a balancing expense from the
// largest debtor to the largest creditor (a synthetic debit fully
// credited to the creditor), then marks the period settled. With two
// members this yields exactly one balancing expense equal to the
// maximum positive balance. Settling an already settled period is a
// no-op.
func (m *ExpenseManager) SettleMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	share, err := m.repo.GetMonthlyShare(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if share.Settled {
		return share, nil
	}

	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	for _, edge := range settlementEdges(share.Balances) {
		split, err := core.PercentageSplit(map[core.MemberID]decimal.Decimal{
			edge.debtor:   decimal.Zero,
			edge.creditor: decimal.NewFromInt(100),
		})
		if err != nil {
			return nil, err
		}
		balancing := &core.Expense{
			Description:   fmt.Sprintf("balance %04d-%02d", year, month),
			Amount:        edge.amount,
			Date:          lastDay,
			Category:      core.CategoryBalance,
			PayerID:       edge.debtor,
			PaymentType:   core.PaymentDebit,
			Installments:  1,
			InstallmentNo: 1,
			SplitStrategy: split,
		}
		if _, err := m.CreateAndAddExpense(ctx, balancing); err != nil {
			return nil, fmt.Errorf("balancing expense: %w", err)
		}
		slog.InfoContext(ctx, "Created balancing expense",
			"period", share.PeriodKey(),
			"payer_id", edge.debtor,
			"creditor_id", edge.creditor,
			"amount", edge.amount)
	}

	if err := m.repo.SettleMonthlyShare(ctx, year, month); err != nil {
		return nil, fmt.Errorf("settle %04d-%02d: %w", year, month, err)
	}
	return m.repo.GetMonthlyShare(ctx, year, month)
}

// RecalculateMonthlyShare rebuilds a period's balance sheet from its
// expense list and persists it.
func (m *ExpenseManager) RecalculateMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	share, err := m.repo.GetMonthlyShare(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if err := share.RecalculateBalances(m.Members()); err != nil {
		return nil, err
	}
	if err := m.repo.SaveMonthlyShare(ctx, share); err != nil {
		return nil, fmt.Errorf("save %s: %w", share.PeriodKey(), err)
	}
	return share, nil
}

// UnsettleMonthlyShare reopens a settled period. Administrative only.
func (m *ExpenseManager) UnsettleMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	share, err := m.repo.GetMonthlyShare(ctx, year, month)
	if err != nil {
		return nil, err
	}
	share.Unsettle()
	if err := m.repo.SaveMonthlyShare(ctx, share); err != nil {
		return nil, fmt.Errorf("save %s: %w", share.PeriodKey(), err)
	}
	return share, nil
}

func (m *ExpenseManager) recalculatePeriods(ctx context.Context, dates ...time.Time) error {
	touched := map[string]time.Time{}
	for _, d := range dates {
		touched[d.Format("2006-01")] = d
	}
	return m.recalculateTouched(ctx, touched)
}

func (m *ExpenseManager) recalculateTouched(ctx context.Context, touched map[string]time.Time) error {
	members := m.Members()
	for _, d := range touched {
		share, err := m.repo.GetMonthlyShare(ctx, d.Year(), int(d.Month()))
		if errors.Is(err, core.ErrShareNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := share.RecalculateBalances(members); err != nil {
			return err
		}
		if err := m.repo.SaveMonthlyShare(ctx, share); err != nil {
			return fmt.Errorf("save %s: %w", share.PeriodKey(), err)
		}
	}
	return nil
}

type settlementEdge struct {
	debtor   core.MemberID
	creditor core.MemberID
	amount   decimal.Decimal
}

// settlementEdges nets the balance sheet greedily: at each step the
// largest debtor pays the largest creditor as much as possible. Ties
// break on the lowest member id so the result is deterministic.
func settlementEdges(balances map[core.MemberID]decimal.Decimal) []settlementEdge {
	remaining := make(map[core.MemberID]decimal.Decimal, len(balances))
	for id, b := range balances {
		remaining[id] = b
	}

	var edges []settlementEdge
	for {
		var creditor, debtor core.MemberID
		credit, debt := decimal.Zero, decimal.Zero
		for id, b := range remaining {
			if b.GreaterThan(credit) || (b.Equal(credit) && creditor != 0 && id < creditor) {
				creditor, credit = id, b
			}
			if b.LessThan(debt) || (b.Equal(debt) && debtor != 0 && id < debtor) {
				debtor, debt = id, b
			}
		}
		if credit.LessThanOrEqual(core.RoundingEpsilon) || debt.Neg().LessThanOrEqual(core.RoundingEpsilon) {
			return edges
		}
		amount := decimal.Min(credit, debt.Neg())
		edges = append(edges, settlementEdge{debtor: debtor, creditor: creditor, amount: amount})
		remaining[creditor] = remaining[creditor].Sub(amount)
		remaining[debtor] = remaining[debtor].Add(amount)
	}
}
