package services

import (
	"context"
	"fmt"
	"log/slog"

	"gastos/internal/core"
	"gastos/internal/ledger"
	"gastos/internal/metrics"
)

// EventPublisher pushes expense lifecycle events to the message broker.
// Publishing is best effort: the ledger write is the source of truth.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, expenseID int64, payerID core.MemberID) error
}

// ExpenseService orchestrates expense operations across the ledger,
// the category registry and AMQP.
type ExpenseService struct {
	manager    *ledger.ExpenseManager
	categories *core.CategoryRegistry
	publisher  EventPublisher
}

func NewExpenseService(manager *ledger.ExpenseManager, categories *core.CategoryRegistry, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		manager:    manager,
		categories: categories,
		publisher:  publisher,
	}
}

// Categories exposes the registry so transports can list and resolve
// category names.
func (s *ExpenseService) Categories() *core.CategoryRegistry {
	return s.categories
}

// CreateExpense validates the category, writes the expense to the ledger
// and publishes a created event. A publish failure is logged but does
// not fail the request.
func (s *ExpenseService) CreateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if !s.categories.IsValid(e.Category) {
		return nil, fmt.Errorf("category %q: %w", e.Category, core.ErrInvalidCategory)
	}

	created, err := s.manager.CreateAndAddExpense(ctx, e)
	if err != nil {
		return nil, err
	}
	metrics.ExpensesCreated.WithLabelValues(string(created.PaymentType)).Inc()

	if err := s.publishCreated(ctx, created.ID, created.PayerID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense created event",
			"expense_id", created.ID, "error", err)
	}
	return created, nil
}

// UpdateExpense rewrites a single expense row and recomputes the
// balances of the periods it touched.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if !s.categories.IsValid(e.Category) {
		return nil, fmt.Errorf("category %q: %w", e.Category, core.ErrInvalidCategory)
	}
	return s.manager.UpdateExpense(ctx, e)
}

// UpdateCreditExpense re-spreads a credit purchase. e must be the first
// installment carrying the new totals.
func (s *ExpenseService) UpdateCreditExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if !s.categories.IsValid(e.Category) {
		return nil, fmt.Errorf("category %q: %w", e.Category, core.ErrInvalidCategory)
	}
	return s.manager.UpdateCreditExpense(ctx, e)
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.manager.DeleteExpense(ctx, id); err != nil {
		return err
	}
	metrics.ExpensesDeleted.Inc()
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	return s.manager.GetExpense(ctx, id)
}

func (s *ExpenseService) GetParentExpense(ctx context.Context, id int64) (*core.Expense, error) {
	return s.manager.GetParentExpense(ctx, id)
}

func (s *ExpenseService) GetMonthlyBalance(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	return s.manager.GetMonthlyBalance(ctx, year, month)
}

// SettleMonthlyShare closes the period, creating balancing expenses
// first so every member ends at zero.
func (s *ExpenseService) SettleMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	share, err := s.manager.SettleMonthlyShare(ctx, year, month)
	if err != nil {
		return nil, err
	}
	metrics.Settlements.Inc()
	slog.InfoContext(ctx, "Settled monthly share", "period", share.PeriodKey())
	return share, nil
}

func (s *ExpenseService) RecalculateMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	return s.manager.RecalculateMonthlyShare(ctx, year, month)
}

func (s *ExpenseService) UnsettleMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	return s.manager.UnsettleMonthlyShare(ctx, year, month)
}

func (s *ExpenseService) publishCreated(ctx context.Context, expenseID int64, payerID core.MemberID) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping expense created event")
		return nil
	}
	return s.publisher.PublishExpenseCreated(ctx, expenseID, payerID)
}
