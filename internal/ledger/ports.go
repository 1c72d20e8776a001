// Package ledger implements the expense ledger and settlement engine.
package ledger

import (
	"context"
	"time"

	"gastos/internal/core"
)

// Repository persists monthly shares and their expenses. Implementations
// must treat SaveMonthlyShare as an upsert keyed by (year, month) and
// assign IDs to expenses that do not have one yet. UpdateExpense moves
// the row to the share owning its new posting period when the date
// changed, creating that share if needed. DeleteExpense cascades to
// child installments.
type Repository interface {
	SaveMonthlyShare(ctx context.Context, share *core.MonthlyShare) error
	GetMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error)
	GetAllMonthlyShares(ctx context.Context) (map[string]*core.MonthlyShare, error)
	SettleMonthlyShare(ctx context.Context, year, month int) error

	GetExpense(ctx context.Context, id int64) (*core.Expense, error)
	GetChildExpenses(ctx context.Context, parentID int64) ([]*core.Expense, error)
	GetExpensesByDate(ctx context.Context, date time.Time) ([]*core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// MemberDirectory provides member records to the ledger and the
// notification collaborator.
type MemberDirectory interface {
	Get(ctx context.Context, id core.MemberID) (*core.Member, error)
	List(ctx context.Context) ([]*core.Member, error)
	GetByPhone(ctx context.Context, phone string) (*core.Member, error)
	GetByEmail(ctx context.Context, email string) (*core.Member, error)
	Add(ctx context.Context, m *core.Member) error
	Update(ctx context.Context, m *core.Member) error
	TouchLastChat(ctx context.Context, id core.MemberID, at time.Time) error
}
