// Package storage persists the ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveMonthlyShare upserts the share row and every expense attached to
// it. Expenses without an ID are inserted and get one assigned in place.
func (r *SQLiteRepository) SaveMonthlyShare(ctx context.Context, share *core.MonthlyShare) error {
	balances, err := encodeBalances(share.Balances)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_shares (year, month, balances, settled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (year, month) DO UPDATE SET balances = excluded.balances, settled = excluded.settled`,
		share.Year, share.Month, balances, share.Settled)
	if err != nil {
		return fmt.Errorf("upsert monthly share %s: %w", share.PeriodKey(), err)
	}
	if share.ID == 0 {
		if id, err := res.LastInsertId(); err == nil && id != 0 {
			share.ID = id
		}
		if share.ID == 0 {
			if err := r.db.QueryRowContext(ctx,
				"SELECT id FROM monthly_shares WHERE year = ? AND month = ?",
				share.Year, share.Month).Scan(&share.ID); err != nil {
				return fmt.Errorf("resolve share id %s: %w", share.PeriodKey(), err)
			}
		}
	}

	for _, e := range share.Expenses {
		if e.ID == 0 {
			if err := r.insertExpense(ctx, share.ID, e); err != nil {
				return err
			}
			slog.InfoContext(ctx, "Expense saved",
				"id", e.ID, "description", e.Description, "amount", e.Amount, "period", share.PeriodKey())
		} else {
			if err := r.updateExpense(ctx, share.ID, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *SQLiteRepository) GetMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error) {
	share := core.NewMonthlyShare(year, month)
	var balances string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, balances, settled FROM monthly_shares WHERE year = ? AND month = ?",
		year, month).Scan(&share.ID, &balances, &share.Settled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get monthly share %04d-%02d: %w", year, month, err)
	}
	if share.Balances, err = decodeBalances(balances); err != nil {
		return nil, err
	}
	if share.Expenses, err = r.expensesForShare(ctx, share.ID); err != nil {
		return nil, err
	}
	return share, nil
}

func (r *SQLiteRepository) GetAllMonthlyShares(ctx context.Context) (map[string]*core.MonthlyShare, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT year, month FROM monthly_shares ORDER BY year, month")
	if err != nil {
		return nil, fmt.Errorf("list monthly shares: %w", err)
	}
	defer rows.Close()

	type period struct{ year, month int }
	var periods []period
	for rows.Next() {
		var p period
		if err := rows.Scan(&p.year, &p.month); err != nil {
			return nil, fmt.Errorf("scan monthly share: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list monthly shares: %w", err)
	}

	out := make(map[string]*core.MonthlyShare, len(periods))
	for _, p := range periods {
		share, err := r.GetMonthlyShare(ctx, p.year, p.month)
		if err != nil {
			return nil, err
		}
		out[share.PeriodKey()] = share
	}
	return out, nil
}

func (r *SQLiteRepository) SettleMonthlyShare(ctx context.Context, year, month int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE monthly_shares SET settled = 1 WHERE year = ? AND month = ?", year, month)
	if err != nil {
		return fmt.Errorf("settle %04d-%02d: %w", year, month, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrShareNotFound
	}
	return nil
}

const expenseColumns = `id, description, amount, date, category, payer_id, payment_type,
	installments, installment_no, split_kind, split_percentages, parent_expense_id`

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetChildExpenses(ctx context.Context, parentID int64) ([]*core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE parent_expense_id = ? ORDER BY installment_no", parentID)
	if err != nil {
		return nil, fmt.Errorf("child expenses of %d: %w", parentID, err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (r *SQLiteRepository) GetExpensesByDate(ctx context.Context, date time.Time) ([]*core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE date = ? ORDER BY id", date.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("expenses on %s: %w", date.Format(dateLayout), err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// UpdateExpense rewrites the row and, through the posting date, moves it
// to the share owning its new period.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	posting := e.PostingDate()
	shareID, err := r.ensureShare(ctx, posting.Year(), int(posting.Month()))
	if err != nil {
		return err
	}
	return r.updateExpense(ctx, shareID, e)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (r *SQLiteRepository) insertExpense(ctx context.Context, shareID int64, e *core.Expense) error {
	percentages, err := encodePercentages(e.SplitStrategy)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (monthly_share_id, description, amount, date, category, payer_id,
			payment_type, installments, installment_no, split_kind, split_percentages, parent_expense_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		shareID, e.Description, e.Amount.String(), e.Date.Format(dateLayout), e.Category,
		int64(e.PayerID), string(e.PaymentType), e.Installments, e.InstallmentNo,
		string(e.SplitStrategy.Kind), percentages, nullableID(e.ParentExpenseID))
	if err != nil {
		return fmt.Errorf("insert expense %q: %w", e.Description, err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert expense %q: %w", e.Description, err)
	}
	return nil
}

func (r *SQLiteRepository) updateExpense(ctx context.Context, shareID int64, e *core.Expense) error {
	percentages, err := encodePercentages(e.SplitStrategy)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET monthly_share_id = ?, description = ?, amount = ?, date = ?, category = ?,
			payer_id = ?, payment_type = ?, installments = ?, installment_no = ?,
			split_kind = ?, split_percentages = ?, parent_expense_id = ?
		WHERE id = ?`,
		shareID, e.Description, e.Amount.String(), e.Date.Format(dateLayout), e.Category,
		int64(e.PayerID), string(e.PaymentType), e.Installments, e.InstallmentNo,
		string(e.SplitStrategy.Kind), percentages, nullableID(e.ParentExpenseID), e.ID)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (r *SQLiteRepository) ensureShare(ctx context.Context, year, month int) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO monthly_shares (year, month) VALUES (?, ?) ON CONFLICT (year, month) DO NOTHING",
		year, month); err != nil {
		return 0, fmt.Errorf("ensure monthly share %04d-%02d: %w", year, month, err)
	}
	var id int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT id FROM monthly_shares WHERE year = ? AND month = ?", year, month).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve share id %04d-%02d: %w", year, month, err)
	}
	return id, nil
}

func (r *SQLiteRepository) expensesForShare(ctx context.Context, shareID int64) ([]*core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE monthly_share_id = ? ORDER BY id", shareID)
	if err != nil {
		return nil, fmt.Errorf("expenses of share %d: %w", shareID, err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	var (
		e           core.Expense
		amount      string
		date        string
		payerID     int64
		paymentType string
		splitKind   string
		percentages string
		parentID    sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Description, &amount, &date, &e.Category, &payerID, &paymentType,
		&e.Installments, &e.InstallmentNo, &splitKind, &percentages, &parentID)
	if err != nil {
		return nil, err
	}

	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("expense %d amount %q: %w", e.ID, amount, err)
	}
	if e.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("expense %d date %q: %w", e.ID, date, err)
	}
	e.PayerID = core.MemberID(payerID)
	e.PaymentType = core.PaymentType(paymentType)
	if parentID.Valid {
		e.ParentExpenseID = parentID.Int64
	}
	if e.SplitStrategy, err = decodeSplit(splitKind, percentages); err != nil {
		return nil, fmt.Errorf("expense %d split: %w", e.ID, err)
	}
	return &e, nil
}

func collectExpenses(rows *sql.Rows) ([]*core.Expense, error) {
	var out []*core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	return out, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func encodeBalances(balances map[core.MemberID]decimal.Decimal) (string, error) {
	m := make(map[string]string, len(balances))
	for id, b := range balances {
		m[strconv.FormatInt(int64(id), 10)] = b.String()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode balances: %w", err)
	}
	return string(data), nil
}

func decodeBalances(data string) (map[core.MemberID]decimal.Decimal, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("decode balances: %w", err)
	}
	out := make(map[core.MemberID]decimal.Decimal, len(m))
	for key, value := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode balances: member id %q: %w", key, err)
		}
		b, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("decode balances: amount %q: %w", value, err)
		}
		out[core.MemberID(id)] = b
	}
	return out, nil
}

func encodePercentages(split core.SplitStrategy) (string, error) {
	m := make(map[string]string, len(split.Percentages))
	for id, p := range split.Percentages {
		m[strconv.FormatInt(int64(id), 10)] = p.String()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode percentages: %w", err)
	}
	return string(data), nil
}

func decodeSplit(kind, data string) (core.SplitStrategy, error) {
	if core.SplitKind(kind) == core.SplitEqual {
		return core.EqualSplit(), nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return core.SplitStrategy{}, err
	}
	percentages := make(map[core.MemberID]decimal.Decimal, len(m))
	for key, value := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return core.SplitStrategy{}, err
		}
		p, err := decimal.NewFromString(value)
		if err != nil {
			return core.SplitStrategy{}, err
		}
		percentages[core.MemberID(id)] = p
	}
	return core.SplitStrategy{Kind: core.SplitPercentage, Percentages: percentages}, nil
}
