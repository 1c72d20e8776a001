package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gastos/internal/core"
)

const memberColumns = "id, name, telephone, email, notification_preference, last_chat_at"

func (r *SQLiteRepository) Add(ctx context.Context, m *core.Member) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO members (name, telephone, email, notification_preference)
		VALUES (?, ?, ?, ?)`,
		m.Name, m.Telephone, m.Email, string(m.NotificationPreference))
	if err != nil {
		return fmt.Errorf("insert member %q: %w", m.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert member %q: %w", m.Name, err)
	}
	m.ID = core.MemberID(id)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id core.MemberID) (*core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", int64(id))
	return scanMember(row)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*core.Member, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetByPhone(ctx context.Context, phone string) (*core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE telephone = ?", phone)
	return scanMember(row)
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE email = ?", email)
	return scanMember(row)
}

func (r *SQLiteRepository) Update(ctx context.Context, m *core.Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members SET name = ?, telephone = ?, email = ?, notification_preference = ?
		WHERE id = ?`,
		m.Name, m.Telephone, m.Email, string(m.NotificationPreference), int64(m.ID))
	if err != nil {
		return fmt.Errorf("update member %d: %w", m.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrMemberNotFound
	}
	return nil
}

func (r *SQLiteRepository) TouchLastChat(ctx context.Context, id core.MemberID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE members SET last_chat_at = ? WHERE id = ?", at.UTC().Format(time.RFC3339), int64(id))
	if err != nil {
		return fmt.Errorf("touch last chat %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrMemberNotFound
	}
	return nil
}

func scanMember(row rowScanner) (*core.Member, error) {
	var (
		m          core.Member
		id         int64
		preference string
		lastChat   sql.NullString
	)
	err := row.Scan(&id, &m.Name, &m.Telephone, &m.Email, &preference, &lastChat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.ID = core.MemberID(id)
	m.NotificationPreference = core.NotificationPreference(preference)
	if lastChat.Valid && lastChat.String != "" {
		if m.LastChatAt, err = time.Parse(time.RFC3339, lastChat.String); err != nil {
			return nil, fmt.Errorf("member %d last chat %q: %w", id, lastChat.String, err)
		}
	}
	return &m, nil
}
