package notify

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

type fakeDirectory struct {
	members []*core.Member
}

func (f *fakeDirectory) Get(_ context.Context, id core.MemberID) (*core.Member, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, core.ErrMemberNotFound
}

func (f *fakeDirectory) List(_ context.Context) ([]*core.Member, error) { return f.members, nil }

func (f *fakeDirectory) GetByPhone(_ context.Context, _ string) (*core.Member, error) {
	return nil, core.ErrMemberNotFound
}

func (f *fakeDirectory) GetByEmail(_ context.Context, _ string) (*core.Member, error) {
	return nil, core.ErrMemberNotFound
}

func (f *fakeDirectory) Add(_ context.Context, _ *core.Member) error    { return nil }
func (f *fakeDirectory) Update(_ context.Context, _ *core.Member) error { return nil }
func (f *fakeDirectory) TouchLastChat(_ context.Context, _ core.MemberID, _ time.Time) error {
	return nil
}

type recordingEmail struct {
	to []string
}

func (r *recordingEmail) Send(_ context.Context, to, _, _ string) error {
	r.to = append(r.to, to)
	return nil
}

type recordingChat struct {
	texts     []string
	templates []string
}

func (r *recordingChat) SendText(_ context.Context, phone, _ string) error {
	r.texts = append(r.texts, phone)
	return nil
}

func (r *recordingChat) SendTemplate(_ context.Context, phone, _ string, _ []string) error {
	r.templates = append(r.templates, phone)
	return nil
}

func testExpense(payer core.MemberID) *core.Expense {
	return &core.Expense{
		Description: "supermercado",
		Amount:      decimal.NewFromInt(100),
		Category:    "casa",
		PayerID:     payer,
	}
}

func TestNotifySkipsPayerAndRoutesByPreference(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	directory := &fakeDirectory{members: []*core.Member{
		{ID: 1, Name: "Ana", Telephone: "+5491111111111", Email: "ana@example.com", NotificationPreference: core.NotifyWhatsapp, LastChatAt: now.Add(-time.Hour)},
		{ID: 2, Name: "Bruno", Telephone: "+5492222222222", Email: "bruno@example.com", NotificationPreference: core.NotifyEmail},
		{ID: 3, Name: "Carla", Telephone: "+5493333333333", Email: "carla@example.com", NotificationPreference: core.NotifyNone},
	}}
	email := &recordingEmail{}
	chat := &recordingChat{}
	d := NewDispatcher(directory, email, chat)
	d.now = func() time.Time { return now }

	if err := d.NotifyExpenseCreated(context.Background(), testExpense(1)); err != nil {
		t.Fatalf("NotifyExpenseCreated: %v", err)
	}

	if len(email.to) != 1 || email.to[0] != "bruno@example.com" {
		t.Errorf("emails = %v", email.to)
	}
	if len(chat.texts) != 0 || len(chat.templates) != 0 {
		t.Errorf("payer was notified over chat: %v %v", chat.texts, chat.templates)
	}
}

func TestNotifyUsesTemplateOutsideSessionWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	directory := &fakeDirectory{members: []*core.Member{
		{ID: 1, Name: "Ana", Telephone: "+5491111111111", NotificationPreference: core.NotifyWhatsapp, LastChatAt: now.Add(-time.Hour)},
		{ID: 2, Name: "Bruno", Telephone: "+5492222222222", NotificationPreference: core.NotifyWhatsapp, LastChatAt: now.Add(-48 * time.Hour)},
		{ID: 3, Name: "Carla", Telephone: "+5493333333333", NotificationPreference: core.NotifyWhatsapp},
	}}
	chat := &recordingChat{}
	d := NewDispatcher(directory, nil, chat)
	d.now = func() time.Time { return now }

	if err := d.NotifyExpenseCreated(context.Background(), testExpense(4)); err != nil {
		t.Fatalf("NotifyExpenseCreated: %v", err)
	}

	if len(chat.texts) != 1 || chat.texts[0] != "+5491111111111" {
		t.Errorf("free-form texts = %v, want only Ana", chat.texts)
	}
	// Bruno chatted 48h ago and Carla never chatted: both need templates.
	if len(chat.templates) != 2 {
		t.Errorf("templates = %v, want Bruno and Carla", chat.templates)
	}
}
