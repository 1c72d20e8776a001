package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/services"
)

type fakeLedger struct {
	registry *core.CategoryRegistry
	created  []*core.Expense
	shares   map[string]*core.MonthlyShare
	settled  []string
	nextID   int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		registry: core.NewCategoryRegistry(),
		shares:   make(map[string]*core.MonthlyShare),
	}
}

func (f *fakeLedger) CreateExpense(_ context.Context, e *core.Expense) (*core.Expense, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	f.nextID++
	e.ID = f.nextID
	f.created = append(f.created, e)
	return e, nil
}

func (f *fakeLedger) GetMonthlyBalance(_ context.Context, year, month int) (*core.MonthlyShare, error) {
	share, ok := f.shares[fmt.Sprintf("%04d-%02d", year, month)]
	if !ok {
		return nil, core.ErrShareNotFound
	}
	return share, nil
}

func (f *fakeLedger) SettleMonthlyShare(_ context.Context, year, month int) (*core.MonthlyShare, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	share, ok := f.shares[key]
	if !ok {
		return nil, core.ErrShareNotFound
	}
	share.Settled = true
	f.settled = append(f.settled, key)
	return share, nil
}

func (f *fakeLedger) Categories() *core.CategoryRegistry { return f.registry }

type fakeMembers struct {
	members []*core.Member
	touched []core.MemberID
}

func (f *fakeMembers) GetMemberByPhone(_ context.Context, phone string) (*core.Member, error) {
	for _, m := range f.members {
		if m.Telephone == phone {
			return m, nil
		}
	}
	return nil, core.ErrMemberNotFound
}

func (f *fakeMembers) ListMembers(_ context.Context) ([]*core.Member, error) {
	return f.members, nil
}

func (f *fakeMembers) TouchLastChat(_ context.Context, id core.MemberID, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeReports struct{}

func (fakeReports) BuildMonthlyReport(_ context.Context, year, month int) (services.ReportData, error) {
	return services.ReportData{Year: year, Month: month}, nil
}

const (
	anaPhone   = "+5491111111111"
	brunoPhone = "+5492222222222"
)

func newTestMachine() (*Machine, *fakeLedger, *fakeMembers) {
	ledger := newFakeLedger()
	members := &fakeMembers{members: []*core.Member{
		{ID: 1, Name: "Ana", Telephone: anaPhone, Email: "ana@example.com"},
		{ID: 2, Name: "Bruno", Telephone: brunoPhone, Email: "bruno@example.com"},
	}}
	m := NewMachine(NewMemoryStore(16, time.Hour), ledger, members, fakeReports{})
	return m, ledger, members
}

func send(t *testing.T, m *Machine, phone, text string) []Payload {
	t.Helper()
	out, err := m.Handle(context.Background(), Inbound{FromPhone: phone, MessageID: "msg", Text: text})
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return out
}

func lastText(t *testing.T, payloads []Payload) string {
	t.Helper()
	for i := len(payloads) - 1; i >= 0; i-- {
		if msg, ok := payloads[i].(TextMessage); ok {
			return msg.Body
		}
	}
	t.Fatalf("no TextMessage in %v", payloads)
	return ""
}

func sessionState(t *testing.T, m *Machine, phone string) State {
	t.Helper()
	s, err := m.store.Get(context.Background(), phone)
	if err != nil {
		t.Fatalf("session for %s: %v", phone, err)
	}
	return s.State
}

func TestHandleUnknownSender(t *testing.T) {
	m, _, _ := newTestMachine()

	out := send(t, m, "+5490000000000", "hola")
	if !strings.Contains(lastText(t, out), "No te conozco") {
		t.Errorf("unexpected reply: %q", lastText(t, out))
	}
}

func TestExpenseFlow(t *testing.T) {
	m, ledger, _ := newTestMachine()

	send(t, m, anaPhone, "hola")
	send(t, m, anaPhone, "cargar_gasto")
	send(t, m, anaPhone, "1234,50")
	send(t, m, anaPhone, "supermercado")
	send(t, m, anaPhone, "payer_1")
	send(t, m, anaPhone, "17-03-2024")
	send(t, m, anaPhone, "cat_2")
	send(t, m, anaPhone, "pago_debito")
	send(t, m, anaPhone, "split_igual")
	out := send(t, m, anaPhone, "si")

	if len(ledger.created) != 1 {
		t.Fatalf("created expenses = %d, want 1", len(ledger.created))
	}
	e := ledger.created[0]
	if e.Description != "supermercado" {
		t.Errorf("description = %q", e.Description)
	}
	if !e.Amount.Equal(decimal.RequireFromString("1234.5")) {
		t.Errorf("amount = %s, want 1234.5", e.Amount)
	}
	if e.PayerID != 1 || e.Category != "casa" || e.PaymentType != core.PaymentDebit {
		t.Errorf("expense = payer %d, category %q, type %q", e.PayerID, e.Category, e.PaymentType)
	}
	if e.Date.Day() != 17 || e.Date.Month() != time.March || e.Date.Year() != 2024 {
		t.Errorf("date = %v", e.Date)
	}
	if e.SplitStrategy.Kind != core.SplitEqual {
		t.Errorf("split kind = %q", e.SplitStrategy.Kind)
	}
	if !strings.Contains(lastText(t, out), "Gasto cargado") {
		t.Errorf("final reply = %q", lastText(t, out))
	}
	if got := sessionState(t, m, anaPhone); got != StateInitial {
		t.Errorf("state after flow = %q, want initial", got)
	}
}

func TestCreditInstallmentsPrompt(t *testing.T) {
	m, ledger, _ := newTestMachine()

	send(t, m, anaPhone, "cargar_gasto")
	send(t, m, anaPhone, "300")
	send(t, m, anaPhone, "tele")
	send(t, m, anaPhone, "payer_2")
	send(t, m, anaPhone, "17-02-2024")
	send(t, m, anaPhone, "compras")
	send(t, m, anaPhone, "pago_credito")
	if got := sessionState(t, m, anaPhone); got != StateAwaitingInstallments {
		t.Fatalf("state = %q, want awaiting installments", got)
	}

	out := send(t, m, anaPhone, "13")
	if !strings.Contains(lastText(t, out), "inválida") {
		t.Errorf("13 installments accepted: %q", lastText(t, out))
	}

	send(t, m, anaPhone, "3")
	send(t, m, anaPhone, "split_igual")
	send(t, m, anaPhone, "si")

	if len(ledger.created) != 1 {
		t.Fatalf("created = %d, want 1", len(ledger.created))
	}
	e := ledger.created[0]
	if e.PaymentType != core.PaymentCredit || e.Installments != 3 {
		t.Errorf("credit expense = type %q installments %d", e.PaymentType, e.Installments)
	}
}

func TestInvalidAmountReprompts(t *testing.T) {
	m, _, _ := newTestMachine()

	send(t, m, anaPhone, "cargar_gasto")
	out := send(t, m, anaPhone, "doscientos")
	if !strings.Contains(lastText(t, out), "Monto inválido") {
		t.Errorf("reply = %q", lastText(t, out))
	}
	if got := sessionState(t, m, anaPhone); got != StateAwaitingAmount {
		t.Errorf("state = %q, want awaiting amount", got)
	}
}

func TestLoanFlow(t *testing.T) {
	m, ledger, _ := newTestMachine()

	send(t, m, brunoPhone, "prestar_plata")
	send(t, m, brunoPhone, "500")
	send(t, m, brunoPhone, "entrada del recital")
	send(t, m, brunoPhone, "payer_2")
	out := send(t, m, brunoPhone, "hoy")
	if got := sessionState(t, m, brunoPhone); got != StateAwaitingConfirmation {
		t.Fatalf("state = %q, want awaiting confirmation", got)
	}
	if !strings.Contains(lastText(t, out), core.CategoryLoan) {
		t.Errorf("summary should mention the loan category: %q", lastText(t, out))
	}

	send(t, m, brunoPhone, "si")
	if len(ledger.created) != 1 {
		t.Fatalf("created = %d, want 1", len(ledger.created))
	}
	e := ledger.created[0]
	if e.Category != core.CategoryLoan || e.PaymentType != core.PaymentDebit {
		t.Errorf("loan = category %q type %q", e.Category, e.PaymentType)
	}
	if e.SplitStrategy.Kind != core.SplitPercentage {
		t.Fatalf("split kind = %q, want percentage", e.SplitStrategy.Kind)
	}
	if !e.SplitStrategy.Percentages[2].IsZero() {
		t.Errorf("lender percentage = %s, want 0", e.SplitStrategy.Percentages[2])
	}
	if !e.SplitStrategy.Percentages[1].Equal(decimal.NewFromInt(100)) {
		t.Errorf("borrower percentage = %s, want 100", e.SplitStrategy.Percentages[1])
	}
}

func TestConfirmationDeclineResets(t *testing.T) {
	m, ledger, _ := newTestMachine()

	send(t, m, anaPhone, "cargar_gasto")
	send(t, m, anaPhone, "100")
	send(t, m, anaPhone, "nafta")
	send(t, m, anaPhone, "payer_1")
	send(t, m, anaPhone, "hoy")
	send(t, m, anaPhone, "auto")
	send(t, m, anaPhone, "pago_debito")
	send(t, m, anaPhone, "split_igual")
	send(t, m, anaPhone, "no")

	if len(ledger.created) != 0 {
		t.Errorf("created = %d, want 0", len(ledger.created))
	}
	if got := sessionState(t, m, anaPhone); got != StateInitial {
		t.Errorf("state = %q, want initial", got)
	}
}

func TestBalanceAndSettleFlow(t *testing.T) {
	m, ledger, _ := newTestMachine()

	share := core.NewMonthlyShare(2024, 3)
	share.Balances[1] = decimal.NewFromInt(50)
	share.Balances[2] = decimal.NewFromInt(-50)
	ledger.shares["2024-03"] = share

	send(t, m, anaPhone, "generar_balance")
	out := send(t, m, anaPhone, "03-2024")
	buttons, ok := out[len(out)-1].(ButtonMessage)
	if !ok {
		t.Fatalf("expected ButtonMessage, got %T", out[len(out)-1])
	}
	if !strings.Contains(buttons.Body, "Ana: $50.00") || !strings.Contains(buttons.Body, "Bruno: $-50.00") {
		t.Errorf("balance summary = %q", buttons.Body)
	}

	send(t, m, anaPhone, "saldar_cuentas")
	out = send(t, m, anaPhone, "si")
	if len(ledger.settled) != 1 || ledger.settled[0] != "2024-03" {
		t.Errorf("settled = %v, want [2024-03]", ledger.settled)
	}
	if !strings.Contains(lastText(t, out), "saldadas") {
		t.Errorf("final reply = %q", lastText(t, out))
	}
	if got := sessionState(t, m, anaPhone); got != StateInitial {
		t.Errorf("state = %q, want initial", got)
	}
}

func TestDocumentFlow(t *testing.T) {
	m, ledger, _ := newTestMachine()

	share := core.NewMonthlyShare(2024, 4)
	ledger.shares["2024-04"] = share

	send(t, m, anaPhone, "obtener_documento")
	out := send(t, m, anaPhone, "04-2024")
	doc, ok := out[len(out)-1].(DocumentMessage)
	if !ok {
		t.Fatalf("expected DocumentMessage, got %T", out[len(out)-1])
	}
	if doc.Reference != "2024-04" {
		t.Errorf("reference = %q, want 2024-04", doc.Reference)
	}
}

func TestGreetingResetsMidFlow(t *testing.T) {
	m, _, _ := newTestMachine()

	send(t, m, anaPhone, "cargar_gasto")
	send(t, m, anaPhone, "100")
	send(t, m, anaPhone, "hola")

	if got := sessionState(t, m, anaPhone); got != StateInitial {
		t.Errorf("state = %q, want initial", got)
	}
}

func TestBalanceUnknownPeriod(t *testing.T) {
	m, _, _ := newTestMachine()

	send(t, m, anaPhone, "generar_balance")
	out := send(t, m, anaPhone, "12-2030")
	if !strings.Contains(lastText(t, out), "No hay gastos") {
		t.Errorf("reply = %q", lastText(t, out))
	}
	if got := sessionState(t, m, anaPhone); got != StateInitial {
		t.Errorf("state = %q, want initial", got)
	}
}
