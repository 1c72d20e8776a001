package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/metrics"
	"gastos/internal/services"
)

// LedgerService is the slice of the expense service the machine needs.
type LedgerService interface {
	CreateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error)
	GetMonthlyBalance(ctx context.Context, year, month int) (*core.MonthlyShare, error)
	SettleMonthlyShare(ctx context.Context, year, month int) (*core.MonthlyShare, error)
	Categories() *core.CategoryRegistry
}

// MemberLookup resolves and updates members during a conversation.
type MemberLookup interface {
	GetMemberByPhone(ctx context.Context, phone string) (*core.Member, error)
	ListMembers(ctx context.Context) ([]*core.Member, error)
	TouchLastChat(ctx context.Context, id core.MemberID, at time.Time) error
}

// ReportBuilder produces the data behind the document flow.
type ReportBuilder interface {
	BuildMonthlyReport(ctx context.Context, year, month int) (services.ReportData, error)
}

// Inbound is one message received from the chat transport.
type Inbound struct {
	FromPhone string
	MessageID string
	Text      string
}

// Machine advances one session per inbound message and emits outbound
// payloads. It performs no I/O beyond its collaborators, so a transport
// can drive it from a webhook and a test can drive it directly.
type Machine struct {
	store   SessionStore
	ledger  LedgerService
	members MemberLookup
	reports ReportBuilder
	now     func() time.Time
}

func NewMachine(store SessionStore, ledger LedgerService, members MemberLookup, reports ReportBuilder) *Machine {
	return &Machine{
		store:   store,
		ledger:  ledger,
		members: members,
		reports: reports,
		now:     time.Now,
	}
}

var (
	greetingWords = map[string]bool{"hola": true, "inicio": true, "menu": true, "menú": true, "cancelar": true}
	yesWords      = map[string]bool{"si": true, "sí": true, "confirmar": true, "dale": true, "ok": true}
	noWords       = map[string]bool{"no": true, "no_gracias": true, "no gracias": true, "cancelar": true}
)

// Handle processes one inbound message. Unknown senders get a refusal;
// everyone else advances their session. Invalid input re-prompts without
// changing state.
func (m *Machine) Handle(ctx context.Context, in Inbound) ([]Payload, error) {
	member, err := m.members.GetMemberByPhone(ctx, in.FromPhone)
	if core.IsNotFound(err) {
		return []Payload{
			MarkRead{MessageID: in.MessageID},
			TextMessage{To: in.FromPhone, Body: "No te conozco. Pedile a alguien del grupo que te agregue."},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve sender %s: %w", in.FromPhone, err)
	}
	if err := m.members.TouchLastChat(ctx, member.ID, m.now()); err != nil {
		slog.WarnContext(ctx, "Failed to record last chat time", "member_id", member.ID, "error", err)
	}

	session, err := m.store.Get(ctx, in.FromPhone)
	if errors.Is(err, ErrSessionNotFound) {
		session = NewSession(in.FromPhone, member.ID)
	} else if err != nil {
		return nil, err
	}
	metrics.ChatMessages.WithLabelValues(string(session.State)).Inc()

	out := []Payload{MarkRead{MessageID: in.MessageID}}
	text := strings.TrimSpace(in.Text)
	lower := strings.ToLower(text)

	var replies []Payload
	if greetingWords[lower] {
		session.Reset()
		replies = []Payload{m.mainMenu(session.Phone, member.Name)}
	} else {
		replies, err = m.dispatch(ctx, session, member, in, text, lower)
		if err != nil {
			return nil, err
		}
	}
	out = append(out, replies...)

	session.UpdatedAt = m.now()
	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store session %s: %w", session.Phone, err)
	}
	return out, nil
}

func (m *Machine) dispatch(ctx context.Context, s *Session, member *core.Member, in Inbound, text, lower string) ([]Payload, error) {
	switch s.State {
	case StateInitial:
		return m.handleInitial(ctx, s, member, lower)
	case StateAwaitingAmount:
		return m.handleAmount(s, text)
	case StateAwaitingDescription:
		return m.handleDescription(ctx, s, text)
	case StateAwaitingPayer:
		return m.handlePayer(ctx, s, lower)
	case StateAwaitingDate:
		return m.handleDate(ctx, s, text, lower)
	case StateAwaitingCategory:
		return m.handleCategory(ctx, s, text, lower)
	case StateAwaitingPaymentType:
		return m.handlePaymentType(s, lower)
	case StateAwaitingInstallments:
		return m.handleInstallments(s, text)
	case StateAwaitingSplit:
		return m.handleSplit(ctx, s, lower)
	case StateAwaitingPercentage:
		return m.handlePercentage(ctx, s, text)
	case StateAwaitingConfirmation:
		return m.handleConfirmation(ctx, s, in, lower)
	case StateAwaitingBalanceDate:
		return m.handleBalanceDate(ctx, s, text)
	case StateAwaitingSettle:
		return m.handleSettle(ctx, s, lower)
	default:
		s.Reset()
		return []Payload{m.mainMenu(s.Phone, member.Name)}, nil
	}
}

func (m *Machine) mainMenu(phone, name string) Payload {
	return ListMessage{
		To:         phone,
		Body:       fmt.Sprintf("Hola %s, ¿qué querés hacer?", name),
		ButtonText: "Opciones",
		Rows: []ListRow{
			{ID: "cargar_gasto", Title: "Cargar gasto"},
			{ID: "prestar_plata", Title: "Prestar plata"},
			{ID: "generar_balance", Title: "Generar balance"},
			{ID: "obtener_documento", Title: "Obtener documento"},
			{ID: "no_gracias", Title: "No, gracias"},
		},
	}
}

func (m *Machine) handleInitial(ctx context.Context, s *Session, member *core.Member, lower string) ([]Payload, error) {
	switch lower {
	case "cargar_gasto", "cargar gasto":
		s.Flow = FlowExpense
		s.State = StateAwaitingAmount
		return m.texts(s, "¿Cuánto gastaste? (ej: 1234,56)"), nil
	case "prestar_plata", "prestar plata":
		s.Flow = FlowLoan
		s.State = StateAwaitingAmount
		return m.texts(s, "¿Cuánta plata prestaste? (ej: 1234,56)"), nil
	case "generar_balance", "generar balance":
		s.Flow = FlowBalance
		s.State = StateAwaitingBalanceDate
		return m.texts(s, "¿De qué mes? (MM-AAAA, ej: 03-2024)"), nil
	case "obtener_documento", "obtener documento":
		s.Flow = FlowDocument
		s.State = StateAwaitingBalanceDate
		return m.texts(s, "¿De qué mes querés el documento? (MM-AAAA)"), nil
	case "no_gracias", "no gracias", "no":
		s.Reset()
		return m.texts(s, "¡Hasta luego! 👋"), nil
	default:
		return []Payload{m.mainMenu(s.Phone, member.Name)}, nil
	}
}

func (m *Machine) handleAmount(s *Session, text string) ([]Payload, error) {
	amount, err := core.ParseAmount(text)
	if err != nil {
		return m.texts(s, "Monto inválido. Probá de nuevo (ej: 1234,56)."), nil
	}
	s.Draft.Amount = amount.String()
	s.State = StateAwaitingDescription
	if s.Flow == FlowLoan {
		return m.texts(s, "¿Para qué fue el préstamo?"), nil
	}
	return m.texts(s, "¿Qué compraste?"), nil
}

func (m *Machine) handleDescription(ctx context.Context, s *Session, text string) ([]Payload, error) {
	if text == "" || len(text) > 255 {
		return m.texts(s, "La descripción tiene que tener entre 1 y 255 caracteres."), nil
	}
	s.Draft.Description = text
	s.State = StateAwaitingPayer
	return m.payerList(ctx, s)
}

func (m *Machine) payerList(ctx context.Context, s *Session) ([]Payload, error) {
	members, err := m.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	rows := make([]ListRow, 0, len(members))
	for _, mem := range members {
		rows = append(rows, ListRow{ID: fmt.Sprintf("payer_%d", mem.ID), Title: mem.Name})
	}
	body := "¿Quién pagó?"
	if s.Flow == FlowLoan {
		body = "¿Quién prestó la plata?"
	}
	return []Payload{ListMessage{To: s.Phone, Body: body, ButtonText: "Elegir", Rows: rows}}, nil
}

func (m *Machine) handlePayer(ctx context.Context, s *Session, lower string) ([]Payload, error) {
	members, err := m.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	var payer *core.Member
	if idText, ok := strings.CutPrefix(lower, "payer_"); ok {
		if id, err := strconv.ParseInt(idText, 10, 64); err == nil {
			for _, mem := range members {
				if mem.ID == core.MemberID(id) {
					payer = mem
					break
				}
			}
		}
	} else {
		for _, mem := range members {
			if strings.EqualFold(mem.Name, lower) {
				payer = mem
				break
			}
		}
	}
	if payer == nil {
		return m.texts(s, "No encontré a esa persona. Elegí de la lista."), nil
	}

	s.Draft.PayerID = int64(payer.ID)
	s.State = StateAwaitingDate
	return []Payload{ButtonMessage{
		To:      s.Phone,
		Body:    "¿Cuándo fue? Escribí la fecha (DD-MM-AAAA) o tocá Hoy.",
		Buttons: []Button{{ID: "hoy", Title: "Hoy"}},
	}}, nil
}

func (m *Machine) handleDate(ctx context.Context, s *Session, text, lower string) ([]Payload, error) {
	var date time.Time
	if lower == "hoy" {
		date = m.now()
	} else {
		var err error
		date, err = time.Parse("02-01-2006", text)
		if err != nil {
			return m.texts(s, "Fecha inválida. Formato DD-MM-AAAA (ej: 17-03-2024)."), nil
		}
	}
	s.Draft.Date = date.Format("02-01-2006")

	if s.Flow == FlowLoan {
		// A loan is a debit fully owed by the borrower under the
		// internal loan category.
		s.Draft.Category = core.CategoryLoan
		s.Draft.PaymentType = string(core.PaymentDebit)
		s.Draft.Installments = 1
		s.Draft.SplitKind = "percentage"
		s.Draft.PayerPercent = "0"
		s.State = StateAwaitingConfirmation
		return m.confirmation(ctx, s)
	}

	s.State = StateAwaitingCategory
	return m.categoryList(s), nil
}

func (m *Machine) categoryList(s *Session) []Payload {
	rows := []ListRow{}
	for _, cat := range m.ledger.Categories().Numbered(false) {
		rows = append(rows, ListRow{
			ID:    fmt.Sprintf("cat_%d", cat.Number),
			Title: fmt.Sprintf("%s %s", cat.Emoji, cat.Name),
		})
	}
	return []Payload{ListMessage{To: s.Phone, Body: "¿En qué categoría va?", ButtonText: "Categorías", Rows: rows}}
}

func (m *Machine) handleCategory(ctx context.Context, s *Session, text, lower string) ([]Payload, error) {
	registry := m.ledger.Categories()

	name := ""
	numText := lower
	if cut, ok := strings.CutPrefix(lower, "cat_"); ok {
		numText = cut
	}
	if num, err := strconv.Atoi(numText); err == nil {
		if resolved, ok := registry.ByNumber(num, false); ok {
			name = resolved
		}
	} else {
		for _, candidate := range registry.UserNames() {
			if strings.EqualFold(candidate, lower) {
				name = candidate
				break
			}
		}
	}
	if name == "" {
		return m.texts(s, "Categoría inválida. Elegí una de la lista."), nil
	}

	s.Draft.Category = name
	s.State = StateAwaitingPaymentType
	return []Payload{ButtonMessage{
		To:   s.Phone,
		Body: "¿Cómo pagaste?",
		Buttons: []Button{
			{ID: "pago_debito", Title: "Débito"},
			{ID: "pago_credito", Title: "Crédito"},
		},
	}}, nil
}

func (m *Machine) handlePaymentType(s *Session, lower string) ([]Payload, error) {
	switch lower {
	case "pago_debito", "debito", "débito":
		s.Draft.PaymentType = string(core.PaymentDebit)
		s.Draft.Installments = 1
		s.State = StateAwaitingSplit
		return m.splitButtons(s), nil
	case "pago_credito", "credito", "crédito":
		s.Draft.PaymentType = string(core.PaymentCredit)
		s.State = StateAwaitingInstallments
		return m.texts(s, "¿En cuántas cuotas? (1 a 12)"), nil
	default:
		return m.texts(s, "Respondé débito o crédito."), nil
	}
}

func (m *Machine) handleInstallments(s *Session, text string) ([]Payload, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > 12 {
		return m.texts(s, "Cantidad inválida. Tiene que ser un número entre 1 y 12."), nil
	}
	s.Draft.Installments = n
	s.State = StateAwaitingSplit
	return m.splitButtons(s), nil
}

func (m *Machine) splitButtons(s *Session) []Payload {
	return []Payload{ButtonMessage{
		To:   s.Phone,
		Body: "¿Cómo lo dividimos?",
		Buttons: []Button{
			{ID: "split_igual", Title: "Partes iguales"},
			{ID: "split_porcentaje", Title: "Por porcentaje"},
		},
	}}
}

func (m *Machine) handleSplit(ctx context.Context, s *Session, lower string) ([]Payload, error) {
	switch lower {
	case "split_igual", "igual", "partes iguales":
		s.Draft.SplitKind = "equal"
		s.State = StateAwaitingConfirmation
		return m.confirmation(ctx, s)
	case "split_porcentaje", "porcentaje", "por porcentaje":
		s.Draft.SplitKind = "percentage"
		s.State = StateAwaitingPercentage
		payerName, err := m.memberName(ctx, core.MemberID(s.Draft.PayerID))
		if err != nil {
			return nil, err
		}
		return m.texts(s, fmt.Sprintf("¿Qué porcentaje paga %s? (0 a 100)", payerName)), nil
	default:
		return m.texts(s, "Elegí partes iguales o por porcentaje."), nil
	}
}

func (m *Machine) handlePercentage(ctx context.Context, s *Session, text string) ([]Payload, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	normalized = strings.TrimSuffix(normalized, "%")
	pct, err := decimal.NewFromString(normalized)
	if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return m.texts(s, "Porcentaje inválido. Tiene que estar entre 0 y 100."), nil
	}
	s.Draft.PayerPercent = pct.String()
	s.State = StateAwaitingConfirmation
	return m.confirmation(ctx, s)
}

func (m *Machine) confirmation(ctx context.Context, s *Session) ([]Payload, error) {
	summary, err := m.draftSummary(ctx, s)
	if err != nil {
		return nil, err
	}
	return []Payload{
		TextMessage{To: s.Phone, Body: summary},
		ButtonMessage{
			To:   s.Phone,
			Body: "¿Confirmás?",
			Buttons: []Button{
				{ID: "si", Title: "Sí"},
				{ID: "no", Title: "No"},
			},
		},
	}, nil
}

func (m *Machine) handleConfirmation(ctx context.Context, s *Session, in Inbound, lower string) ([]Payload, error) {
	switch {
	case yesWords[lower]:
		expense, err := m.draftExpense(ctx, s)
		if err == nil {
			_, err = m.ledger.CreateExpense(ctx, expense)
		}
		if err != nil {
			if core.IsValidation(err) || errors.Is(err, core.ErrPeriodSettled) {
				s.Reset()
				return m.texts(s, fmt.Sprintf("No pude cargar el gasto: %v", err)), nil
			}
			return nil, err
		}
		s.Reset()
		return []Payload{
			ReactionMessage{To: s.Phone, MessageID: in.MessageID, Emoji: "👍"},
			TextMessage{To: s.Phone, Body: "Gasto cargado ✅"},
		}, nil
	case noWords[lower]:
		s.Reset()
		return m.texts(s, "Listo, lo cancelo."), nil
	default:
		return m.texts(s, "Respondé sí o no."), nil
	}
}

func (m *Machine) handleBalanceDate(ctx context.Context, s *Session, text string) ([]Payload, error) {
	period, err := time.Parse("01-2006", strings.TrimSpace(text))
	if err != nil {
		return m.texts(s, "Fecha inválida. Formato MM-AAAA (ej: 03-2024)."), nil
	}
	year, month := period.Year(), int(period.Month())

	share, err := m.ledger.GetMonthlyBalance(ctx, year, month)
	if errors.Is(err, core.ErrShareNotFound) {
		s.Reset()
		return m.texts(s, fmt.Sprintf("No hay gastos registrados en %02d-%04d.", month, year)), nil
	}
	if err != nil {
		return nil, err
	}

	if s.Flow == FlowDocument {
		if _, err := m.reports.BuildMonthlyReport(ctx, year, month); err != nil {
			return nil, err
		}
		s.Reset()
		return []Payload{DocumentMessage{
			To:        s.Phone,
			Caption:   fmt.Sprintf("Resumen %02d-%04d", month, year),
			Reference: share.PeriodKey(),
		}}, nil
	}

	summary, err := m.balanceSummary(ctx, share)
	if err != nil {
		return nil, err
	}
	s.Draft.BalanceYear = year
	s.Draft.BalanceMonth = month
	s.State = StateAwaitingSettle
	return []Payload{ButtonMessage{
		To:   s.Phone,
		Body: summary,
		Buttons: []Button{
			{ID: "saldar_cuentas", Title: "Saldar cuentas"},
			{ID: "obtener_documento", Title: "Obtener documento"},
			{ID: "no_gracias", Title: "No, gracias"},
		},
	}}, nil
}

func (m *Machine) handleSettle(ctx context.Context, s *Session, lower string) ([]Payload, error) {
	year, month := s.Draft.BalanceYear, s.Draft.BalanceMonth

	if s.Draft.SettleArmed {
		switch {
		case yesWords[lower]:
			if _, err := m.ledger.SettleMonthlyShare(ctx, year, month); err != nil {
				return nil, fmt.Errorf("settle %04d-%02d: %w", year, month, err)
			}
			s.Reset()
			return m.texts(s, "Cuentas saldadas ✅ Todos quedaron en cero."), nil
		case noWords[lower]:
			s.Reset()
			return m.texts(s, "Listo, no saldo nada."), nil
		default:
			return m.texts(s, "Respondé sí o no."), nil
		}
	}

	switch lower {
	case "saldar_cuentas", "saldar cuentas":
		s.Draft.SettleArmed = true
		return []Payload{ButtonMessage{
			To:   s.Phone,
			Body: fmt.Sprintf("¿Seguro que querés saldar las cuentas de %02d-%04d?", month, year),
			Buttons: []Button{
				{ID: "si", Title: "Sí"},
				{ID: "no", Title: "No"},
			},
		}}, nil
	case "obtener_documento", "obtener documento":
		if _, err := m.reports.BuildMonthlyReport(ctx, year, month); err != nil {
			return nil, err
		}
		s.Reset()
		return []Payload{DocumentMessage{
			To:        s.Phone,
			Caption:   fmt.Sprintf("Resumen %02d-%04d", month, year),
			Reference: fmt.Sprintf("%04d-%02d", year, month),
		}}, nil
	case "no_gracias", "no gracias", "no":
		s.Reset()
		return m.texts(s, "¡Hasta luego! 👋"), nil
	default:
		return m.texts(s, "Elegí una opción de los botones."), nil
	}
}

func (m *Machine) draftExpense(ctx context.Context, s *Session) (*core.Expense, error) {
	amount, err := decimal.NewFromString(s.Draft.Amount)
	if err != nil {
		return nil, fmt.Errorf("draft amount %q: %w", s.Draft.Amount, core.ErrInvalidAmount)
	}
	date, err := time.Parse("02-01-2006", s.Draft.Date)
	if err != nil {
		return nil, fmt.Errorf("draft date %q: %w", s.Draft.Date, core.ErrInvalidDate)
	}

	split := core.EqualSplit()
	if s.Draft.SplitKind == "percentage" {
		split, err = m.percentageSplit(ctx, s)
		if err != nil {
			return nil, err
		}
	}

	return &core.Expense{
		Description:   s.Draft.Description,
		Amount:        amount,
		Date:          date,
		Category:      s.Draft.Category,
		PayerID:       core.MemberID(s.Draft.PayerID),
		PaymentType:   core.PaymentType(s.Draft.PaymentType),
		Installments:  s.Draft.Installments,
		SplitStrategy: split,
	}, nil
}

// percentageSplit gives the payer their chosen percentage and divides
// the remainder evenly among everyone else.
func (m *Machine) percentageSplit(ctx context.Context, s *Session) (core.SplitStrategy, error) {
	members, err := m.members.ListMembers(ctx)
	if err != nil {
		return core.SplitStrategy{}, fmt.Errorf("list members: %w", err)
	}
	payerPct, err := decimal.NewFromString(s.Draft.PayerPercent)
	if err != nil {
		return core.SplitStrategy{}, fmt.Errorf("draft percentage %q: %w", s.Draft.PayerPercent, core.ErrInvalidPercentages)
	}

	payerID := core.MemberID(s.Draft.PayerID)
	others := 0
	for _, mem := range members {
		if mem.ID != payerID {
			others++
		}
	}
	if others == 0 {
		return core.EqualSplit(), nil
	}

	rest := decimal.NewFromInt(100).Sub(payerPct).Div(decimal.NewFromInt(int64(others)))
	percentages := map[core.MemberID]decimal.Decimal{payerID: payerPct}
	for _, mem := range members {
		if mem.ID != payerID {
			percentages[mem.ID] = rest
		}
	}
	return core.PercentageSplit(percentages)
}

func (m *Machine) draftSummary(ctx context.Context, s *Session) (string, error) {
	payerName, err := m.memberName(ctx, core.MemberID(s.Draft.PayerID))
	if err != nil {
		return "", err
	}
	amount, err := decimal.NewFromString(s.Draft.Amount)
	if err != nil {
		return "", fmt.Errorf("draft amount %q: %w", s.Draft.Amount, core.ErrInvalidAmount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 %s\n", s.Draft.Description)
	fmt.Fprintf(&b, "💵 $%s\n", amount.StringFixed(2))
	fmt.Fprintf(&b, "%s %s\n", m.ledger.Categories().Emoji(s.Draft.Category), s.Draft.Category)
	fmt.Fprintf(&b, "👤 Paga: %s\n", payerName)
	fmt.Fprintf(&b, "📅 %s\n", s.Draft.Date)
	if s.Draft.PaymentType == string(core.PaymentCredit) {
		fmt.Fprintf(&b, "💳 Crédito en %d cuotas\n", s.Draft.Installments)
	} else {
		b.WriteString("💳 Débito\n")
	}
	if s.Draft.SplitKind == "percentage" {
		fmt.Fprintf(&b, "➗ %s%% a cargo de %s, el resto dividido", s.Draft.PayerPercent, payerName)
	} else {
		b.WriteString("➗ Partes iguales")
	}
	return b.String(), nil
}

func (m *Machine) balanceSummary(ctx context.Context, share *core.MonthlyShare) (string, error) {
	members, err := m.members.ListMembers(ctx)
	if err != nil {
		return "", fmt.Errorf("list members: %w", err)
	}
	names := make(map[core.MemberID]string, len(members))
	for _, mem := range members {
		names[mem.ID] = mem.Name
	}

	ids := make([]core.MemberID, 0, len(share.Balances))
	for id := range share.Balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "Balance %s:\n", share.PeriodKey())
	for _, id := range ids {
		name := names[id]
		if name == "" {
			name = fmt.Sprintf("miembro %d", id)
		}
		fmt.Fprintf(&b, "• %s: $%s\n", name, share.Balances[id].StringFixed(2))
	}
	if share.Settled {
		b.WriteString("(mes saldado)\n")
	}
	b.WriteString("¿Qué querés hacer?")
	return b.String(), nil
}

func (m *Machine) memberName(ctx context.Context, id core.MemberID) (string, error) {
	members, err := m.members.ListMembers(ctx)
	if err != nil {
		return "", fmt.Errorf("list members: %w", err)
	}
	for _, mem := range members {
		if mem.ID == id {
			return mem.Name, nil
		}
	}
	return fmt.Sprintf("miembro %d", id), nil
}

func (m *Machine) texts(s *Session, body string) []Payload {
	return []Payload{TextMessage{To: s.Phone, Body: body}}
}
