// Package chat implements the conversational slot-filling machine that
// turns WhatsApp-style messages into ledger operations.
package chat

import (
	"errors"
	"time"

	"gastos/internal/core"
)

// State names the slot the machine is waiting for.
type State string

const (
	StateInitial              State = "initial"
	StateAwaitingAmount       State = "awaiting_amount"
	StateAwaitingDescription  State = "awaiting_description"
	StateAwaitingPayer        State = "awaiting_payer"
	StateAwaitingDate         State = "awaiting_date"
	StateAwaitingCategory     State = "awaiting_category"
	StateAwaitingPaymentType  State = "awaiting_payment_type"
	StateAwaitingInstallments State = "awaiting_installments"
	StateAwaitingSplit        State = "awaiting_split_strategy"
	StateAwaitingPercentage   State = "awaiting_percentage"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateAwaitingBalanceDate  State = "awaiting_balance_date"
	StateAwaitingSettle       State = "awaiting_settle_confirmation"
)

// Flow distinguishes what the collected slots will become.
type Flow string

const (
	FlowExpense  Flow = "expense"
	FlowLoan     Flow = "loan"
	FlowBalance  Flow = "balance"
	FlowDocument Flow = "document"
)

// Draft accumulates the slots of the flow in progress. Amounts and
// percentages are kept as strings so the session serializes cleanly.
type Draft struct {
	Amount       string `json:"amount,omitempty"`
	Description  string `json:"description,omitempty"`
	PayerID      int64  `json:"payer_id,omitempty"`
	Date         string `json:"date,omitempty"` // DD-MM-YYYY
	Category     string `json:"category,omitempty"`
	PaymentType  string `json:"payment_type,omitempty"`
	Installments int    `json:"installments,omitempty"`
	SplitKind    string `json:"split_kind,omitempty"`
	PayerPercent string `json:"payer_percent,omitempty"`

	BalanceYear  int  `json:"balance_year,omitempty"`
	BalanceMonth int  `json:"balance_month,omitempty"`
	SettleArmed  bool `json:"settle_armed,omitempty"`
}

// Session is one phone number's conversation state.
type Session struct {
	Phone     string        `json:"phone"`
	MemberID  core.MemberID `json:"member_id"`
	State     State         `json:"state"`
	Flow      Flow          `json:"flow,omitempty"`
	Draft     Draft         `json:"draft"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewSession(phone string, memberID core.MemberID) *Session {
	return &Session{Phone: phone, MemberID: memberID, State: StateInitial}
}

// Reset drops the flow in progress but keeps the identity fields.
func (s *Session) Reset() {
	s.State = StateInitial
	s.Flow = ""
	s.Draft = Draft{}
}

// ErrSessionNotFound is returned by a SessionStore when the phone has
// no live session.
var ErrSessionNotFound = errors.New("chat: session not found")
