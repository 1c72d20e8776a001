package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses: validation 400,
// not found 404, settled period 409, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case core.IsNotFound(err):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrPeriodSettled):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return v, err == nil
}

// pathPeriod extracts {year}/{month} path segments.
func pathPeriod(r *http.Request) (year, month int, ok bool) {
	y, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, m, true
}

type splitPayload struct {
	Kind        string            `json:"kind"`
	Percentages map[string]string `json:"percentages,omitempty"`
}

type expensePayload struct {
	ID              int64        `json:"id,omitempty"`
	Description     string       `json:"description"`
	Amount          string       `json:"amount"`
	Date            string       `json:"date"` // YYYY-MM-DD
	Category        string       `json:"category"`
	PayerID         int64        `json:"payer_id"`
	PaymentType     string       `json:"payment_type"`
	Installments    int          `json:"installments,omitempty"`
	InstallmentNo   int          `json:"installment_no,omitempty"`
	ParentExpenseID int64        `json:"parent_expense_id,omitempty"`
	Split           splitPayload `json:"split"`
}

func (p expensePayload) toExpense() (*core.Expense, error) {
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return nil, core.ErrInvalidDate
	}

	split := core.EqualSplit()
	if p.Split.Kind == string(core.SplitPercentage) {
		percentages := make(map[core.MemberID]decimal.Decimal, len(p.Split.Percentages))
		for key, value := range p.Split.Percentages {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, core.ErrInvalidPercentages
			}
			pct, err := decimal.NewFromString(value)
			if err != nil {
				return nil, core.ErrInvalidPercentages
			}
			percentages[core.MemberID(id)] = pct
		}
		if split, err = core.PercentageSplit(percentages); err != nil {
			return nil, err
		}
	}

	return &core.Expense{
		ID:            p.ID,
		Description:   p.Description,
		Amount:        amount,
		Date:          date,
		Category:      p.Category,
		PayerID:       core.MemberID(p.PayerID),
		PaymentType:   core.PaymentType(p.PaymentType),
		Installments:  p.Installments,
		InstallmentNo: p.InstallmentNo,
		SplitStrategy: split,
	}, nil
}

func fromExpense(e *core.Expense) expensePayload {
	payload := expensePayload{
		ID:              e.ID,
		Description:     e.Description,
		Amount:          e.Amount.String(),
		Date:            e.Date.Format("2006-01-02"),
		Category:        e.Category,
		PayerID:         int64(e.PayerID),
		PaymentType:     string(e.PaymentType),
		Installments:    e.Installments,
		InstallmentNo:   e.InstallmentNo,
		ParentExpenseID: e.ParentExpenseID,
		Split:           splitPayload{Kind: string(e.SplitStrategy.Kind)},
	}
	if e.SplitStrategy.Kind == core.SplitPercentage {
		payload.Split.Percentages = make(map[string]string, len(e.SplitStrategy.Percentages))
		for id, pct := range e.SplitStrategy.Percentages {
			payload.Split.Percentages[strconv.FormatInt(int64(id), 10)] = pct.String()
		}
	}
	return payload
}

type sharePayload struct {
	Year     int               `json:"year"`
	Month    int               `json:"month"`
	Settled  bool              `json:"settled"`
	Balances map[string]string `json:"balances"`
	Expenses []expensePayload  `json:"expenses"`
}

func fromShare(share *core.MonthlyShare) sharePayload {
	payload := sharePayload{
		Year:     share.Year,
		Month:    share.Month,
		Settled:  share.Settled,
		Balances: make(map[string]string, len(share.Balances)),
		Expenses: make([]expensePayload, 0, len(share.Expenses)),
	}
	for id, balance := range share.Balances {
		payload.Balances[strconv.FormatInt(int64(id), 10)] = balance.String()
	}
	for _, e := range share.Expenses {
		payload.Expenses = append(payload.Expenses, fromExpense(e))
	}
	return payload
}

type memberPayload struct {
	ID                     int64  `json:"id,omitempty"`
	Name                   string `json:"name"`
	Telephone              string `json:"telephone"`
	Email                  string `json:"email"`
	NotificationPreference string `json:"notification_preference"`
}

func (p memberPayload) toMember() *core.Member {
	return &core.Member{
		ID:                     core.MemberID(p.ID),
		Name:                   p.Name,
		Telephone:              p.Telephone,
		Email:                  p.Email,
		NotificationPreference: core.NotificationPreference(p.NotificationPreference),
	}
}

func fromMember(m *core.Member) memberPayload {
	return memberPayload{
		ID:                     int64(m.ID),
		Name:                   m.Name,
		Telephone:              m.Telephone,
		Email:                  m.Email,
		NotificationPreference: string(m.NotificationPreference),
	}
}
