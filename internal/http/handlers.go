package http

import (
	"encoding/json"
	"net/http"

	"gastos/internal/chat"
	"gastos/internal/core"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	expense, err := payload.toExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromExpense(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return
	}

	expense, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromExpense(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return
	}

	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	payload.ID = id

	stored, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := payload.toExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Updating the first installment of a credit purchase rewrites the
	// whole installment plan; any other row is a plain update.
	var updated *core.Expense
	if stored.PaymentType == core.PaymentCredit && stored.InstallmentNo == 1 {
		expense.PaymentType = core.PaymentCredit
		expense.InstallmentNo = 1
		updated, err = s.expenses.UpdateCreditExpense(r.Context(), expense)
	} else {
		expense.PaymentType = stored.PaymentType
		expense.Installments = stored.Installments
		expense.InstallmentNo = stored.InstallmentNo
		expense.ParentExpenseID = stored.ParentExpenseID
		updated, err = s.expenses.UpdateExpense(r.Context(), expense)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromExpense(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathPeriod(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid period"})
		return
	}

	share, err := s.expenses.GetMonthlyBalance(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromShare(share))
}

func (s *Server) handleSettleShare(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathPeriod(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid period"})
		return
	}

	share, err := s.expenses.SettleMonthlyShare(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromShare(share))
}

func (s *Server) handleUnsettleShare(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathPeriod(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid period"})
		return
	}

	share, err := s.expenses.UnsettleMonthlyShare(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromShare(share))
}

func (s *Server) handleRecalculateShare(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathPeriod(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid period"})
		return
	}

	share, err := s.expenses.RecalculateMonthlyShare(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromShare(share))
}

func (s *Server) handleExportShare(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathPeriod(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid period"})
		return
	}

	url, err := s.reports.ExportMonthlyReport(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.ListMembers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]memberPayload, 0, len(members))
	for _, m := range members {
		out = append(out, fromMember(m))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var payload memberPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	member := payload.toMember()
	member.ID = 0
	if err := s.members.AddMember(r.Context(), member); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, fromMember(member))
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid member id"})
		return
	}

	var payload memberPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	payload.ID = id

	member := payload.toMember()
	if err := s.members.UpdateMember(r.Context(), member); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fromMember(member))
}

type categoryPayload struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji,omitempty"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	numbered := s.expenses.Categories().Numbered(false)
	out := make([]categoryPayload, 0, len(numbered))
	for _, c := range numbered {
		out = append(out, categoryPayload{Number: c.Number, Name: c.Name, Emoji: c.Emoji})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if payload.Name == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "category name is required"})
		return
	}

	s.expenses.Categories().Add(payload.Name, payload.Emoji)
	w.WriteHeader(http.StatusNoContent)
}

type webhookRequest struct {
	From      string `json:"from"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

func (s *Server) handleChatWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if payload.From == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "from is required"})
		return
	}

	outbound, err := s.machine.Handle(r.Context(), chat.Inbound{
		FromPhone: payload.From,
		MessageID: payload.MessageID,
		Text:      payload.Text,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]outboundPayload, 0, len(outbound))
	for _, p := range outbound {
		out = append(out, fromChatPayload(p))
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// outboundPayload is the wire shape of a chat reply. Type discriminates
// which of the optional fields are set.
type outboundPayload struct {
	Type       string         `json:"type"`
	To         string         `json:"to,omitempty"`
	Body       string         `json:"body,omitempty"`
	ButtonText string         `json:"button_text,omitempty"`
	Buttons    []chat.Button  `json:"buttons,omitempty"`
	Rows       []chat.ListRow `json:"rows,omitempty"`
	Caption    string         `json:"caption,omitempty"`
	Reference  string         `json:"reference,omitempty"`
	MessageID  string         `json:"message_id,omitempty"`
	Emoji      string         `json:"emoji,omitempty"`
}

func fromChatPayload(p chat.Payload) outboundPayload {
	switch v := p.(type) {
	case chat.TextMessage:
		return outboundPayload{Type: "text", To: v.To, Body: v.Body}
	case chat.ButtonMessage:
		return outboundPayload{Type: "buttons", To: v.To, Body: v.Body, Buttons: v.Buttons}
	case chat.ListMessage:
		return outboundPayload{Type: "list", To: v.To, Body: v.Body, ButtonText: v.ButtonText, Rows: v.Rows}
	case chat.DocumentMessage:
		return outboundPayload{Type: "document", To: v.To, Caption: v.Caption, Reference: v.Reference}
	case chat.ReactionMessage:
		return outboundPayload{Type: "reaction", To: v.To, MessageID: v.MessageID, Emoji: v.Emoji}
	case chat.MarkRead:
		return outboundPayload{Type: "mark_read", MessageID: v.MessageID}
	default:
		return outboundPayload{Type: "unknown"}
	}
}
