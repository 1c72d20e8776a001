// Package http exposes the ledger over a JSON API plus the chat webhook.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gastos/internal/chat"
	"gastos/internal/services"
)

type Server struct {
	*http.Server
	expenses *services.ExpenseService
	members  *services.MemberService
	reports  *services.ReportService
	machine  *chat.Machine
}

func NewServer(addr string, expenses *services.ExpenseService, members *services.MemberService, reports *services.ReportService, machine *chat.Machine) *Server {
	s := &Server{
		expenses: expenses,
		members:  members,
		reports:  reports,
		machine:  machine,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /shares/{year}/{month}", s.handleGetShare)
	mux.HandleFunc("POST /shares/{year}/{month}/settle", s.handleSettleShare)
	mux.HandleFunc("POST /shares/{year}/{month}/unsettle", s.handleUnsettleShare)
	mux.HandleFunc("POST /shares/{year}/{month}/recalculate", s.handleRecalculateShare)
	mux.HandleFunc("POST /shares/{year}/{month}/export", s.handleExportShare)

	mux.HandleFunc("GET /members", s.handleListMembers)
	mux.HandleFunc("POST /members", s.handleAddMember)
	mux.HandleFunc("PUT /members/{id}", s.handleUpdateMember)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleAddCategory)

	mux.HandleFunc("POST /webhook/whatsapp", s.handleChatWebhook)

	s.Server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.Addr)
	return s.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.InfoContext(ctx, "Shutting down HTTP server")
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
