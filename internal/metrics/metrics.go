// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastos_expenses_created_total",
		Help: "Expenses created, by payment type.",
	}, []string{"payment_type"})

	ExpensesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gastos_expenses_deleted_total",
		Help: "Expenses deleted.",
	})

	Settlements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gastos_settlements_total",
		Help: "Monthly shares settled.",
	})

	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastos_chat_messages_total",
		Help: "Inbound chat messages, by session state when handled.",
	}, []string{"state"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastos_notifications_total",
		Help: "Notification deliveries, by channel and outcome.",
	}, []string{"channel", "outcome"})
)
