package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduplan_payments_total",
			Help: "Cobranças enviadas ao gateway, por provedor e status normalizado.",
		},
		[]string{"provider", "status"},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduplan_webhook_events_total",
			Help: "Notificações de gateway processadas, por provedor e resultado.",
		},
		[]string{"provider", "outcome"},
	)

	ledgerWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduplan_ledger_writes_total",
			Help: "Escritas efetivas no ledger de assinaturas, por operação.",
		},
		[]string{"operation"},
	)

	provisioningCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eduplan_provisioning_compensations_total",
			Help: "Contas de identidade removidas após falha no cadastro.",
		},
	)

	accessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduplan_access_decisions_total",
			Help: "Decisões do controle de acesso às rotas protegidas.",
		},
		[]string{"decision"},
	)
)
