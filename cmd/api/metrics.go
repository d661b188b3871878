package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas HTTP da API. As de domínio (pagamentos, webhooks, ledger) ficam no
// pacote service.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduplan_http_requests_total",
			Help: "Número total de requisições HTTP recebidas.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eduplan_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP em segundos.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15},
		},
		[]string{"method", "route", "code"},
	)
)

// prometheusMiddleware coleta contagem e latência por rota. Usa o padrão da
// rota (ex: /api/plan-status/{userId}) para não criar uma série por usuário.
func prometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := strconv.Itoa(ww.Status())
		httpRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
	})
}
