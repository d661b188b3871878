package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/gateway"
	"github.com/willjrcristo/eduplan-api/internal/service"
)

const maxWebhookBodyBytes = int64(65536)

// WebhookReconciler aplica no ledger o estado confirmado de uma notificação.
type WebhookReconciler interface {
	Reconcile(ctx context.Context, n gateway.Notification) (service.Outcome, error)
}

// StripeWebhookParser valida a assinatura e normaliza o evento da Stripe.
type StripeWebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*gateway.Notification, error)
}

type WebhookHandler struct {
	reconciler WebhookReconciler
	stripe     StripeWebhookParser
	mpSecret   string
	logger     zerolog.Logger
}

// NewWebhookHandler cria o handler dos webhooks. mpSecret vazio desliga a
// conferência do x-signature; stripe nil deixa a rota da Stripe sem registro.
func NewWebhookHandler(reconciler WebhookReconciler, stripe StripeWebhookParser, mpSecret string, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		stripe:     stripe,
		mpSecret:   mpSecret,
		logger:     logger.With().Str("handler", "webhook").Logger(),
	}
}

// @Summary      Recebe notificações do Mercado Pago
// @Description  Busca o pagamento no gateway e atualiza o plano. Responde 200 a notificações repetidas ou ignoradas.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/webhooks/mercadopago [post]
func (h *WebhookHandler) MercadoPago(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("erro ao ler corpo do webhook")
		respondWithError(w, http.StatusServiceUnavailable, "Erro ao ler corpo da requisição")
		return
	}

	n, err := gateway.ParseMercadoPagoNotification(payload, r.URL.Query())
	if err != nil {
		h.logger.Warn().Err(err).Msg("notificação do mercado pago malformada")
		respondWithError(w, http.StatusBadRequest, "Notificação inválida")
		return
	}

	if h.mpSecret != "" {
		dataID := r.URL.Query().Get("data.id")
		if dataID == "" {
			dataID = n.PaymentID
		}
		if !gateway.VerifyMercadoPagoSignature(h.mpSecret, r.Header.Get("x-signature"), r.Header.Get("x-request-id"), dataID) {
			h.logger.Warn().Str("payment_id", n.PaymentID).Msg("assinatura do webhook do mercado pago inválida")
			respondWithError(w, http.StatusUnauthorized, "Assinatura inválida")
			return
		}
	}

	h.reconcile(w, r, *n)
}

// @Summary      Recebe eventos da Stripe
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/webhooks/stripe [post]
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("erro ao ler corpo do webhook")
		respondWithError(w, http.StatusServiceUnavailable, "Erro ao ler corpo da requisição")
		return
	}

	n, err := h.stripe.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			h.logger.Warn().Err(err).Msg("falha na verificação da assinatura do webhook")
			respondWithError(w, http.StatusBadRequest, "Assinatura inválida")
			return
		}
		h.logger.Warn().Err(err).Msg("evento da stripe malformado")
		respondWithError(w, http.StatusBadRequest, "Evento inválido")
		return
	}

	h.reconcile(w, r, *n)
}

// reconcile responde 500 quando o processamento falha para o gateway reenviar.
func (h *WebhookHandler) reconcile(w http.ResponseWriter, r *http.Request, n gateway.Notification) {
	outcome, err := h.reconciler.Reconcile(r.Context(), n)
	if err != nil {
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("payment_id", n.PaymentID).
			Msg("falha ao processar webhook")
		respondWithError(w, http.StatusInternalServerError, "Erro ao processar notificação")
		return
	}
	h.logger.Info().Str("type", n.Type).Str("payment_id", n.PaymentID).Str("outcome", string(outcome)).Msg("webhook processado")
	respondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
