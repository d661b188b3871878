package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preapproval"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// URLs usadas pelo Mercado Pago para notificações e retorno do checkout.
type URLs struct {
	Notification string
	Success      string
	Failure      string
	Pending      string
}

// MercadoPago implementa o Gateway com o SDK oficial.
type MercadoPago struct {
	payments     payment.Client
	preferences  preference.Client
	preapprovals preapproval.Client
	urls         URLs
	logger       zerolog.Logger
}

func NewMercadoPago(accessToken string, urls URLs, logger zerolog.Logger) (*MercadoPago, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("configurar mercado pago: %w", err)
	}
	return &MercadoPago{
		payments:     payment.NewClient(cfg),
		preferences:  preference.NewClient(cfg),
		preapprovals: preapproval.NewClient(cfg),
		urls:         urls,
		logger:       logger.With().Str("service", "mercadopago").Logger(),
	}, nil
}

func (m *MercadoPago) Provider() string { return "mercadopago" }

func (m *MercadoPago) Charge(ctx context.Context, req ChargeRequest) (*Result, error) {
	body := payment.Request{
		TransactionAmount: req.Amount.InexactFloat64(),
		Token:             req.Token,
		Description:       req.Description,
		Installments:      max(req.Installments, 1),
		PaymentMethodID:   req.PaymentMethodID,
		IssuerID:          req.IssuerID,
		ExternalReference: req.ExternalReference,
		NotificationURL:   m.urls.Notification,
		Payer: &payment.PayerRequest{
			Email: req.PayerEmail,
		},
	}
	if req.DocNumber != "" {
		body.Payer.Identification = &payment.IdentificationRequest{Type: req.DocType, Number: req.DocNumber}
	}

	res, err := m.payments.Create(ctx, body)
	if err != nil {
		return nil, m.classify(ctx, "charge", err)
	}
	m.logger.Info().Int("payment_id", res.ID).Str("status", res.Status).Str("detail", res.StatusDetail).Msg("pagamento criado")

	return &Result{
		ExternalID:   strconv.Itoa(res.ID),
		Status:       MercadoPagoStatus(res.Status),
		RawStatus:    res.Status,
		StatusDetail: res.StatusDetail,
	}, nil
}

func (m *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	res, err := m.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  req.Amount.InexactFloat64(),
			CurrencyID: domain.Currency,
		}},
		Payer: &preference.PayerRequest{Email: req.PayerEmail},
		BackURLs: &preference.BackURLsRequest{
			Success: m.urls.Success,
			Failure: m.urls.Failure,
			Pending: m.urls.Pending,
		},
		AutoReturn:        "approved",
		ExternalReference: req.ExternalReference,
		NotificationURL:   m.urls.Notification,
		PaymentMethods:    &preference.PaymentMethodsRequest{Installments: 12},
	})
	if err != nil {
		return nil, m.classify(ctx, "preference", err)
	}
	return &Preference{ID: res.ID, InitPoint: res.InitPoint}, nil
}

func (m *MercadoPago) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Result, error) {
	res, err := m.preapprovals.Create(ctx, preapproval.Request{
		AutoRecurring: &preapproval.AutoRecurringRequest{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: req.Amount.InexactFloat64(),
			CurrencyID:        domain.Currency,
		},
		PayerEmail:        req.PayerEmail,
		CardTokenID:       req.CardTokenID,
		ExternalReference: req.ExternalReference,
		Reason:            req.Reason,
		BackURL:           m.urls.Success,
	})
	if err != nil {
		return nil, m.classify(ctx, "subscription", err)
	}
	return &Result{
		ExternalID: res.ID,
		Status:     PreapprovalStatus(res.Status),
		RawStatus:  res.Status,
	}, nil
}

func (m *MercadoPago) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := m.preapprovals.Update(ctx, subscriptionID, preapproval.UpdateRequest{Status: "cancelled"})
	if err != nil {
		return m.classify(ctx, "cancel", err)
	}
	return nil
}

func (m *MercadoPago) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentEvent, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: "get_payment", Err: fmt.Errorf("id de pagamento inválido %q", paymentID)}
	}
	res, err := m.payments.Get(ctx, id)
	if err != nil {
		return nil, m.classify(ctx, "get_payment", err)
	}
	return &domain.PaymentEvent{
		PaymentID:         strconv.Itoa(res.ID),
		Status:            MercadoPagoStatus(res.Status),
		RawStatus:         res.Status,
		ExternalReference: res.ExternalReference,
	}, nil
}

func (m *MercadoPago) classify(ctx context.Context, op string, err error) error {
	kind := KindUnavailable
	var respErr *mperror.ResponseError
	if errors.As(err, &respErr) {
		kind = kindFromHTTPStatus(respErr.StatusCode)
	}
	m.logger.Error().Err(err).Str("op", op).Str("kind", string(kind)).Msg("falha no mercado pago")
	return wrapErr(ctx, op, kind, err)
}

// MercadoPagoStatus normaliza o status de um pagamento do Mercado Pago.
// Qualquer status desconhecido é tratado como pendente.
func MercadoPagoStatus(raw string) domain.PaymentStatus {
	switch raw {
	case "approved", "authorized":
		return domain.PaymentApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}

// PreapprovalStatus normaliza o status de uma assinatura (preapproval).
func PreapprovalStatus(raw string) domain.PaymentStatus {
	switch raw {
	case "authorized":
		return domain.PaymentApproved
	case "cancelled", "paused":
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}
