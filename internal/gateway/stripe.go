package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// ErrInvalidSignature indica um webhook cuja assinatura não confere.
var ErrInvalidSignature = errors.New("assinatura do webhook inválida")

const referenceMetadataKey = "external_reference"

// StripeConfig reúne as credenciais e URLs do provedor alternativo.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	ProductID     string
	SuccessURL    string
	CancelURL     string
}

// Stripe implementa o Gateway sobre a API da Stripe. A referência externa viaja
// nos metadados de cada objeto.
type Stripe struct {
	api    *client.API
	cfg    StripeConfig
	logger zerolog.Logger
}

func NewStripe(cfg StripeConfig, logger zerolog.Logger) *Stripe {
	return &Stripe{
		api:    client.New(cfg.SecretKey, nil),
		cfg:    cfg,
		logger: logger.With().Str("service", "stripe").Logger(),
	}
}

func (s *Stripe) Provider() string { return "stripe" }

func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (*Result, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toCents(req.Amount)),
		Currency:           stripe.String(strings.ToLower(domain.Currency)),
		PaymentMethod:      stripe.String(req.Token),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
		ReceiptEmail:       stripe.String(req.PayerEmail),
	}
	params.Context = ctx
	params.AddMetadata(referenceMetadataKey, req.ExternalReference)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, s.classify(ctx, "charge", err)
	}
	s.logger.Info().Str("payment_id", pi.ID).Str("status", string(pi.Status)).Msg("payment intent criado")

	return &Result{
		ExternalID: pi.ID,
		Status:     StripeStatus(pi.Status),
		RawStatus:  string(pi.Status),
	}, nil
}

func (s *Stripe) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(req.PayerEmail),
		ClientReferenceID: stripe.String(req.ExternalReference),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(domain.Currency)),
					UnitAmount: stripe.Int64(toCents(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{referenceMetadataKey: req.ExternalReference},
		},
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, s.classify(ctx, "preference", err)
	}
	return &Preference{ID: sess.ID, InitPoint: sess.URL}, nil
}

// CreateSubscription cria o cliente com o método de pagamento padrão e a
// assinatura mensal com o preço do plano informado inline.
func (s *Stripe) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Result, error) {
	custParams := &stripe.CustomerParams{
		Email:         stripe.String(req.PayerEmail),
		PaymentMethod: stripe.String(req.CardTokenID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(req.CardTokenID),
		},
	}
	custParams.Context = ctx
	cust, err := s.api.Customers.New(custParams)
	if err != nil {
		return nil, s.classify(ctx, "customer", err)
	}

	params := &stripe.SubscriptionParams{
		Customer:    stripe.String(cust.ID),
		Description: stripe.String(req.Reason),
		Items: []*stripe.SubscriptionItemsParams{
			{
				PriceData: &stripe.SubscriptionItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(domain.Currency)),
					Product:    stripe.String(s.cfg.ProductID),
					UnitAmount: stripe.Int64(toCents(req.Amount)),
					Recurring: &stripe.SubscriptionItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(referenceMetadataKey, req.ExternalReference)

	sub, err := s.api.Subscriptions.New(params)
	if err != nil {
		return nil, s.classify(ctx, "subscription", err)
	}
	return &Result{
		ExternalID: sub.ID,
		Status:     StripeSubscriptionStatus(sub.Status),
		RawStatus:  string(sub.Status),
	}, nil
}

func (s *Stripe) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := s.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return s.classify(ctx, "cancel", err)
	}
	return nil
}

// GetPayment busca o PaymentIntent. Cobranças de renovação não carregam os
// metadados próprios: a referência vem da assinatura ligada à fatura.
func (s *Stripe) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentEvent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("invoice.subscription")

	pi, err := s.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return nil, s.classify(ctx, "get_payment", err)
	}

	ref := pi.Metadata[referenceMetadataKey]
	if ref == "" && pi.Invoice != nil && pi.Invoice.Subscription != nil {
		ref = pi.Invoice.Subscription.Metadata[referenceMetadataKey]
	}
	return &domain.PaymentEvent{
		PaymentID:         pi.ID,
		Status:            StripeStatus(pi.Status),
		RawStatus:         string(pi.Status),
		ExternalReference: ref,
	}, nil
}

// ParseWebhook verifica a assinatura do evento e o traduz para uma notificação
// de pagamento. Eventos sem pagamento associado voltam com o tipo original e
// são ignorados pelo reconciliador.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn().Err(err).Msg("assinatura do webhook da stripe não confere")
		return nil, ErrInvalidSignature
	}
	return stripeNotification(event)
}

func stripeNotification(event stripe.Event) (*Notification, error) {
	switch {
	case strings.HasPrefix(string(event.Type), "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decodificar payment intent: %w", err)
		}
		return &Notification{Type: NotificationPayment, PaymentID: pi.ID}, nil

	case event.Type == "invoice.paid" || event.Type == "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decodificar fatura: %w", err)
		}
		// A primeira fatura já é coberta pela criação da assinatura.
		if inv.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate || inv.PaymentIntent == nil {
			return &Notification{Type: string(event.Type)}, nil
		}
		return &Notification{Type: NotificationPayment, PaymentID: inv.PaymentIntent.ID}, nil
	}
	return &Notification{Type: string(event.Type)}, nil
}

func (s *Stripe) classify(ctx context.Context, op string, err error) error {
	kind := KindUnavailable
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard {
			kind = KindDeclined
		} else {
			kind = kindFromHTTPStatus(stripeErr.HTTPStatusCode)
		}
	}
	s.logger.Error().Err(err).Str("op", op).Str("kind", string(kind)).Msg("falha na stripe")
	return wrapErr(ctx, op, kind, err)
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// StripeStatus normaliza o status de um PaymentIntent.
func StripeStatus(status stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentApproved
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}

// StripeSubscriptionStatus normaliza o status de uma assinatura.
func StripeSubscriptionStatus(status stripe.SubscriptionStatus) domain.PaymentStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return domain.PaymentApproved
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired, stripe.SubscriptionStatusUnpaid:
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}
