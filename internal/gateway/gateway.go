// Package gateway traduz as cobranças internas para o provedor de pagamentos
// configurado e normaliza as respostas.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// Gateway é o contrato que os serviços usam para falar com o provedor.
type Gateway interface {
	// Provider identifica o provedor no log de eventos ("mercadopago", "stripe").
	Provider() string
	Charge(ctx context.Context, req ChargeRequest) (*Result, error)
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Result, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentEvent, error)
}

// ChargeRequest é uma cobrança avulsa com cartão tokenizado.
type ChargeRequest struct {
	Amount            decimal.Decimal
	Token             string
	Description       string
	Installments      int
	PaymentMethodID   string
	IssuerID          string
	ExternalReference string
	PayerEmail        string
	DocType           string
	DocNumber         string
}

// PreferenceRequest é o objeto de pagamento por redirecionamento.
type PreferenceRequest struct {
	Title             string
	Amount            decimal.Decimal
	PayerEmail        string
	ExternalReference string
}

// SubscriptionRequest é a cobrança mensal recorrente.
type SubscriptionRequest struct {
	Amount            decimal.Decimal
	Reason            string
	PayerEmail        string
	CardTokenID       string
	ExternalReference string
}

// Result é a resposta normalizada de uma cobrança ou assinatura.
type Result struct {
	ExternalID   string
	Status       domain.PaymentStatus
	RawStatus    string
	StatusDetail string
}

type Preference struct {
	ID        string
	InitPoint string
}

// ErrorKind classifica as falhas do provedor.
type ErrorKind string

const (
	KindDeclined    ErrorKind = "declined"
	KindValidation  ErrorKind = "validation"
	KindTimeout     ErrorKind = "timeout"
	KindUnavailable ErrorKind = "unavailable"
)

// Error é a falha de uma chamada ao gateway.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError informa se err veio do gateway.
func IsError(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr)
}

// kindFromHTTPStatus é a classificação comum aos dois provedores.
func kindFromHTTPStatus(code int) ErrorKind {
	switch {
	case code == 402:
		return KindDeclined
	case code >= 400 && code < 500:
		return KindValidation
	default:
		return KindUnavailable
	}
}

func wrapErr(ctx context.Context, op string, kind ErrorKind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
