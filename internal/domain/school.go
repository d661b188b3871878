package domain

import (
	"math"
	"time"
)

// PlanType é o tipo de plano contratado pela escola.
type PlanType string

const (
	PlanIndividual PlanType = "individual"
	PlanSchool     PlanType = "school"
)

// Valid informa se o tipo de plano é um dos dois tiers conhecidos.
func (p PlanType) Valid() bool {
	return p == PlanIndividual || p == PlanSchool
}

// PlanStatus é o status do plano. É a "fonte da verdade" para o controle de acesso.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusExpired   PlanStatus = "expired"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// TrialPeriod é a vigência concedida no primeiro pagamento aprovado.
const TrialPeriod = 30 * 24 * time.Hour

// School é a escola (ou professor individual) dona da assinatura.
type School struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	PlanType PlanType   `json:"plan_type"`
	Status   PlanStatus `json:"plan_status"`

	// ID do pagamento que originou a conta no gateway.
	PaymentID string `json:"payment_id"`

	// ID da assinatura recorrente (preapproval). Vazio enquanto não houver assinatura.
	SubscriptionID string `json:"subscription_id,omitempty"`

	NextBillingDate time.Time  `json:"next_billing_date"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`

	// Último par (pagamento, status) aplicado pelo ledger. Usado para tornar
	// reentregas de webhook idempotentes.
	LastEventPaymentID string `json:"-"`
	LastEventStatus    string `json:"-"`

	// Versão da linha, incrementada a cada escrita (controle otimista).
	Version int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired é o predicado canônico de expiração: o plano está expirado quando o
// status é "expired" ou quando a próxima cobrança já passou.
func (s School) IsExpired(now time.Time) bool {
	if s.Status == PlanStatusExpired {
		return true
	}
	return !now.Before(s.NextBillingDate)
}

// HasAccess informa se a escola pode usar as rotas protegidas.
func (s School) HasAccess(now time.Time) bool {
	return s.Status == PlanStatusActive && !s.IsExpired(now)
}

// DaysUntilExpiry arredonda para cima os dias restantes até a próxima cobrança.
// Fica negativo depois do vencimento.
func (s School) DaysUntilExpiry(now time.Time) int {
	days := s.NextBillingDate.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

// AddBillingMonth avança a data em exatamente um mês do calendário. Quando o dia
// não existe no mês seguinte (ex.: 31/01), usa o último dia daquele mês.
func AddBillingMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
