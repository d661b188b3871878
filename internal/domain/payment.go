package domain

// PaymentStatus é o status normalizado de um pagamento no gateway.
type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "approved"
	PaymentPending  PaymentStatus = "pending"
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentEvent é o pagamento já buscado no gateway, depois de uma notificação.
// Não é persistido como entidade própria.
type PaymentEvent struct {
	PaymentID         string        `json:"payment_id"`
	Status            PaymentStatus `json:"status"`
	RawStatus         string        `json:"raw_status"`
	ExternalReference string        `json:"external_reference"`
}

// PlanStatusAfterPayment traduz o status do pagamento para o status do plano.
func PlanStatusAfterPayment(s PaymentStatus) PlanStatus {
	if s == PaymentApproved {
		return PlanStatusActive
	}
	return PlanStatusPending
}

// PlanStatusAfterRenewal é a regra equivalente para renovações de assinatura.
func PlanStatusAfterRenewal(s PaymentStatus) PlanStatus {
	if s == PaymentApproved {
		return PlanStatusActive
	}
	return PlanStatusExpired
}
