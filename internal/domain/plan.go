package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Currency é a moeda de todas as cobranças.
const Currency = "BRL"

// ErrInvalidPlanType é retornado para qualquer plano fora dos dois tiers.
var ErrInvalidPlanType = errors.New("tipo de plano inválido")

var monthlyPrices = map[PlanType]decimal.Decimal{
	PlanIndividual: decimal.RequireFromString("19.90"),
	PlanSchool:     decimal.RequireFromString("199.00"),
}

// MonthlyPrice devolve o valor mensal do plano. Planos desconhecidos nunca são
// precificados.
func MonthlyPrice(p PlanType) (decimal.Decimal, error) {
	price, ok := monthlyPrices[p]
	if !ok {
		return decimal.Zero, ErrInvalidPlanType
	}
	return price, nil
}

// PlanReason é a descrição da assinatura exibida pelo gateway.
func PlanReason(p PlanType) string {
	if p == PlanIndividual {
		return "EduPlan - Plano Individual"
	}
	return "EduPlan - Plano Escola"
}
