package http

import (
	"github.com/shopspring/decimal"

	"github.com/willjrcristo/eduplan-api/internal/gateway"
)

// --- REQUISIÇÕES ---

type userDataRequest struct {
	SchoolName string `json:"schoolName" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	PlanType   string `json:"planType" validate:"required,oneof=individual school"`
	UserType   string `json:"userType" validate:"omitempty,oneof=professor coordenadora diretora admin"`
}

type identificationRequest struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payerRequest struct {
	Email          string                `json:"email" validate:"omitempty,email"`
	Identification identificationRequest `json:"identification"`
}

type paymentDataRequest struct {
	Token             string             `json:"token" validate:"required"`
	TransactionAmount *decimal.Decimal   `json:"transaction_amount"`
	Description       string             `json:"description"`
	Installments      int                `json:"installments" validate:"omitempty,min=1,max=12"`
	PaymentMethodID   string             `json:"payment_method_id"`
	IssuerID          gateway.FlexibleID `json:"issuer_id"`
	Payer             payerRequest       `json:"payer"`
}

// ProcessPaymentRequest é o corpo do POST /api/process-payment.
type ProcessPaymentRequest struct {
	UserData    userDataRequest    `json:"userData"`
	PaymentData paymentDataRequest `json:"paymentData"`
}

// CreateSubscriptionRequest é o corpo do POST /api/create-subscription.
type CreateSubscriptionRequest struct {
	UserID          string `json:"userId" validate:"required"`
	PlanType        string `json:"planType" validate:"required,oneof=individual school"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
}

// CancelSubscriptionRequest é o corpo do POST /api/cancel-subscription.
type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

// LoginRequest é o corpo do POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- RESPOSTAS ---

type ProcessPaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"paymentId"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	SchoolID      string `json:"schoolId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	PreferenceID  string `json:"preferenceId,omitempty"`
	PreferenceURL string `json:"preferenceUrl,omitempty"`
}

type CreateSubscriptionResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
