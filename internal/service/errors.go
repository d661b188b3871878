package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// Erros de negócio do fluxo de cobrança.
var (
	ErrUserNotFound              = errors.New("usuário não encontrado")
	ErrSchoolNotFound            = errors.New("escola não encontrada")
	ErrSubscriptionNotFound      = errors.New("assinatura não encontrada")
	ErrSubscriptionAlreadyActive = errors.New("escola já possui uma assinatura ativa")
	ErrInvalidPlan               = domain.ErrInvalidPlanType
	ErrUnauthenticated           = errors.New("autenticação necessária")
	ErrPlanInactive              = errors.New("plano inativo ou expirado")
)

// ValidationError é um dado de entrada rejeitado. Vira HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation informa se err é (ou embrulha) um ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// withTimeout aplica o limite só quando ele foi configurado.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
