// Package identity isola o provedor de identidade (Firebase Auth ou contas
// locais) atrás de um contrato mínimo.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken       = errors.New("token inválido ou expirado")
	ErrEmailTaken         = errors.New("e-mail já cadastrado")
	ErrInvalidCredentials = errors.New("e-mail ou senha inválidos")
)

// Account é a identidade autenticada por trás de um token.
type Account struct {
	UID   string
	Email string
}

// Provider cria e remove contas e valida tokens de acesso.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (*Account, error)
}
