package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/willjrcristo/eduplan-api/internal/repository"
)

// Claims são as declarações do token emitido pelo provedor local.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Local guarda as contas no próprio banco e emite JWTs HS256.
// Serve para desenvolvimento e testes, sem depender do Firebase.
type Local struct {
	accounts repository.AccountRepository
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

func NewLocal(accounts repository.AccountRepository, secret, issuer string, ttl time.Duration) *Local {
	return &Local{
		accounts: accounts,
		secret:   []byte(secret),
		issuer:   issuer,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (l *Local) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := l.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("gerar hash da senha: %w", err)
	}
	uid := uuid.NewString()
	err = l.accounts.Create(ctx, repository.LocalAccount{
		ID:           uid,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    l.now(),
	})
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (l *Local) DeleteAccount(ctx context.Context, uid string) error {
	return l.accounts.Delete(ctx, uid)
}

// Login confere a senha e devolve um token de acesso.
func (l *Local) Login(ctx context.Context, email, password string) (string, error) {
	acc, err := l.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if acc == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return l.issue(acc.ID, acc.Email)
}

func (l *Local) issue(uid, email string) (string, error) {
	now := l.now().UTC()
	claims := Claims{
		UserID: uid,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    l.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
}

func (l *Local) VerifyToken(ctx context.Context, token string) (*Account, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(l.issuer),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return &Account{UID: claims.UserID, Email: claims.Email}, nil
}
