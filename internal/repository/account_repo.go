package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LocalAccount é a credencial guardada pelo provedor de identidade local.
type LocalAccount struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// AccountRepository persiste as contas do provedor de identidade local.
type AccountRepository interface {
	Create(ctx context.Context, a LocalAccount) error
	GetByEmail(ctx context.Context, email string) (*LocalAccount, error)
	GetByID(ctx context.Context, id string) (*LocalAccount, error)
	Delete(ctx context.Context, id string) error
}

type accountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a LocalAccount) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO local_accounts (id, email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.Email, a.PasswordHash, a.DisplayName, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserir conta local: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*LocalAccount, error) {
	return r.get(ctx, "email", email)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*LocalAccount, error) {
	return r.get(ctx, "id", id)
}

func (r *accountRepository) get(ctx context.Context, column, value string) (*LocalAccount, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, display_name, created_at FROM local_accounts WHERE "+column+" = ?", value)

	var a LocalAccount
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM local_accounts WHERE id = ?", id)
	return err
}
