package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// UserRepository define a persistência dos perfis de usuário.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, user_type, school_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.UserType, u.SchoolID, u.IsActive, u.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserir usuário: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, email, name, user_type, school_id, is_active, created_at FROM users WHERE id = ?", id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.UserType, &u.SchoolID, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
