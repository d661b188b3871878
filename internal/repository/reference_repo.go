package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// ReferenceRepository guarda o tipo de cada referência externa no momento em
// que a transação é criada no gateway.
type ReferenceRepository interface {
	Upsert(ctx context.Context, ref domain.Reference) error
	LinkSchool(ctx context.Context, externalReference, schoolID string) error
	Get(ctx context.Context, externalReference string) (*domain.Reference, error)
}

type referenceRepository struct {
	db DBTX
}

func NewReferenceRepository(db DBTX) ReferenceRepository {
	return &referenceRepository{db: db}
}

// Upsert grava a referência. Uma nova assinatura para o mesmo usuário reaproveita
// a referência e só atualiza a escola e a assinatura.
func (r *referenceRepository) Upsert(ctx context.Context, ref domain.Reference) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gateway_references (external_reference, kind, school_id, subscription_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (external_reference) DO UPDATE
		SET school_id = COALESCE(excluded.school_id, gateway_references.school_id),
			subscription_id = COALESCE(excluded.subscription_id, gateway_references.subscription_id)`,
		ref.ExternalReference, ref.Kind, nullString(ref.SchoolID), nullString(ref.SubscriptionID), ref.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("gravar referência %s: %w", ref.ExternalReference, err)
	}
	return nil
}

func (r *referenceRepository) LinkSchool(ctx context.Context, externalReference, schoolID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE gateway_references SET school_id = ? WHERE external_reference = ?", schoolID, externalReference)
	if err != nil {
		return fmt.Errorf("ligar referência %s à escola: %w", externalReference, err)
	}
	return nil
}

func (r *referenceRepository) Get(ctx context.Context, externalReference string) (*domain.Reference, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT external_reference, kind, school_id, subscription_id, created_at
		FROM gateway_references WHERE external_reference = ?`, externalReference)

	var (
		ref            domain.Reference
		schoolID       sql.NullString
		subscriptionID sql.NullString
	)
	if err := row.Scan(&ref.ExternalReference, &ref.Kind, &schoolID, &subscriptionID, &ref.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ref.SchoolID = schoolID.String
	ref.SubscriptionID = subscriptionID.String
	return &ref, nil
}
