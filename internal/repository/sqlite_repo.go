package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// ErrConcurrentUpdate indica que a escola mudou entre a leitura e a escrita.
var ErrConcurrentUpdate = errors.New("escola alterada concorrentemente")

// SchoolRepository define as operações de persistência do ledger de assinaturas.
// Todas as escritas são UPDATEs condicionais chaveados por payment_id ou
// subscription_id e devolvem os IDs das escolas afetadas.
type SchoolRepository interface {
	Create(ctx context.Context, school *domain.School) error
	GetByID(ctx context.Context, id string) (*domain.School, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.School, error)
	ApplyPaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus, next domain.PlanStatus, now time.Time) ([]string, error)
	AttachSubscription(ctx context.Context, schoolID, subscriptionID string, planType domain.PlanType, now time.Time) (bool, error)
	CancelBySubscriptionID(ctx context.Context, subscriptionID string, now time.Time) ([]string, error)
	ApplyRenewal(ctx context.Context, prior *domain.School, paymentID string, status domain.PaymentStatus, now time.Time) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// sqliteRepository é a implementação do SchoolRepository para SQLite.
type sqliteRepository struct {
	db DBTX
}

// NewSQLiteRepository cria o repositório de escolas sobre uma conexão ou transação.
func NewSQLiteRepository(db DBTX) SchoolRepository {
	return &sqliteRepository{
		db: db,
	}
}

const schoolColumns = `id, name, plan_type, plan_status, payment_id, subscription_id, next_billing_date,
	last_payment_date, last_event_payment_id, last_event_status, version, created_at, updated_at`

// --- MÉTODOS DA IMPLEMENTAÇÃO ---

func (r *sqliteRepository) Create(ctx context.Context, s *domain.School) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schools (id, name, plan_type, plan_status, payment_id, subscription_id, next_billing_date,
			last_payment_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.PlanType, s.Status, s.PaymentID, nullString(s.SubscriptionID), s.NextBillingDate.UTC(),
		s.LastPaymentDate, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserir escola: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id string) (*domain.School, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+schoolColumns+" FROM schools WHERE id = ?", id)
	return scanSchool(row)
}

func (r *sqliteRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.School, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+schoolColumns+" FROM schools WHERE subscription_id = ?", subscriptionID)
	return scanSchool(row)
}

// ApplyPaymentStatus grava o resultado de um pagamento nas escolas ligadas a ele.
// Não reativa escolas canceladas e ignora o par (pagamento, status) já aplicado.
func (r *sqliteRepository) ApplyPaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus, next domain.PlanStatus, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE schools
		SET plan_status = ?,
			last_payment_date = ?,
			last_event_payment_id = ?,
			last_event_status = ?,
			version = version + 1,
			updated_at = ?
		WHERE payment_id = ?
		  AND plan_status != 'cancelled'
		  AND NOT (last_event_payment_id = ? AND last_event_status = ?)
		RETURNING id`,
		next, now.UTC(), paymentID, status, now.UTC(),
		paymentID, paymentID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("atualizar status do pagamento %s: %w", paymentID, err)
	}
	return collectIDs(rows)
}

// AttachSubscription liga uma assinatura recorrente à escola e a marca como ativa.
// Falha (false) se a escola já tiver outra assinatura ativa. Uma escola com a
// cobrança vencida ganha uma nova vigência a partir de agora.
func (r *sqliteRepository) AttachSubscription(ctx context.Context, schoolID, subscriptionID string, planType domain.PlanType, now time.Time) (bool, error) {
	current, err := r.GetByID(ctx, schoolID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}
	nextBilling := current.NextBillingDate
	if !now.Before(nextBilling) {
		nextBilling = now.Add(domain.TrialPeriod)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE schools
		SET subscription_id = ?,
			plan_type = ?,
			plan_status = 'active',
			next_billing_date = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ?
		  AND version = ?
		  AND (subscription_id IS NULL OR subscription_id = ? OR plan_status != 'active')`,
		subscriptionID, planType, nextBilling.UTC(), now.UTC(),
		schoolID, current.Version, subscriptionID,
	)
	if err != nil {
		return false, fmt.Errorf("salvar assinatura %s: %w", subscriptionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CancelBySubscriptionID marca a escola como cancelada. Chamadas repetidas não
// alteram nada e devolvem lista vazia.
func (r *sqliteRepository) CancelBySubscriptionID(ctx context.Context, subscriptionID string, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE schools
		SET plan_status = 'cancelled',
			version = version + 1,
			updated_at = ?
		WHERE subscription_id = ?
		  AND plan_status != 'cancelled'
		RETURNING id`,
		now.UTC(), subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelar assinatura %s: %w", subscriptionID, err)
	}
	return collectIDs(rows)
}

// ApplyRenewal aplica uma renovação sobre o estado lido em prior. A escrita só
// acontece se a versão ainda for a mesma (controle otimista); caso contrário
// devolve ErrConcurrentUpdate para o chamador reler e tentar de novo.
func (r *sqliteRepository) ApplyRenewal(ctx context.Context, prior *domain.School, paymentID string, status domain.PaymentStatus, now time.Time) ([]string, error) {
	nextBilling := prior.NextBillingDate
	if status == domain.PaymentApproved {
		nextBilling = domain.AddBillingMonth(prior.NextBillingDate)
	}

	rows, err := r.db.QueryContext(ctx, `
		UPDATE schools
		SET plan_status = ?,
			next_billing_date = ?,
			last_payment_date = ?,
			last_event_payment_id = ?,
			last_event_status = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ?
		  AND subscription_id = ?
		  AND version = ?
		RETURNING id`,
		domain.PlanStatusAfterRenewal(status), nextBilling.UTC(), now.UTC(), paymentID, status, now.UTC(),
		prior.ID, prior.SubscriptionID, prior.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("renovar assinatura %s: %w", prior.SubscriptionID, err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrConcurrentUpdate
	}
	return ids, nil
}

// Delete só é usado na compensação de um cadastro que falhou no meio.
func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM schools WHERE id = ?", id)
	return err
}

func scanSchool(row *sql.Row) (*domain.School, error) {
	var (
		s               domain.School
		subscriptionID  sql.NullString
		lastPaymentDate sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Name, &s.PlanType, &s.Status, &s.PaymentID, &subscriptionID, &s.NextBillingDate,
		&lastPaymentDate, &s.LastEventPaymentID, &s.LastEventStatus, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // escola não encontrada
		}
		return nil, err
	}
	s.SubscriptionID = subscriptionID.String
	if lastPaymentDate.Valid {
		t := lastPaymentDate.Time
		s.LastPaymentDate = &t
	}
	return &s, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
