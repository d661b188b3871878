package repository

import (
	"context"
	"fmt"
	"time"
)

// WebhookEventRepository é o log de eventos processados. A chave é
// (provedor, pagamento, status): o mesmo pagamento com outro status é um evento novo.
type WebhookEventRepository interface {
	// Claim reserva o evento. Devolve false se outro processamento já o reservou.
	// Reservas nunca concluídas e mais velhas que staleClaimAfter podem ser retomadas.
	Claim(ctx context.Context, provider, paymentID, status string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, provider, paymentID, status, outcome string, now time.Time) error
	// Release desfaz a reserva para que a reentrega do gateway possa reprocessar.
	Release(ctx context.Context, provider, paymentID, status string) error
}

const staleClaimAfter = 5 * time.Minute

type webhookEventRepository struct {
	db DBTX
}

func NewWebhookEventRepository(db DBTX) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Claim(ctx context.Context, provider, paymentID, status string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_events (provider, payment_id, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (provider, payment_id, status) DO UPDATE
		SET created_at = excluded.created_at
		WHERE webhook_events.processed_at IS NULL AND webhook_events.created_at < ?`,
		provider, paymentID, status, now.UTC(), now.Add(-staleClaimAfter).UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("reservar evento %s/%s: %w", paymentID, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, provider, paymentID, status, outcome string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_events SET outcome = ?, processed_at = ?
		WHERE provider = ? AND payment_id = ? AND status = ?`,
		outcome, now.UTC(), provider, paymentID, status,
	)
	return err
}

func (r *webhookEventRepository) Release(ctx context.Context, provider, paymentID, status string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM webhook_events WHERE provider = ? AND payment_id = ? AND status = ? AND processed_at IS NULL",
		provider, paymentID, status)
	return err
}
