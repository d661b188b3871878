package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/cache"
	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/repository"
)

// maxRenewalAttempts limita as releituras quando a renovação perde a corrida
// para outra escrita na mesma escola.
const maxRenewalAttempts = 3

// Ledger é o único ponto que altera status, datas de cobrança e assinatura das
// escolas. Toda escrita efetiva invalida o cache de planos.
type Ledger struct {
	schools   repository.SchoolRepository
	cache     cache.PlanCache
	dbTimeout time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewLedger(schools repository.SchoolRepository, planCache cache.PlanCache, dbTimeout time.Duration, logger zerolog.Logger) *Ledger {
	return &Ledger{
		schools:   schools,
		cache:     planCache,
		dbTimeout: dbTimeout,
		logger:    logger.With().Str("service", "ledger").Logger(),
		now:       time.Now,
	}
}

// UpdatePaymentStatus aplica o resultado de um pagamento às escolas criadas por
// ele: aprovado ativa o plano, qualquer outro status deixa pendente.
func (l *Ledger) UpdatePaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) ([]string, error) {
	ctx, cancel := withTimeout(ctx, l.dbTimeout)
	defer cancel()

	ids, err := l.schools.ApplyPaymentStatus(ctx, paymentID, status, domain.PlanStatusAfterPayment(status), l.now())
	if err != nil {
		return nil, err
	}
	l.written(ctx, "payment_status", ids)
	l.logger.Info().Str("payment_id", paymentID).Str("status", string(status)).Strs("schools", ids).Msg("status de pagamento aplicado")
	return ids, nil
}

// SaveSubscription liga a assinatura recorrente à escola e ativa o plano.
func (l *Ledger) SaveSubscription(ctx context.Context, schoolID, subscriptionID string, planType domain.PlanType) error {
	ctx, cancel := withTimeout(ctx, l.dbTimeout)
	defer cancel()

	ok, err := l.schools.AttachSubscription(ctx, schoolID, subscriptionID, planType, l.now())
	if err != nil {
		return err
	}
	if !ok {
		school, err := l.schools.GetByID(ctx, schoolID)
		if err != nil {
			return err
		}
		if school == nil {
			return ErrSchoolNotFound
		}
		return ErrSubscriptionAlreadyActive
	}
	l.written(ctx, "save_subscription", []string{schoolID})
	l.logger.Info().Str("school_id", schoolID).Str("subscription_id", subscriptionID).Msg("assinatura salva")
	return nil
}

// CancelSubscription marca o plano como cancelado. Cancelar de novo não é erro;
// uma assinatura desconhecida é.
func (l *Ledger) CancelSubscription(ctx context.Context, subscriptionID string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, l.dbTimeout)
	defer cancel()

	ids, err := l.schools.CancelBySubscriptionID(ctx, subscriptionID, l.now())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		school, err := l.schools.GetBySubscriptionID(ctx, subscriptionID)
		if err != nil {
			return nil, err
		}
		if school == nil {
			return nil, ErrSubscriptionNotFound
		}
		return nil, nil
	}
	l.written(ctx, "cancel_subscription", ids)
	l.logger.Info().Str("subscription_id", subscriptionID).Strs("schools", ids).Msg("assinatura cancelada")
	return ids, nil
}

// HandleRenewal aplica a cobrança mensal: aprovada avança a próxima cobrança em
// um mês do calendário e mantém o plano ativo; recusada expira o plano.
func (l *Ledger) HandleRenewal(ctx context.Context, subscriptionID string, payment domain.PaymentEvent) ([]string, error) {
	ctx, cancel := withTimeout(ctx, l.dbTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		school, err := l.schools.GetBySubscriptionID(ctx, subscriptionID)
		if err != nil {
			return nil, err
		}
		if school == nil {
			return nil, ErrSubscriptionNotFound
		}
		if school.LastEventPaymentID == payment.PaymentID && school.LastEventStatus == string(payment.Status) {
			l.logger.Debug().Str("payment_id", payment.PaymentID).Msg("renovação já aplicada")
			return nil, nil
		}

		ids, err := l.schools.ApplyRenewal(ctx, school, payment.PaymentID, payment.Status, l.now())
		if errors.Is(err, repository.ErrConcurrentUpdate) && attempt < maxRenewalAttempts {
			l.logger.Warn().Str("subscription_id", subscriptionID).Int("attempt", attempt).Msg("escola alterada durante a renovação, relendo")
			continue
		}
		if err != nil {
			return nil, err
		}
		l.written(ctx, "renewal", ids)
		l.logger.Info().
			Str("subscription_id", subscriptionID).
			Str("payment_id", payment.PaymentID).
			Str("status", string(payment.Status)).
			Msg("renovação aplicada")
		return ids, nil
	}
}

func (l *Ledger) written(ctx context.Context, operation string, ids []string) {
	if len(ids) == 0 {
		return
	}
	ledgerWritesTotal.WithLabelValues(operation).Inc()
	if err := l.cache.Invalidate(ctx, ids...); err != nil {
		l.logger.Error().Err(err).Strs("schools", ids).Msg("falha ao invalidar cache de planos")
	}
}
