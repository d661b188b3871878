package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/gateway"
	"github.com/willjrcristo/eduplan-api/internal/repository"
)

// Outcome é o resultado do processamento de uma notificação.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeApplied   Outcome = "applied"
	OutcomeRenewed   Outcome = "renewed"
	OutcomeUnmatched Outcome = "unmatched"
)

// Reconciler consome as notificações do gateway e conduz as transições do ledger.
type Reconciler struct {
	gateway        gateway.Gateway
	ledger         *Ledger
	events         repository.WebhookEventRepository
	references     repository.ReferenceRepository
	users          repository.UserRepository
	schools        repository.SchoolRepository
	gatewayTimeout time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

func NewReconciler(gw gateway.Gateway, ledger *Ledger, store *repository.Store, gatewayTimeout time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		gateway:        gw,
		ledger:         ledger,
		events:         store.Events,
		references:     store.References,
		users:          store.Users,
		schools:        store.Schools,
		gatewayTimeout: gatewayTimeout,
		logger:         logger.With().Str("service", "reconciler").Logger(),
		now:            time.Now,
	}
}

// Reconcile processa uma notificação. O conteúdo dela não é confiável: o
// pagamento é sempre buscado de novo no gateway. Um erro devolvido significa
// que a notificação deve ser reentregue; a reserva do evento é desfeita.
func (r *Reconciler) Reconcile(ctx context.Context, n gateway.Notification) (Outcome, error) {
	provider := r.gateway.Provider()
	if n.Type != gateway.NotificationPayment {
		r.logger.Debug().Str("type", n.Type).Msg("notificação ignorada")
		webhookEventsTotal.WithLabelValues(provider, string(OutcomeIgnored)).Inc()
		return OutcomeIgnored, nil
	}

	gwCtx, cancel := withTimeout(ctx, r.gatewayTimeout)
	payment, err := r.gateway.GetPayment(gwCtx, n.PaymentID)
	cancel()
	if err != nil {
		return "", fmt.Errorf("buscar pagamento %s: %w", n.PaymentID, err)
	}

	log := r.logger.With().
		Str("payment_id", payment.PaymentID).
		Str("status", string(payment.Status)).
		Str("external_reference", payment.ExternalReference).
		Logger()

	claimed, err := r.events.Claim(ctx, provider, payment.PaymentID, string(payment.Status), r.now())
	if err != nil {
		return "", err
	}
	if !claimed {
		log.Info().Msg("notificação duplicada")
		webhookEventsTotal.WithLabelValues(provider, string(OutcomeDuplicate)).Inc()
		return OutcomeDuplicate, nil
	}

	outcome, err := r.apply(ctx, *payment)
	if err != nil {
		if relErr := r.events.Release(context.WithoutCancel(ctx), provider, payment.PaymentID, string(payment.Status)); relErr != nil {
			log.Error().Err(relErr).Msg("falha ao liberar evento")
		}
		return "", err
	}

	if err := r.events.MarkProcessed(ctx, provider, payment.PaymentID, string(payment.Status), string(outcome), r.now()); err != nil {
		log.Error().Err(err).Msg("falha ao marcar evento como processado")
	}
	webhookEventsTotal.WithLabelValues(provider, string(outcome)).Inc()
	log.Info().Str("outcome", string(outcome)).Msg("notificação processada")
	return outcome, nil
}

func (r *Reconciler) apply(ctx context.Context, payment domain.PaymentEvent) (Outcome, error) {
	ids, err := r.ledger.UpdatePaymentStatus(ctx, payment.PaymentID, payment.Status)
	if err != nil {
		return "", err
	}

	kind, subscriptionID, err := r.resolveReference(ctx, payment.ExternalReference)
	if err != nil {
		return "", err
	}
	if kind != domain.ReferenceSubscription {
		if len(ids) == 0 {
			return OutcomeUnmatched, nil
		}
		return OutcomeApplied, nil
	}

	if subscriptionID == "" {
		r.logger.Warn().Str("external_reference", payment.ExternalReference).Msg("renovação sem assinatura vinculada")
		return OutcomeUnmatched, nil
	}
	_, err = r.ledger.HandleRenewal(ctx, subscriptionID, payment)
	if errors.Is(err, ErrSubscriptionNotFound) {
		r.logger.Warn().Str("subscription_id", subscriptionID).Msg("renovação para assinatura desconhecida")
		return OutcomeUnmatched, nil
	}
	if err != nil {
		return "", err
	}
	return OutcomeRenewed, nil
}

// resolveReference descobre o tipo da referência e, para assinaturas, o ID
// dela. O tipo gravado na criação tem precedência; referências antigas caem
// no prefixo ("subscription_<userId>").
func (r *Reconciler) resolveReference(ctx context.Context, externalReference string) (domain.ReferenceKind, string, error) {
	if externalReference == "" {
		return domain.ReferenceOneOff, "", nil
	}
	ref, err := r.references.Get(ctx, externalReference)
	if err != nil {
		return "", "", err
	}
	if ref != nil {
		return ref.Kind, ref.SubscriptionID, nil
	}

	kind, suffix, err := domain.ParseReference(externalReference)
	if err != nil {
		r.logger.Warn().Str("external_reference", externalReference).Msg("referência externa desconhecida")
		return domain.ReferenceOneOff, "", nil
	}
	if kind != domain.ReferenceSubscription {
		return kind, "", nil
	}

	user, err := r.users.GetByID(ctx, suffix)
	if err != nil || user == nil {
		return kind, "", err
	}
	school, err := r.schools.GetByID(ctx, user.SchoolID)
	if err != nil || school == nil {
		return kind, "", err
	}
	return kind, school.SubscriptionID, nil
}
