package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/gateway"
	"github.com/willjrcristo/eduplan-api/internal/repository"
)

// PaymentRequest é o cadastro com o primeiro pagamento.
type PaymentRequest struct {
	Signup          domain.Signup
	Token           string
	PaymentMethodID string
	IssuerID        string
	Installments    int
	DocType         string
	DocNumber       string
	// PayerEmail é o e-mail do titular do cartão; vazio usa o do cadastro.
	PayerEmail string
	// Amount é opcional. Se vier, precisa bater com o preço do plano.
	Amount *decimal.Decimal
}

// PaymentResult é a resposta do process-payment.
type PaymentResult struct {
	PaymentID     string
	Status        domain.PaymentStatus
	RawStatus     string
	StatusDetail  string
	School        *domain.School
	User          *domain.User
	PreferenceID  string
	PreferenceURL string
}

// SubscriptionRequest é o pedido de assinatura recorrente de um usuário existente.
type SubscriptionRequest struct {
	UserID          string
	PlanType        domain.PlanType
	PaymentMethodID string
	Email           string
}

// SubscriptionResult é a resposta do create-subscription.
type SubscriptionResult struct {
	SubscriptionID string
	Status         domain.PaymentStatus
	RawStatus      string
}

// PlanStatus é a visão do plano exibida no painel.
type PlanStatus struct {
	PlanType        domain.PlanType   `json:"planType"`
	PlanStatus      domain.PlanStatus `json:"planStatus"`
	NextBillingDate time.Time         `json:"nextBillingDate"`
	DaysUntilExpiry int               `json:"daysUntilExpiry"`
	IsExpired       bool              `json:"isExpired"`
}

// BillingService orquestra cobranças, assinaturas e consultas de plano.
type BillingService struct {
	gateway        gateway.Gateway
	provisioner    *Provisioner
	ledger         *Ledger
	store          *repository.Store
	gatewayTimeout time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

func NewBillingService(gw gateway.Gateway, provisioner *Provisioner, ledger *Ledger, store *repository.Store, gatewayTimeout time.Duration, logger zerolog.Logger) *BillingService {
	return &BillingService{
		gateway:        gw,
		provisioner:    provisioner,
		ledger:         ledger,
		store:          store,
		gatewayTimeout: gatewayTimeout,
		logger:         logger.With().Str("service", "billing").Logger(),
		now:            time.Now,
	}
}

// ProcessPayment cobra o primeiro mês e, se aprovado, provisiona a conta.
// A preferência de checkout é criada em paralelo; falha nela não impede a cobrança.
func (s *BillingService) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := ValidateSignup(&req.Signup); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, invalid("token", "token do cartão é obrigatório")
	}
	price, err := domain.MonthlyPrice(req.Signup.PlanType)
	if err != nil {
		return nil, invalid("planType", err.Error())
	}
	if req.Amount != nil && !req.Amount.Equal(price) {
		return nil, invalid("transactionAmount", "valor não corresponde ao preço do plano")
	}

	payer := strings.TrimSpace(req.PayerEmail)
	if payer == "" {
		payer = req.Signup.Email
	}

	ref := domain.NewOneOffReference(s.now())
	err = s.store.References.Upsert(ctx, domain.Reference{
		ExternalReference: ref,
		Kind:              domain.ReferenceOneOff,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := withTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	var (
		g      errgroup.Group
		charge *gateway.Result
		pref   *gateway.Preference
	)
	g.Go(func() error {
		var err error
		charge, err = s.gateway.Charge(gwCtx, gateway.ChargeRequest{
			Amount:            price,
			Token:             req.Token,
			Description:       domain.PlanReason(req.Signup.PlanType),
			Installments:      req.Installments,
			PaymentMethodID:   req.PaymentMethodID,
			IssuerID:          req.IssuerID,
			ExternalReference: ref,
			PayerEmail:        payer,
			DocType:           req.DocType,
			DocNumber:         req.DocNumber,
		})
		return err
	})
	g.Go(func() error {
		p, err := s.gateway.CreatePreference(gwCtx, gateway.PreferenceRequest{
			Title:             domain.PlanReason(req.Signup.PlanType),
			Amount:            price,
			PayerEmail:        payer,
			ExternalReference: ref,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("external_reference", ref).Msg("preferência não criada, seguindo com a cobrança")
			return nil
		}
		pref = p
		return nil
	})
	if err := g.Wait(); err != nil {
		paymentsTotal.WithLabelValues(s.gateway.Provider(), "error").Inc()
		return nil, err
	}
	paymentsTotal.WithLabelValues(s.gateway.Provider(), string(charge.Status)).Inc()

	result := &PaymentResult{
		PaymentID:    charge.ExternalID,
		Status:       charge.Status,
		RawStatus:    charge.RawStatus,
		StatusDetail: charge.StatusDetail,
	}
	if pref != nil {
		result.PreferenceID = pref.ID
		result.PreferenceURL = pref.InitPoint
	}
	if charge.Status != domain.PaymentApproved {
		s.logger.Info().Str("payment_id", charge.ExternalID).Str("status", charge.RawStatus).Msg("pagamento não aprovado, conta não criada")
		return result, nil
	}

	school, user, err := s.provisioner.Provision(ctx, req.Signup, charge.ExternalID, ref)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_id", charge.ExternalID).Msg("pagamento aprovado mas o cadastro falhou")
		return nil, err
	}
	result.School = school
	result.User = user
	return result, nil
}

// CreateSubscription cria a cobrança recorrente para a escola do usuário.
func (s *BillingService) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error) {
	price, err := domain.MonthlyPrice(req.PlanType)
	if err != nil {
		return nil, invalid("planType", err.Error())
	}
	if strings.TrimSpace(req.PaymentMethodID) == "" {
		return nil, invalid("paymentMethodId", "método de pagamento é obrigatório")
	}

	user, err := s.store.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	school, err := s.store.Schools.GetByID(ctx, user.SchoolID)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, ErrSchoolNotFound
	}
	if school.SubscriptionID != "" && school.Status == domain.PlanStatusActive {
		return nil, ErrSubscriptionAlreadyActive
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}
	ref := domain.NewSubscriptionReference(user.ID)
	err = s.store.References.Upsert(ctx, domain.Reference{
		ExternalReference: ref,
		Kind:              domain.ReferenceSubscription,
		SchoolID:          school.ID,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := withTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	sub, err := s.gateway.CreateSubscription(gwCtx, gateway.SubscriptionRequest{
		Amount:            price,
		Reason:            domain.PlanReason(req.PlanType),
		PayerEmail:        email,
		CardTokenID:       req.PaymentMethodID,
		ExternalReference: ref,
	})
	if err != nil {
		return nil, err
	}
	result := &SubscriptionResult{SubscriptionID: sub.ExternalID, Status: sub.Status, RawStatus: sub.RawStatus}
	if sub.Status == domain.PaymentRejected {
		s.logger.Info().Str("subscription_id", sub.ExternalID).Str("status", sub.RawStatus).Msg("assinatura recusada pelo gateway")
		return result, nil
	}

	if err := s.ledger.SaveSubscription(ctx, school.ID, sub.ExternalID, req.PlanType); err != nil {
		if errors.Is(err, ErrSubscriptionAlreadyActive) {
			// Outra assinatura venceu a corrida: a recém-criada não pode ficar cobrando.
			s.cancelOrphan(ctx, sub.ExternalID)
		}
		return nil, err
	}
	err = s.store.References.Upsert(ctx, domain.Reference{
		ExternalReference: ref,
		Kind:              domain.ReferenceSubscription,
		SchoolID:          school.ID,
		SubscriptionID:    sub.ExternalID,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BillingService) cancelOrphan(ctx context.Context, subscriptionID string) {
	gwCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.gatewayTimeout)
	defer cancel()
	if err := s.gateway.CancelSubscription(gwCtx, subscriptionID); err != nil {
		s.logger.Error().Err(err).Str("subscription_id", subscriptionID).Msg("falha ao cancelar assinatura órfã")
	}
}

// CancelSubscription cancela no gateway e marca o plano como cancelado.
// Uma assinatura já cancelada localmente não é enviada de novo ao gateway.
func (s *BillingService) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if strings.TrimSpace(subscriptionID) == "" {
		return invalid("subscriptionId", "ID da assinatura é obrigatório")
	}
	school, err := s.store.Schools.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if school == nil {
		return ErrSubscriptionNotFound
	}
	if school.Status == domain.PlanStatusCancelled {
		return nil
	}

	gwCtx, cancel := withTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	if err := s.gateway.CancelSubscription(gwCtx, subscriptionID); err != nil {
		return err
	}
	_, err = s.ledger.CancelSubscription(ctx, subscriptionID)
	return err
}

// GetPlanStatus devolve o plano da escola do usuário.
func (s *BillingService) GetPlanStatus(ctx context.Context, userID string) (*PlanStatus, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	school, err := s.store.Schools.GetByID(ctx, user.SchoolID)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, ErrSchoolNotFound
	}

	now := s.now()
	return &PlanStatus{
		PlanType:        school.PlanType,
		PlanStatus:      school.Status,
		NextBillingDate: school.NextBillingDate,
		DaysUntilExpiry: school.DaysUntilExpiry(now),
		IsExpired:       school.IsExpired(now),
	}, nil
}
