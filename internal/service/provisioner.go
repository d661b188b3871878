package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/identity"
	"github.com/willjrcristo/eduplan-api/internal/repository"
)

const minPasswordLength = 6

// Provisioner cria a escola, a conta de identidade e o perfil do usuário no
// primeiro pagamento aprovado.
type Provisioner struct {
	store           *repository.Store
	identity        identity.Provider
	identityTimeout time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

func NewProvisioner(store *repository.Store, idp identity.Provider, identityTimeout time.Duration, logger zerolog.Logger) *Provisioner {
	return &Provisioner{
		store:           store,
		identity:        idp,
		identityTimeout: identityTimeout,
		logger:          logger.With().Str("service", "provisioner").Logger(),
		now:             time.Now,
	}
}

// ValidateSignup confere os dados de cadastro antes de qualquer cobrança.
func ValidateSignup(s *domain.Signup) error {
	s.SchoolName = strings.TrimSpace(s.SchoolName)
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))

	switch {
	case s.SchoolName == "":
		return invalid("schoolName", "nome da escola é obrigatório")
	case s.Name == "":
		return invalid("name", "nome é obrigatório")
	case s.Email == "":
		return invalid("email", "e-mail é obrigatório")
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return invalid("email", "e-mail inválido")
	}
	if len(s.Password) < minPasswordLength {
		return invalid("password", fmt.Sprintf("a senha deve ter pelo menos %d caracteres", minPasswordLength))
	}
	if !s.PlanType.Valid() {
		return invalid("planType", ErrInvalidPlan.Error())
	}
	if s.UserType == "" {
		s.UserType = domain.UserProfessor
	}
	if !s.UserType.Valid() {
		return invalid("userType", "tipo de usuário inválido")
	}
	return nil
}

// Provision cria os registros de um cadastro pago. A conta de identidade é
// criada primeiro; escola, usuário e o vínculo da referência externa são
// gravados numa única transação. Se a transação falhar, a conta é removida.
func (p *Provisioner) Provision(ctx context.Context, signup domain.Signup, paymentID, externalReference string) (*domain.School, *domain.User, error) {
	if err := ValidateSignup(&signup); err != nil {
		return nil, nil, err
	}

	now := p.now()
	school := &domain.School{
		ID:              uuid.NewString(),
		Name:            signup.SchoolName,
		PlanType:        signup.PlanType,
		Status:          domain.PlanStatusActive,
		PaymentID:       paymentID,
		NextBillingDate: now.Add(domain.TrialPeriod),
		LastPaymentDate: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	idCtx, cancel := withTimeout(ctx, p.identityTimeout)
	uid, err := p.identity.CreateAccount(idCtx, signup.Email, signup.Password, signup.Name)
	cancel()
	if err != nil {
		return nil, nil, fmt.Errorf("criar conta de identidade: %w", err)
	}

	user := &domain.User{
		ID:        uid,
		Email:     signup.Email,
		Name:      signup.Name,
		UserType:  signup.UserType,
		SchoolID:  school.ID,
		IsActive:  true,
		CreatedAt: now,
	}

	err = p.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Schools.Create(ctx, school); err != nil {
			return err
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		if externalReference != "" {
			return tx.References.LinkSchool(ctx, externalReference, school.ID)
		}
		return nil
	})
	if err != nil {
		p.compensate(uid, err)
		return nil, nil, err
	}

	p.logger.Info().
		Str("school_id", school.ID).
		Str("user_id", user.ID).
		Str("payment_id", paymentID).
		Str("plan_type", string(school.PlanType)).
		Msg("conta provisionada")
	return school, user, nil
}

// compensate desfaz a conta de identidade com um contexto próprio: o da
// requisição pode já ter sido cancelado.
func (p *Provisioner) compensate(uid string, cause error) {
	provisioningCompensationsTotal.Inc()
	ctx, cancel := withTimeout(context.Background(), p.identityTimeout)
	defer cancel()

	if err := p.identity.DeleteAccount(ctx, uid); err != nil {
		p.logger.Error().Err(err).AnErr("cause", cause).Str("uid", uid).Msg("falha ao compensar conta de identidade")
		return
	}
	p.logger.Warn().AnErr("cause", cause).Str("uid", uid).Msg("cadastro desfeito, conta de identidade removida")
}
