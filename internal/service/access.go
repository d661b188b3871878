package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/cache"
	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/identity"
	"github.com/willjrcristo/eduplan-api/internal/repository"
)

// Principal é quem está por trás de uma requisição autorizada.
type Principal struct {
	User   *domain.User
	School *domain.School
}

// AccessService decide se um token dá acesso às rotas protegidas.
type AccessService struct {
	identity        identity.Provider
	users           repository.UserRepository
	schools         repository.SchoolRepository
	cache           cache.PlanCache
	identityTimeout time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

func NewAccessService(idp identity.Provider, store *repository.Store, planCache cache.PlanCache, identityTimeout time.Duration, logger zerolog.Logger) *AccessService {
	return &AccessService{
		identity:        idp,
		users:           store.Users,
		schools:         store.Schools,
		cache:           planCache,
		identityTimeout: identityTimeout,
		logger:          logger.With().Str("service", "access").Logger(),
		now:             time.Now,
	}
}

// Authorize devolve ErrUnauthenticated para token ausente ou inválido e
// ErrPlanInactive quando o usuário não tem escola com plano vigente.
func (a *AccessService) Authorize(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		accessDecisionsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, ErrUnauthenticated
	}

	idCtx, cancel := withTimeout(ctx, a.identityTimeout)
	account, err := a.identity.VerifyToken(idCtx, token)
	cancel()
	if err != nil {
		accessDecisionsTotal.WithLabelValues("unauthenticated").Inc()
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	user, err := a.users.GetByID(ctx, account.UID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		accessDecisionsTotal.WithLabelValues("forbidden").Inc()
		return nil, ErrPlanInactive
	}

	school, err := a.school(ctx, user.SchoolID)
	if err != nil {
		return nil, err
	}
	if school == nil || !school.HasAccess(a.now()) {
		accessDecisionsTotal.WithLabelValues("forbidden").Inc()
		return nil, ErrPlanInactive
	}

	accessDecisionsTotal.WithLabelValues("allowed").Inc()
	return &Principal{User: user, School: school}, nil
}

// school lê pelo cache e cai no banco quando a chave não existe. Falha do cache
// não bloqueia o acesso.
func (a *AccessService) school(ctx context.Context, schoolID string) (*domain.School, error) {
	cached, err := a.cache.Get(ctx, schoolID)
	if err != nil {
		a.logger.Warn().Err(err).Str("school_id", schoolID).Msg("cache de planos indisponível")
	}
	if cached != nil {
		return cached, nil
	}

	school, err := a.schools.GetByID(ctx, schoolID)
	if err != nil || school == nil {
		return school, err
	}
	if err := a.cache.Set(ctx, school); err != nil {
		a.logger.Warn().Err(err).Str("school_id", schoolID).Msg("falha ao gravar cache de planos")
	}
	return school, nil
}
