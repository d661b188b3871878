package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/identity"
)

// LoginService emite tokens para o provedor de identidade local.
type LoginService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	login    LoginService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAuthHandler(login LoginService, v *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		login:    login,
		validate: v,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

// @Summary      Login com e-mail e senha
// @Description  Disponível apenas com IDENTITY_PROVIDER=local
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credenciais"
// @Success      200   {object}  LoginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	token, err := h.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "E-mail ou senha inválidos")
			return
		}
		h.logger.Error().Err(err).Msg("erro no login")
		respondWithError(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	respondWithJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// ProtectedRoutes monta as rotas que exigem plano vigente.
func ProtectedRoutes(authorizer AccessAuthorizer, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequirePlan(authorizer, logger))
	r.Get("/me", Me)
	return r
}

type meResponse struct {
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	UserType        string `json:"userType"`
	SchoolID        string `json:"schoolId"`
	SchoolName      string `json:"schoolName"`
	PlanType        string `json:"planType"`
	PlanStatus      string `json:"planStatus"`
	NextBillingDate string `json:"nextBillingDate"`
}

// @Summary      Dados do usuário autenticado
// @Tags         protected
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/protected/me [get]
func Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Token ausente ou inválido"})
		return
	}
	respondWithJSON(w, http.StatusOK, meResponse{
		UserID:          p.User.ID,
		Name:            p.User.Name,
		Email:           p.User.Email,
		UserType:        string(p.User.UserType),
		SchoolID:        p.School.ID,
		SchoolName:      p.School.Name,
		PlanType:        string(p.School.PlanType),
		PlanStatus:      string(p.School.Status),
		NextBillingDate: p.School.NextBillingDate.Format("2006-01-02"),
	})
}
