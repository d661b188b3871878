package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/service"
)

// AccessAuthorizer decide se o portador do token pode usar as rotas protegidas.
type AccessAuthorizer interface {
	Authorize(ctx context.Context, token string) (*service.Principal, error)
}

type principalKey struct{}

// PrincipalFrom devolve o usuário autorizado pelo RequirePlan.
func PrincipalFrom(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*service.Principal)
	return p, ok
}

// RequirePlan só deixa passar quem tem token válido e plano vigente:
// 401 sem token válido, 403 com plano vencido ou cancelado.
func RequirePlan(authorizer AccessAuthorizer, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authorizer.Authorize(r.Context(), bearerToken(r))
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
			case errors.Is(err, service.ErrUnauthenticated):
				respondWithJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "Token ausente ou inválido"})
			case errors.Is(err, service.ErrPlanInactive):
				respondWithJSON(w, http.StatusForbidden, ErrorResponse{Error: "plan_inactive", Message: "Plano inativo ou expirado"})
			default:
				logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("falha ao autorizar requisição")
				respondWithError(w, http.StatusInternalServerError, "Erro interno do servidor")
			}
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequestLogger registra cada requisição no logger da aplicação.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("requisição atendida")
		})
	}
}
