package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/gateway"
	"github.com/willjrcristo/eduplan-api/internal/identity"
	"github.com/willjrcristo/eduplan-api/internal/service"
)

// BillingService é o que o handler precisa da camada de serviço. Depender da
// interface permite testar o handler com um mock.
type BillingService interface {
	ProcessPayment(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error)
	CreateSubscription(ctx context.Context, req service.SubscriptionRequest) (*service.SubscriptionResult, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	GetPlanStatus(ctx context.Context, userID string) (*service.PlanStatus, error)
}

// BillingHandler atende as rotas de cobrança sob /api.
type BillingHandler struct {
	service  BillingService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewBillingHandler(s BillingService, v *validator.Validate, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		service:  s,
		validate: v,
		logger:   logger.With().Str("handler", "billing").Logger(),
	}
}

// Routes define as rotas que este handler gerencia.
func (h *BillingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/process-payment", h.ProcessPayment)
	r.Post("/create-subscription", h.CreateSubscription)
	r.Post("/cancel-subscription", h.CancelSubscription)
	r.Get("/plan-status/{userId}", h.GetPlanStatus)

	return r
}

// @Summary      Processa o primeiro pagamento e cria a conta
// @Description  Cobra o primeiro mês do plano e, se aprovado, cria escola e usuário
// @Tags         pagamentos
// @Accept       json
// @Produce      json
// @Param        body  body      ProcessPaymentRequest  true  "Cadastro e dados do cartão"
// @Success      200   {object}  ProcessPaymentResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      402   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/process-payment [post]
func (h *BillingHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req ProcessPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.ProcessPayment(r.Context(), service.PaymentRequest{
		Signup: domain.Signup{
			SchoolName: req.UserData.SchoolName,
			Name:       req.UserData.Name,
			Email:      req.UserData.Email,
			Password:   req.UserData.Password,
			PlanType:   domain.PlanType(req.UserData.PlanType),
			UserType:   domain.UserType(req.UserData.UserType),
		},
		Token:           req.PaymentData.Token,
		PaymentMethodID: req.PaymentData.PaymentMethodID,
		IssuerID:        string(req.PaymentData.IssuerID),
		Installments:    req.PaymentData.Installments,
		DocType:         req.PaymentData.Payer.Identification.Type,
		DocNumber:       req.PaymentData.Payer.Identification.Number,
		PayerEmail:      req.PaymentData.Payer.Email,
		Amount:          req.PaymentData.TransactionAmount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if res.Status != domain.PaymentApproved {
		respondWithJSON(w, http.StatusOK, ProcessPaymentResponse{
			Success:       false,
			PaymentID:     res.PaymentID,
			Status:        res.RawStatus,
			Message:       "Pagamento não aprovado",
			PreferenceID:  res.PreferenceID,
			PreferenceURL: res.PreferenceURL,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, ProcessPaymentResponse{
		Success:       true,
		PaymentID:     res.PaymentID,
		Status:        res.RawStatus,
		SchoolID:      res.School.ID,
		UserID:        res.User.ID,
		PreferenceID:  res.PreferenceID,
		PreferenceURL: res.PreferenceURL,
	})
}

// @Summary      Cria a assinatura mensal
// @Description  Cria a cobrança recorrente para a escola do usuário
// @Tags         assinaturas
// @Accept       json
// @Produce      json
// @Param        body  body      CreateSubscriptionRequest  true  "Usuário, plano e cartão"
// @Success      200   {object}  CreateSubscriptionResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      402   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/create-subscription [post]
func (h *BillingHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.CreateSubscription(r.Context(), service.SubscriptionRequest{
		UserID:          req.UserID,
		PlanType:        domain.PlanType(req.PlanType),
		PaymentMethodID: req.PaymentMethodID,
		Email:           req.Email,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, CreateSubscriptionResponse{
		Success:        res.Status != domain.PaymentRejected,
		SubscriptionID: res.SubscriptionID,
		Status:         res.RawStatus,
	})
}

// @Summary      Cancela a assinatura
// @Tags         assinaturas
// @Accept       json
// @Produce      json
// @Param        body  body      CancelSubscriptionRequest  true  "ID da assinatura"
// @Success      200   {object}  SuccessResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/cancel-subscription [post]
func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req CancelSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.CancelSubscription(r.Context(), req.SubscriptionID); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// @Summary      Consulta o plano do usuário
// @Description  Tipo, status, próxima cobrança e se o plano está expirado
// @Tags         assinaturas
// @Produce      json
// @Param        userId  path      string  true  "ID do usuário"
// @Success      200     {object}  service.PlanStatus
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /api/plan-status/{userId} [get]
func (h *BillingHandler) GetPlanStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetPlanStatus(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// decode lê e valida o corpo. Devolve false depois de já ter respondido 400.
func (h *BillingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeAndValidate(w, r, h.validate, dst)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return false
	}
	if err := v.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Dados inválidos: "+err.Error())
		return false
	}
	return true
}

// writeError traduz os erros do serviço para status HTTP.
func (h *BillingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var gwErr *gateway.Error
	switch {
	case service.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSchoolNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSubscriptionAlreadyActive),
		errors.Is(err, identity.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &gwErr):
		h.logger.Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("falha no gateway de pagamento")
		respondWithJSON(w, http.StatusPaymentRequired, ErrorResponse{
			Success: false,
			Error:   string(gwErr.Kind),
			Message: gatewayMessage(gwErr.Kind),
		})
	default:
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("erro interno")
		respondWithError(w, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

func gatewayMessage(kind gateway.ErrorKind) string {
	switch kind {
	case gateway.KindDeclined:
		return "Pagamento recusado"
	case gateway.KindValidation:
		return "Dados de pagamento inválidos"
	case gateway.KindTimeout:
		return "O gateway de pagamento não respondeu a tempo"
	default:
		return "Gateway de pagamento indisponível"
	}
}

// --- FUNÇÕES AUXILIARES ---

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Success: false, Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
