package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willjrcristo/eduplan-api/internal/domain"
	"github.com/willjrcristo/eduplan-api/internal/gateway"
	"github.com/willjrcristo/eduplan-api/internal/identity"
	"github.com/willjrcristo/eduplan-api/internal/service"
)

// --- Mocks ---

type MockBillingService struct {
	ProcessPaymentFn     func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error)
	CreateSubscriptionFn func(ctx context.Context, req service.SubscriptionRequest) (*service.SubscriptionResult, error)
	CancelSubscriptionFn func(ctx context.Context, subscriptionID string) error
	GetPlanStatusFn      func(ctx context.Context, userID string) (*service.PlanStatus, error)
}

func (m *MockBillingService) ProcessPayment(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
	return m.ProcessPaymentFn(ctx, req)
}

func (m *MockBillingService) CreateSubscription(ctx context.Context, req service.SubscriptionRequest) (*service.SubscriptionResult, error) {
	return m.CreateSubscriptionFn(ctx, req)
}

func (m *MockBillingService) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return m.CancelSubscriptionFn(ctx, subscriptionID)
}

func (m *MockBillingService) GetPlanStatus(ctx context.Context, userID string) (*service.PlanStatus, error) {
	return m.GetPlanStatusFn(ctx, userID)
}

type MockReconciler struct {
	ReconcileFn func(ctx context.Context, n gateway.Notification) (service.Outcome, error)
}

func (m *MockReconciler) Reconcile(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
	return m.ReconcileFn(ctx, n)
}

type MockStripeParser struct {
	ParseWebhookFn func(payload []byte, signature string) (*gateway.Notification, error)
}

func (m *MockStripeParser) ParseWebhook(payload []byte, signature string) (*gateway.Notification, error) {
	return m.ParseWebhookFn(payload, signature)
}

type MockAuthorizer struct {
	AuthorizeFn func(ctx context.Context, token string) (*service.Principal, error)
}

func (m *MockAuthorizer) Authorize(ctx context.Context, token string) (*service.Principal, error) {
	return m.AuthorizeFn(ctx, token)
}

type MockLogin struct {
	LoginFn func(ctx context.Context, email, password string) (string, error)
}

func (m *MockLogin) Login(ctx context.Context, email, password string) (string, error) {
	return m.LoginFn(ctx, email, password)
}

// --- Auxiliares ---

func newBillingRouter(svc BillingService) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api", NewBillingHandler(svc, validator.New(), zerolog.Nop()).Routes())
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func validPaymentBody() map[string]any {
	return map[string]any{
		"userData": map[string]any{
			"schoolName": "Escola Aurora",
			"name":       "Ana",
			"email":      "ana@aurora.edu.br",
			"password":   "segredo1",
			"planType":   "individual",
		},
		"paymentData": map[string]any{
			"token":              "card_tok",
			"transaction_amount": 29.9,
			"installments":       1,
			"payment_method_id":  "visa",
			"issuer_id":          24,
			"payer": map[string]any{
				"email":          "ana@aurora.edu.br",
				"identification": map[string]any{"type": "CPF", "number": "12345678909"},
			},
		},
	}
}

// --- Testes do BillingHandler ---

func TestBillingHandler_ProcessPayment(t *testing.T) {
	t.Run("sucesso - pagamento aprovado devolve ids da escola e do usuário", func(t *testing.T) {
		svc := &MockBillingService{
			ProcessPaymentFn: func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
				assert.Equal(t, "Escola Aurora", req.Signup.SchoolName)
				assert.Equal(t, domain.PlanIndividual, req.Signup.PlanType)
				assert.Equal(t, "card_tok", req.Token)
				assert.Equal(t, "24", req.IssuerID)
				assert.Equal(t, "CPF", req.DocType)
				require.NotNil(t, req.Amount)
				assert.Equal(t, "29.9", req.Amount.String())
				return &service.PaymentResult{
					PaymentID: "pay_1",
					Status:    domain.PaymentApproved,
					RawStatus: "approved",
					School:    &domain.School{ID: "school_1"},
					User:      &domain.User{ID: "user_1"},
				}, nil
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", validPaymentBody())

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[ProcessPaymentResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, "pay_1", resp.PaymentID)
		assert.Equal(t, "school_1", resp.SchoolID)
		assert.Equal(t, "user_1", resp.UserID)
	})

	t.Run("pagamento pendente - 200 com success false e status do gateway", func(t *testing.T) {
		svc := &MockBillingService{
			ProcessPaymentFn: func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
				return &service.PaymentResult{PaymentID: "pay_2", Status: domain.PaymentPending, RawStatus: "in_process"}, nil
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", validPaymentBody())

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[ProcessPaymentResponse](t, rr)
		assert.False(t, resp.Success)
		assert.Equal(t, "in_process", resp.Status)
		assert.Equal(t, "Pagamento não aprovado", resp.Message)
		assert.Empty(t, resp.SchoolID)
	})

	t.Run("erro - plano desconhecido é rejeitado antes do serviço", func(t *testing.T) {
		svc := &MockBillingService{}
		body := validPaymentBody()
		body["userData"].(map[string]any)["planType"] = "enterprise"

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, decodeBody[ErrorResponse](t, rr).Success)
	})

	t.Run("erro - senha curta devolve 400", func(t *testing.T) {
		body := validPaymentBody()
		body["userData"].(map[string]any)["password"] = "123"

		rr := doJSON(t, newBillingRouter(&MockBillingService{}), http.MethodPost, "/api/process-payment", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - JSON malformado devolve 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/process-payment", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()

		newBillingRouter(&MockBillingService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - validação do serviço devolve 400", func(t *testing.T) {
		svc := &MockBillingService{
			ProcessPaymentFn: func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
				return nil, &service.ValidationError{Field: "transactionAmount", Message: "valor não corresponde ao preço do plano"}
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", validPaymentBody())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - cartão recusado devolve 402 com o tipo da falha", func(t *testing.T) {
		svc := &MockBillingService{
			ProcessPaymentFn: func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
				return nil, &gateway.Error{Kind: gateway.KindDeclined, Op: "charge", Err: errors.New("cc_rejected")}
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", validPaymentBody())

		assert.Equal(t, http.StatusPaymentRequired, rr.Code)
		resp := decodeBody[ErrorResponse](t, rr)
		assert.False(t, resp.Success)
		assert.Equal(t, "declined", resp.Error)
	})

	t.Run("erro - e-mail já cadastrado devolve 409", func(t *testing.T) {
		svc := &MockBillingService{
			ProcessPaymentFn: func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
				return nil, identity.ErrEmailTaken
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", validPaymentBody())

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("erro - falha inesperada devolve 500", func(t *testing.T) {
		svc := &MockBillingService{
			ProcessPaymentFn: func(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error) {
				return nil, errors.New("disk I/O error")
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/process-payment", validPaymentBody())

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "disk")
	})
}

func TestBillingHandler_CreateSubscription(t *testing.T) {
	body := map[string]any{"userId": "user_1", "planType": "school", "paymentMethodId": "card_tok"}

	t.Run("sucesso - devolve id da assinatura", func(t *testing.T) {
		svc := &MockBillingService{
			CreateSubscriptionFn: func(ctx context.Context, req service.SubscriptionRequest) (*service.SubscriptionResult, error) {
				assert.Equal(t, "user_1", req.UserID)
				assert.Equal(t, domain.PlanSchool, req.PlanType)
				return &service.SubscriptionResult{SubscriptionID: "sub_1", Status: domain.PaymentApproved, RawStatus: "authorized"}, nil
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/create-subscription", body)

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[CreateSubscriptionResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, "sub_1", resp.SubscriptionID)
		assert.Equal(t, "authorized", resp.Status)
	})

	t.Run("erro - usuário inexistente devolve 404", func(t *testing.T) {
		svc := &MockBillingService{
			CreateSubscriptionFn: func(ctx context.Context, req service.SubscriptionRequest) (*service.SubscriptionResult, error) {
				return nil, service.ErrUserNotFound
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/create-subscription", body)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("erro - assinatura já ativa devolve 409", func(t *testing.T) {
		svc := &MockBillingService{
			CreateSubscriptionFn: func(ctx context.Context, req service.SubscriptionRequest) (*service.SubscriptionResult, error) {
				return nil, service.ErrSubscriptionAlreadyActive
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/create-subscription", body)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("erro - sem método de pagamento devolve 400", func(t *testing.T) {
		rr := doJSON(t, newBillingRouter(&MockBillingService{}), http.MethodPost, "/api/create-subscription",
			map[string]any{"userId": "user_1", "planType": "school"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestBillingHandler_CancelSubscription(t *testing.T) {
	t.Run("sucesso - devolve success true", func(t *testing.T) {
		svc := &MockBillingService{
			CancelSubscriptionFn: func(ctx context.Context, subscriptionID string) error {
				assert.Equal(t, "sub_1", subscriptionID)
				return nil
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/cancel-subscription", map[string]any{"subscriptionId": "sub_1"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, decodeBody[SuccessResponse](t, rr).Success)
	})

	t.Run("erro - assinatura desconhecida devolve 404", func(t *testing.T) {
		svc := &MockBillingService{
			CancelSubscriptionFn: func(ctx context.Context, subscriptionID string) error {
				return service.ErrSubscriptionNotFound
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/cancel-subscription", map[string]any{"subscriptionId": "sub_x"})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("erro - gateway fora do ar devolve 402", func(t *testing.T) {
		svc := &MockBillingService{
			CancelSubscriptionFn: func(ctx context.Context, subscriptionID string) error {
				return &gateway.Error{Kind: gateway.KindUnavailable, Op: "cancel", Err: errors.New("503")}
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodPost, "/api/cancel-subscription", map[string]any{"subscriptionId": "sub_1"})

		assert.Equal(t, http.StatusPaymentRequired, rr.Code)
		assert.Equal(t, "unavailable", decodeBody[ErrorResponse](t, rr).Error)
	})
}

func TestBillingHandler_GetPlanStatus(t *testing.T) {
	t.Run("sucesso - devolve o status do plano", func(t *testing.T) {
		next := time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)
		svc := &MockBillingService{
			GetPlanStatusFn: func(ctx context.Context, userID string) (*service.PlanStatus, error) {
				assert.Equal(t, "user_1", userID)
				return &service.PlanStatus{
					PlanType:        domain.PlanIndividual,
					PlanStatus:      domain.PlanStatusActive,
					NextBillingDate: next,
					DaysUntilExpiry: 31,
				}, nil
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodGet, "/api/plan-status/user_1", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[map[string]any](t, rr)
		assert.Equal(t, "individual", resp["planType"])
		assert.Equal(t, "active", resp["planStatus"])
		assert.Equal(t, float64(31), resp["daysUntilExpiry"])
		assert.Equal(t, false, resp["isExpired"])
	})

	t.Run("erro - usuário inexistente devolve 404", func(t *testing.T) {
		svc := &MockBillingService{
			GetPlanStatusFn: func(ctx context.Context, userID string) (*service.PlanStatus, error) {
				return nil, service.ErrUserNotFound
			},
		}

		rr := doJSON(t, newBillingRouter(svc), http.MethodGet, "/api/plan-status/nobody", nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// --- Testes dos webhooks ---

func newWebhookRouter(rec WebhookReconciler, stripe StripeWebhookParser, secret string) http.Handler {
	h := NewWebhookHandler(rec, stripe, secret, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/api/webhooks/mercadopago", h.MercadoPago)
	r.Post("/api/webhooks/stripe", h.Stripe)
	return r
}

func TestWebhookHandler_MercadoPago(t *testing.T) {
	t.Run("sucesso - id numérico é aceito e reconciliado", func(t *testing.T) {
		var got gateway.Notification
		rec := &MockReconciler{
			ReconcileFn: func(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
				got = n
				return service.OutcomeApplied, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewBufferString(`{"type":"payment","data":{"id":123456}}`))
		rr := httptest.NewRecorder()
		newWebhookRouter(rec, nil, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "payment", got.Type)
		assert.Equal(t, "123456", got.PaymentID)
	})

	t.Run("sucesso - formato IPN pela query", func(t *testing.T) {
		var got gateway.Notification
		rec := &MockReconciler{
			ReconcileFn: func(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
				got = n
				return service.OutcomeIgnored, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago?topic=payment&id=987", nil)
		rr := httptest.NewRecorder()
		newWebhookRouter(rec, nil, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "987", got.PaymentID)
	})

	t.Run("evento de outro tipo é ignorado com 200", func(t *testing.T) {
		rec := &MockReconciler{
			ReconcileFn: func(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
				assert.Equal(t, "merchant_order", n.Type)
				return service.OutcomeIgnored, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewBufferString(`{"type":"merchant_order","data":{"id":"1"}}`))
		rr := httptest.NewRecorder()
		newWebhookRouter(rec, nil, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("erro - falha no processamento devolve 500 para reenvio", func(t *testing.T) {
		rec := &MockReconciler{
			ReconcileFn: func(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
				return "", errors.New("gateway fora do ar")
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewBufferString(`{"type":"payment","data":{"id":"1"}}`))
		rr := httptest.NewRecorder()
		newWebhookRouter(rec, nil, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("erro - corpo malformado devolve 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewBufferString(`{"type":`))
		rr := httptest.NewRecorder()
		newWebhookRouter(&MockReconciler{}, nil, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("erro - assinatura inválida devolve 401 sem reconciliar", func(t *testing.T) {
		rec := &MockReconciler{
			ReconcileFn: func(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
				t.Fatal("não deveria reconciliar")
				return "", nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewBufferString(`{"type":"payment","data":{"id":"1"}}`))
		req.Header.Set("x-signature", "ts=1700000000,v1=deadbeef")
		req.Header.Set("x-request-id", "req-1")
		rr := httptest.NewRecorder()
		newWebhookRouter(rec, nil, "segredo").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestWebhookHandler_Stripe(t *testing.T) {
	t.Run("sucesso - assinatura repassada ao parser e evento reconciliado", func(t *testing.T) {
		parser := &MockStripeParser{
			ParseWebhookFn: func(payload []byte, signature string) (*gateway.Notification, error) {
				assert.Equal(t, "t=1,v1=abc", signature)
				return &gateway.Notification{Type: gateway.NotificationPayment, PaymentID: "pi_1"}, nil
			},
		}
		rec := &MockReconciler{
			ReconcileFn: func(ctx context.Context, n gateway.Notification) (service.Outcome, error) {
				assert.Equal(t, "pi_1", n.PaymentID)
				return service.OutcomeApplied, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewBufferString(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rr := httptest.NewRecorder()
		newWebhookRouter(rec, parser, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("erro - assinatura inválida devolve 400", func(t *testing.T) {
		parser := &MockStripeParser{
			ParseWebhookFn: func(payload []byte, signature string) (*gateway.Notification, error) {
				return nil, gateway.ErrInvalidSignature
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewBufferString(`{}`))
		rr := httptest.NewRecorder()
		newWebhookRouter(&MockReconciler{}, parser, "").ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// --- Testes do controle de acesso ---

func newProtectedRouter(auth AccessAuthorizer) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api/protected", ProtectedRoutes(auth, zerolog.Nop()))
	return r
}

func TestRequirePlan(t *testing.T) {
	principal := &service.Principal{
		User:   &domain.User{ID: "user_1", Name: "Ana", Email: "ana@aurora.edu.br", UserType: domain.UserProfessor},
		School: &domain.School{ID: "school_1", Name: "Escola Aurora", PlanType: domain.PlanIndividual, Status: domain.PlanStatusActive, NextBillingDate: time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)},
	}

	t.Run("sucesso - plano vigente acessa /me", func(t *testing.T) {
		auth := &MockAuthorizer{
			AuthorizeFn: func(ctx context.Context, token string) (*service.Principal, error) {
				assert.Equal(t, "tok_ok", token)
				return principal, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/protected/me", nil)
		req.Header.Set("Authorization", "Bearer tok_ok")
		rr := httptest.NewRecorder()
		newProtectedRouter(auth).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[map[string]any](t, rr)
		assert.Equal(t, "user_1", resp["userId"])
		assert.Equal(t, "school_1", resp["schoolId"])
		assert.Equal(t, "2026-11-15", resp["nextBillingDate"])
	})

	t.Run("erro - sem token devolve 401", func(t *testing.T) {
		auth := &MockAuthorizer{
			AuthorizeFn: func(ctx context.Context, token string) (*service.Principal, error) {
				assert.Empty(t, token)
				return nil, service.ErrUnauthenticated
			},
		}

		rr := httptest.NewRecorder()
		newProtectedRouter(auth).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/protected/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "unauthenticated", decodeBody[ErrorResponse](t, rr).Error)
	})

	t.Run("erro - plano expirado devolve 403", func(t *testing.T) {
		auth := &MockAuthorizer{
			AuthorizeFn: func(ctx context.Context, token string) (*service.Principal, error) {
				return nil, service.ErrPlanInactive
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/protected/me", nil)
		req.Header.Set("Authorization", "Bearer tok_expired")
		rr := httptest.NewRecorder()
		newProtectedRouter(auth).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "plan_inactive", decodeBody[ErrorResponse](t, rr).Error)
	})

	t.Run("erro - falha inesperada devolve 500", func(t *testing.T) {
		auth := &MockAuthorizer{
			AuthorizeFn: func(ctx context.Context, token string) (*service.Principal, error) {
				return nil, errors.New("database is locked")
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/protected/me", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rr := httptest.NewRecorder()
		newProtectedRouter(auth).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Basic abc":   "",
		"":            "",
		"Bearer":      "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), "header %q", header)
	}
}

// --- Testes do login ---

func TestAuthHandler_Login(t *testing.T) {
	newRouter := func(login LoginService) http.Handler {
		r := chi.NewRouter()
		r.Mount("/api/auth", NewAuthHandler(login, validator.New(), zerolog.Nop()).Routes())
		return r
	}

	t.Run("sucesso - devolve o token", func(t *testing.T) {
		login := &MockLogin{
			LoginFn: func(ctx context.Context, email, password string) (string, error) {
				assert.Equal(t, "ana@aurora.edu.br", email)
				return "jwt", nil
			},
		}

		rr := doJSON(t, newRouter(login), http.MethodPost, "/api/auth/login", map[string]any{"email": "ana@aurora.edu.br", "password": "segredo1"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "jwt", decodeBody[LoginResponse](t, rr).Token)
	})

	t.Run("erro - credenciais erradas devolvem 401", func(t *testing.T) {
		login := &MockLogin{
			LoginFn: func(ctx context.Context, email, password string) (string, error) {
				return "", identity.ErrInvalidCredentials
			},
		}

		rr := doJSON(t, newRouter(login), http.MethodPost, "/api/auth/login", map[string]any{"email": "ana@aurora.edu.br", "password": "errada"})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
