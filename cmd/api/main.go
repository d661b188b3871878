package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/willjrcristo/eduplan-api/docs" // Registra a documentação Swagger

	"github.com/willjrcristo/eduplan-api/internal/cache"
	"github.com/willjrcristo/eduplan-api/internal/config"
	"github.com/willjrcristo/eduplan-api/internal/gateway"
	httphandler "github.com/willjrcristo/eduplan-api/internal/handler/http"
	"github.com/willjrcristo/eduplan-api/internal/identity"
	"github.com/willjrcristo/eduplan-api/internal/logger"
	"github.com/willjrcristo/eduplan-api/internal/repository"
	"github.com/willjrcristo/eduplan-api/internal/service"
)

// @title           EduPlan API
// @version         1.0
// @description     Cobrança, assinaturas e controle de acesso dos planos do EduPlan.
//
// @contact.name   Will Cristo
// @contact.url    https://linkedin.com/in/willjrcristo
// @contact.email  willjrcristo@gmail.com
//
// @host      localhost:3000
// @BasePath  /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// .env é opcional; em produção as variáveis vêm do ambiente.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("configuração inválida")
	}

	// --- 1. CONFIGURAÇÃO DO LOGGER ---
	log := logger.New(cfg.Environment, cfg.LogLevel).With().Str("service", "eduplan-api").Logger()
	log.Info().Str("env", cfg.Environment).Msg("🚀 Iniciando a API do EduPlan...")

	ctx := context.Background()

	// --- 2. CONEXÃO COM O BANCO DE DADOS ---
	db, err := repository.Open(repository.FileDSN(cfg.DatabasePath))
	if err != nil {
		log.Fatal().Err(err).Msg("erro ao inicializar o banco de dados")
	}
	defer db.Close()
	store := repository.NewStore(db)
	log.Info().Str("path", cfg.DatabasePath).Msg("💾 Banco de dados pronto, migrações aplicadas")

	// --- 3. INJEÇÃO DE DEPENDÊNCIAS (WIRING) ---
	gw, stripeGW, err := newGateway(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.PaymentProvider).Msg("erro ao configurar gateway de pagamento")
	}

	idp, local, err := newIdentity(ctx, cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.IdentityProvider).Msg("erro ao configurar provedor de identidade")
	}

	planCache, closeCache := newPlanCache(ctx, cfg, log)
	defer closeCache()

	ledger := service.NewLedger(store.Schools, planCache, cfg.DBTimeout, log)
	provisioner := service.NewProvisioner(store, idp, cfg.IdentityTimeout, log)
	billing := service.NewBillingService(gw, provisioner, ledger, store, cfg.GatewayTimeout, log)
	reconciler := service.NewReconciler(gw, ledger, store, cfg.GatewayTimeout, log)
	access := service.NewAccessService(idp, store, planCache, cfg.IdentityTimeout, log)

	validate := validator.New()
	billingHandler := httphandler.NewBillingHandler(billing, validate, log)
	var stripeParser httphandler.StripeWebhookParser
	if stripeGW != nil {
		stripeParser = stripeGW
	}
	webhookHandler := httphandler.NewWebhookHandler(reconciler, stripeParser, cfg.MPWebhookSecret, log)

	// --- 4. CONFIGURAÇÃO DO ROTEADOR E ROTAS ---
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httphandler.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
	r.Use(prometheusMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", billingHandler.Routes())
		r.Post("/webhooks/mercadopago", webhookHandler.MercadoPago)
		if stripeParser != nil {
			r.Post("/webhooks/stripe", webhookHandler.Stripe)
		}
		if local != nil {
			r.Mount("/auth", httphandler.NewAuthHandler(local, validate, log).Routes())
		}
		r.Mount("/protected", httphandler.ProtectedRoutes(access, log))
	})
	log.Info().Msg("🛰️  Rotas de /api registradas")

	// --- 5. INICIALIZAÇÃO DO SERVIDOR HTTP ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("✅ Servidor pronto para receber requisições")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("erro ao iniciar o servidor")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("desligando o servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("erro no desligamento")
	}
}

// newGateway escolhe o provedor de pagamento. O segundo retorno só é preenchido
// com a Stripe, que também valida os próprios webhooks.
func newGateway(cfg *config.Config, log zerolog.Logger) (gateway.Gateway, *gateway.Stripe, error) {
	switch cfg.PaymentProvider {
	case "mercadopago":
		if cfg.MPAccessToken == "" {
			return nil, nil, errors.New("MP_ACCESS_TOKEN não configurado")
		}
		mp, err := gateway.NewMercadoPago(cfg.MPAccessToken, gateway.URLs{
			Notification: cfg.NotificationURL(),
			Success:      cfg.FrontendURL + "/payment/success",
			Failure:      cfg.FrontendURL + "/payment/failure",
			Pending:      cfg.FrontendURL + "/payment/pending",
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return mp, nil, nil
	case "stripe":
		if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
			return nil, nil, errors.New("STRIPE_SECRET_KEY e STRIPE_WEBHOOK_SECRET são obrigatórios")
		}
		s := gateway.NewStripe(gateway.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			ProductID:     cfg.StripeProductID,
			SuccessURL:    cfg.FrontendURL + "/payment/success",
			CancelURL:     cfg.FrontendURL + "/payment/failure",
		}, log)
		return s, s, nil
	default:
		return nil, nil, errors.New("PAYMENT_PROVIDER desconhecido: " + cfg.PaymentProvider)
	}
}

// newIdentity escolhe o provedor de identidade. O provedor local também é
// devolvido à parte porque é o único que atende /api/auth/login.
func newIdentity(ctx context.Context, cfg *config.Config, store *repository.Store, log zerolog.Logger) (identity.Provider, *identity.Local, error) {
	switch cfg.IdentityProvider {
	case "firebase":
		fb, err := identity.NewFirebase(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials, log)
		if err != nil {
			return nil, nil, err
		}
		return fb, nil, nil
	case "local":
		if cfg.JWTSecret == "" {
			return nil, nil, errors.New("JWT_SECRET não configurado")
		}
		l := identity.NewLocal(store.Accounts, cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
		return l, l, nil
	default:
		return nil, nil, errors.New("IDENTITY_PROVIDER desconhecido: " + cfg.IdentityProvider)
	}
}

// newPlanCache liga o cache no Redis quando REDIS_ADDR está definido. Se o Redis
// não responder na subida, a API segue sem cache.
func newPlanCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.PlanCache, func()) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("cache de plano desligado")
		return cache.Noop{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis indisponível, seguindo sem cache")
		client.Close()
		return cache.Noop{}, func() {}
	}
	log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.PlanCacheTTL).Msg("cache de plano no redis")
	return cache.NewRedis(client, cfg.PlanCacheTTL), func() { client.Close() }
}
