package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Firebase usa o Admin SDK para gerenciar as contas.
type Firebase struct {
	client *auth.Client
	logger zerolog.Logger
}

// NewFirebase inicializa o app. Sem arquivo de credenciais, usa as credenciais
// padrão do ambiente (ou o emulador, se FIREBASE_AUTH_EMULATOR_HOST estiver setado).
func NewFirebase(ctx context.Context, projectID, credentialsFile string, logger zerolog.Logger) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("inicializar firebase: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("cliente de auth do firebase: %w", err)
	}
	return &Firebase{
		client: client,
		logger: logger.With().Str("service", "firebase").Logger(),
	}, nil
}

func (f *Firebase) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("criar conta no firebase: %w", err)
	}
	f.logger.Info().Str("uid", record.UID).Msg("conta criada")
	return record.UID, nil
}

func (f *Firebase) DeleteAccount(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return fmt.Errorf("remover conta %s do firebase: %w", uid, err)
	}
	f.logger.Warn().Str("uid", uid).Msg("conta removida")
	return nil
}

func (f *Firebase) VerifyToken(ctx context.Context, token string) (*Account, error) {
	t, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		f.logger.Debug().Err(err).Msg("token recusado")
		return nil, ErrInvalidToken
	}
	email, _ := t.Claims["email"].(string)
	return &Account{UID: t.UID, Email: email}, nil
}
