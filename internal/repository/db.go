package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBTX é o subconjunto de *sql.DB e *sql.Tx usado pelos repositórios.
// Assim o mesmo repositório roda dentro ou fora de uma transação.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FileDSN monta o DSN do SQLite em arquivo: WAL, chaves estrangeiras ligadas,
// busy timeout e transações imediatas para evitar deadlock na promoção do lock.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
}

// MemoryDSN é usado nos testes: um banco em memória compartilhado por nome.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_txlock=immediate", name)
}

// Open abre a conexão e aplica as migrações pendentes.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err = Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate roda as migrações embutidas no binário.
// O migrate.Migrate não é fechado: fechar o driver fecharia também o *sql.DB.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("carregar migrações: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("driver de migração: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("inicializar migração: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("executar migrações: %w", err)
	}
	return nil
}

// Tx agrupa os repositórios que participam de uma mesma transação.
type Tx struct {
	Schools    SchoolRepository
	Users      UserRepository
	References ReferenceRepository
}

// Store dá acesso a todos os repositórios sobre a mesma conexão.
type Store struct {
	db *sql.DB

	Schools    SchoolRepository
	Users      UserRepository
	References ReferenceRepository
	Events     WebhookEventRepository
	Accounts   AccountRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		Schools:    NewSQLiteRepository(db),
		Users:      NewUserRepository(db),
		References: NewReferenceRepository(db),
		Events:     NewWebhookEventRepository(db),
		Accounts:   NewAccountRepository(db),
	}
}

// WithTx executa fn dentro de uma transação. Qualquer erro de fn desfaz tudo.
func (s *Store) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	repos := Tx{
		Schools:    NewSQLiteRepository(tx),
		Users:      NewUserRepository(tx),
		References: NewReferenceRepository(tx),
	}
	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ping confere se o banco responde. Usado pelo /health.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
