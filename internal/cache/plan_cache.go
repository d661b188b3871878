// Package cache guarda o estado do plano de cada escola no Redis para aliviar
// o banco nas rotas protegidas.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/willjrcristo/eduplan-api/internal/domain"
)

// PlanCache é lido pelo controle de acesso e invalidado pelo ledger.
type PlanCache interface {
	Get(ctx context.Context, schoolID string) (*domain.School, error)
	Set(ctx context.Context, school *domain.School) error
	Invalidate(ctx context.Context, schoolIDs ...string) error
}

// Redis implementa o PlanCache com chaves plan:school:<id> e TTL fixo.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(schoolID string) string {
	return "plan:school:" + schoolID
}

// cachedSchool repete os campos que o JSON público da escola omite.
type cachedSchool struct {
	domain.School
	Version int64 `json:"version"`
}

// Get devolve nil, nil quando a chave não existe.
func (c *Redis) Get(ctx context.Context, schoolID string) (*domain.School, error) {
	data, err := c.client.Get(ctx, key(schoolID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cs cachedSchool
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	cs.School.Version = cs.Version
	return &cs.School, nil
}

func (c *Redis) Set(ctx context.Context, school *domain.School) error {
	data, err := json.Marshal(cachedSchool{School: *school, Version: school.Version})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(school.ID), data, c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, schoolIDs ...string) error {
	if len(schoolIDs) == 0 {
		return nil
	}
	keys := make([]string, len(schoolIDs))
	for i, id := range schoolIDs {
		keys[i] = key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// Noop é usado quando REDIS_ADDR não está configurado.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.School, error) { return nil, nil }
func (Noop) Set(context.Context, *domain.School) error           { return nil }
func (Noop) Invalidate(context.Context, ...string) error         { return nil }
