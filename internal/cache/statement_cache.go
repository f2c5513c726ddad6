package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/fee-ledger/internal/domain"

	"github.com/redis/go-redis/v9"
)

// StatementCache stores statement read-models keyed by statement number.
// A miss is reported as (nil, nil).
type StatementCache interface {
	Get(ctx context.Context, number string) (*domain.FeeStatement, error)
	Set(ctx context.Context, statement *domain.FeeStatement) error
	Delete(ctx context.Context, number string) error
}

type redisStatementCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatementCache(client *redis.Client, ttl time.Duration) StatementCache {
	return &redisStatementCache{client: client, ttl: ttl}
}

func statementKey(number string) string {
	return fmt.Sprintf("fee_statement:%s", number)
}

func (c *redisStatementCache) Get(ctx context.Context, number string) (*domain.FeeStatement, error) {
	raw, err := c.client.Get(ctx, statementKey(number)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var statement domain.FeeStatement
	if err := json.Unmarshal(raw, &statement); err != nil {
		return nil, err
	}
	return &statement, nil
}

func (c *redisStatementCache) Set(ctx context.Context, statement *domain.FeeStatement) error {
	if c.ttl == 0 {
		return nil
	}

	raw, err := json.Marshal(statement)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statementKey(statement.StatementNumber), raw, c.ttl).Err()
}

func (c *redisStatementCache) Delete(ctx context.Context, number string) error {
	return c.client.Del(ctx, statementKey(number)).Err()
}

// NoopStatementCache is used when Redis is not available
type NoopStatementCache struct{}

func (NoopStatementCache) Get(context.Context, string) (*domain.FeeStatement, error) { return nil, nil }
func (NoopStatementCache) Set(context.Context, *domain.FeeStatement) error           { return nil }
func (NoopStatementCache) Delete(context.Context, string) error                      { return nil }
