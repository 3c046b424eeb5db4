package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/hauler-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each cart as a JSON document under hauler:cart:<buyer>:<session>.
type RedisStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisStore builds a Store. A zero ttl keeps carts until cleared.
func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) key(owner Owner) string {
	return s.client.CartKey(owner.BuyerID.String(), owner.SessionID)
}

func (s *RedisStore) Load(ctx context.Context, owner Owner) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.key(owner))
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, owner Owner, c *Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, owner)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(owner), payload, s.ttl); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, owner Owner) error {
	if err := s.client.Del(ctx, s.key(owner)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
