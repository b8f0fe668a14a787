package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const refreshLeeway = time.Minute

// MintingSource mints a new token on every call.
type MintingSource struct {
	Minter  *Minter
	Account *ServiceAccount
}

// Token implements genai.TokenSource.
func (s *MintingSource) Token(ctx context.Context) (AccessToken, error) {
	return s.Minter.Mint(ctx, s.Account)
}

// TokenCache stores tokens keyed by principal.
type TokenCache interface {
	Get(ctx context.Context, key string) (AccessToken, bool, error)
	Set(ctx context.Context, key string, token AccessToken, ttl time.Duration) error
}

// CachingSource reuses a cached token until one minute before it expires.
type CachingSource struct {
	Minter  *Minter
	Account *ServiceAccount
	Cache   TokenCache

	mu sync.Mutex
}

// Token returns a cached token or mints and stores a new one.
func (s *CachingSource) Token(ctx context.Context) (AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(s.Account)
	now := s.Minter.now()
	if tok, ok, err := s.Cache.Get(ctx, key); err == nil && ok && tok.ValidAt(now, refreshLeeway) {
		return tok, nil
	} else if err != nil {
		s.Minter.logger.Warn().Err(err).Str("principal", s.Account.ClientEmail).Msg("credentials: token cache read failed")
	}

	tok, err := s.Minter.Mint(ctx, s.Account)
	if err != nil {
		return AccessToken{}, err
	}
	ttl := tok.Expiry.Sub(now) - refreshLeeway
	if ttl > 0 {
		if err := s.Cache.Set(ctx, key, tok, ttl); err != nil {
			s.Minter.logger.Warn().Err(err).Str("principal", s.Account.ClientEmail).Msg("credentials: token cache write failed")
		}
	}
	return tok, nil
}

func cacheKey(sa *ServiceAccount) string {
	if sa == nil {
		return "vertex-token:"
	}
	return "vertex-token:" + sa.ClientEmail
}

// MemoryTokenCache keeps tokens in process memory.
type MemoryTokenCache struct {
	c *gocache.Cache
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{c: gocache.New(time.Hour, 10*time.Minute)}
}

func (m *MemoryTokenCache) Get(_ context.Context, key string) (AccessToken, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return AccessToken{}, false, nil
	}
	tok, ok := v.(AccessToken)
	return tok, ok, nil
}

func (m *MemoryTokenCache) Set(_ context.Context, key string, token AccessToken, ttl time.Duration) error {
	m.c.Set(key, token, ttl)
	return nil
}

// RedisTokenCache shares tokens between processes through Redis.
type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (r *RedisTokenCache) Get(ctx context.Context, key string) (AccessToken, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return AccessToken{}, false, nil
	}
	if err != nil {
		return AccessToken{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var tok AccessToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return AccessToken{}, false, fmt.Errorf("decode cached token: %w", err)
	}
	return tok, true, nil
}

func (r *RedisTokenCache) Set(ctx context.Context, key string, token AccessToken, ttl time.Duration) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
