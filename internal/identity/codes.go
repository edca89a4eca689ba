package identity

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Code purposes, used as key namespaces.
const (
	PurposeConfirm = "confirm"
	PurposeReset   = "reset"
)

// CodeTTL bounds how long confirmation and reset codes stay valid.
const CodeTTL = 15 * time.Minute

// CodeStore keeps short-lived one-time codes keyed by purpose+email.
type CodeStore interface {
	Put(ctx context.Context, purpose, email, code string, ttl time.Duration) error
	Get(ctx context.Context, purpose, email string) (string, error)
	Delete(ctx context.Context, purpose, email string) error
}

// NewCode returns a 6-digit numeric code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	s := n.String()
	for len(s) < 6 {
		s = "0" + s
	}
	return s, nil
}

// RedisCodes stores codes in Redis with TTL.
type RedisCodes struct{ rdb *redis.Client }

func NewRedisCodes(rdb *redis.Client) *RedisCodes { return &RedisCodes{rdb: rdb} }

func codeKey(purpose, email string) string { return "idp:code:" + purpose + ":" + email }

func (s *RedisCodes) Put(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, codeKey(purpose, email), code, ttl).Err()
}

func (s *RedisCodes) Get(ctx context.Context, purpose, email string) (string, error) {
	v, err := s.rdb.Get(ctx, codeKey(purpose, email)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (s *RedisCodes) Delete(ctx context.Context, purpose, email string) error {
	return s.rdb.Del(ctx, codeKey(purpose, email)).Err()
}

// MemoryCodes is the fallback store when no Redis address is
// configured, and the store used by tests.
type MemoryCodes struct {
	mu    sync.Mutex
	codes map[string]memoryCode
}

type memoryCode struct {
	code    string
	expires time.Time
}

func NewMemoryCodes() *MemoryCodes {
	return &MemoryCodes{codes: make(map[string]memoryCode)}
}

func (s *MemoryCodes) Put(_ context.Context, purpose, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[codeKey(purpose, email)] = memoryCode{code: code, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryCodes) Get(_ context.Context, purpose, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[codeKey(purpose, email)]
	if !ok || time.Now().After(c.expires) {
		delete(s.codes, codeKey(purpose, email))
		return "", nil
	}
	return c.code, nil
}

func (s *MemoryCodes) Delete(_ context.Context, purpose, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, codeKey(purpose, email))
	return nil
}
