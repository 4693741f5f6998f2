package devserver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

const issuer = "todo-devserver"

// Claims are carried by every access token.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationList
	now     func() time.Time
}

// NewTokenService returns a service signing with secret. A nil revocation list keeps revocations in memory.
func NewTokenService(secret string, ttl time.Duration, revoked RevocationList) *TokenService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &TokenService{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
	if revoked == nil {
		// Follows s.now, so a clock swapped in later also drives revocation expiry.
		s.revoked = newMemoryRevocationList(func() time.Time { return s.now() })
	}
	return s
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs an access token for u.
func (s *TokenService) Issue(u User) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies signature, expiry, issuer and revocation.
func (s *TokenService) Parse(ctx context.Context, raw string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(raw) == "" {
		return Claims{}, ErrTokenInvalid
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if claims.UserID == "" || claims.Subject != claims.UserID || claims.ID == "" {
		return Claims{}, ErrTokenInvalid
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token until it would have expired anyway.
func (s *TokenService) Revoke(ctx context.Context, claims Claims) error {
	ttl := s.ttl
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, ttl)
}

// RevocationList remembers revoked token ids until they expire.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type memoryRevocationList struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

// NewMemoryRevocationList keeps revoked ids in process memory, expiring them by the wall clock.
func NewMemoryRevocationList() RevocationList {
	return newMemoryRevocationList(time.Now)
}

func newMemoryRevocationList(now func() time.Time) *memoryRevocationList {
	return &memoryRevocationList{items: make(map[string]time.Time), now: now}
}

func (l *memoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[jti] = l.now().UTC().Add(ttl)
	return nil
}

func (l *memoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.items[jti]
	if !ok {
		return false, nil
	}
	if l.now().UTC().After(exp) {
		delete(l.items, jti)
		return false, nil
	}
	return true, nil
}

// redisKV is the subset of *redis.Client used by redisRevocationList.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

const redisTimeout = 500 * time.Millisecond

type redisRevocationList struct {
	client redisKV
	prefix string
}

// NewRedisRevocationList stores revoked ids under "auth:revoked:<jti>" with the token's remaining TTL.
func NewRedisRevocationList(client *redis.Client) RevocationList {
	if client == nil {
		return nil
	}
	return &redisRevocationList{client: client, prefix: "auth:revoked:"}
}

func (l *redisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	return l.client.Set(ctx, l.prefix+jti, "1", ttl).Err()
}

func (l *redisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	n, err := l.client.Exists(ctx, l.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
