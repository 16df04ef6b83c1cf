package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemoryCounters() *memoryCounters {
	return &memoryCounters{values: make(map[string]int64)}
}

func (m *memoryCounters) IncrementWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key]++
	return m.values[key], nil
}

func (m *memoryCounters) GetInt(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryCounters) GetTTL(context.Context, string) (time.Duration, error) {
	return time.Minute, nil
}

func (m *memoryCounters) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

const authSecret = "unit-test-secret"

func newTestAuthService(users *fakeUserRepo, counters CounterStore) AuthService {
	return NewAuthService(users, NewLoginLimiter(counters, 3, time.Minute), AuthConfig{
		JWTSecret:         authSecret,
		AccessTokenTTL:    time.Hour,
		PasswordMinLength: 6,
	}, logger.NewNop())
}

func TestRegister_IssuesToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users, nil)

	token, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "jane",
		Email:    "  Jane@Example.com ",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "jane", token.Username)

	identity, err := utils.ExtractIdentityFromToken(token.AccessToken, authSecret)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", identity)

	stored, err := users.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestRegister_Duplicates(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "jane", Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "other", Email: "jane@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "jane", Email: "new@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), nil)

	_, err := svc.Register(context.Background(), &RegisterRequest{Username: "jane", Email: "not-an-email", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(context.Background(), &RegisterRequest{Username: "jane", Email: "jane@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "jane", Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	token, err := svc.Login(ctx, &LoginRequest{Email: "JANE@example.com", Password: "secret123"})
	require.NoError(t, err)

	identity, err := svc.ValidateToken(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", identity)

	_, err = svc.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_LockedAfterRepeatedFailures(t *testing.T) {
	counters := newMemoryCounters()
	svc := newTestAuthService(newFakeUserRepo(), counters)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "jane", Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "wrong"})
		require.ErrorIs(t, err, ErrUnauthorized)
	}

	_, err = svc.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Too many failed login attempts")

	require.NoError(t, counters.Delete(ctx, loginAttemptKey("jane@example.com")))
	_, err = svc.Login(ctx, &LoginRequest{Email: "jane@example.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), nil)
	_, err := svc.ValidateToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
