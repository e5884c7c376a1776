package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	domain "carqr/backend/internal/domain/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryUserRepository is an in-memory UserRepository for tests.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domain.ErrEmailExists
		}
		if existing.PhoneNumber == user.PhoneNumber {
			return domain.ErrPhoneExists
		}
	}
	copy := *user
	r.users[user.ID] = &copy
	return nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryUserRepository) GetByPhone(_ context.Context, phoneNumber string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phoneNumber {
			copy := *u
			return &copy, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// stubTokenManager issues predictable tokens keyed by email.
type stubTokenManager struct {
	failVerify bool
}

func (m *stubTokenManager) Issue(email string) (string, error) {
	return "tok:" + email, nil
}

func (m *stubTokenManager) Verify(token string) (string, error) {
	if m.failVerify || len(token) < 4 || token[:4] != "tok:" {
		return "", errors.New("bad token")
	}
	return token[4:], nil
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:       "owner@example.com",
		PhoneNumber: "+380991234567",
		Password:    "testpassword",
		FirstName:   "Test",
		LastName:    "Owner",
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := NewService(repo, &stubTokenManager{})

	user, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash, "returned user must not expose the hash")

	stored, err := repo.GetByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "testpassword", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("testpassword")))
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	input := validInput()
	input.Email = "  Owner@Example.COM "
	user, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	second := validInput()
	second.PhoneNumber = "+380997654321"
	_, err = svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	second := validInput()
	second.Email = "other@example.com"
	_, err = svc.Register(context.Background(), second)
	assert.ErrorIs(t, err, domain.ErrPhoneExists)
}

func TestRegisterPasswordBounds(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	short := validInput()
	short.Password = "short"
	_, err := svc.Register(context.Background(), short)
	assert.Error(t, err)

	long := validInput()
	long.Password = "this-password-is-far-too-long-to-be-accepted"
	_, err = svc.Register(context.Background(), long)
	assert.Error(t, err)
}

func TestAuthenticateUniformFailure(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(context.Background(), domain.Credentials{
		Email:    "owner@example.com",
		Password: "wrong-password",
	})
	_, unknownEmail := svc.Authenticate(context.Background(), domain.Credentials{
		Email:    "nobody@example.com",
		Password: "testpassword",
	})

	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownEmail, "failures must be indistinguishable")
}

func TestLoginIssuesToken(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), domain.Credentials{
		Email:    "owner@example.com",
		Password: "testpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok:owner@example.com", token)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
}

func TestUserFromToken(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := NewService(repo, &stubTokenManager{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	user, err := svc.UserFromToken(context.Background(), "tok:owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)

	_, err = svc.UserFromToken(context.Background(), "tok:ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = svc.UserFromToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestSessionUserSoftFailure(t *testing.T) {
	svc := NewService(newMemoryUserRepository(), &stubTokenManager{})

	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	user, ok := svc.SessionUser(context.Background(), "tok:owner@example.com")
	require.True(t, ok)
	assert.Equal(t, "owner@example.com", user.Email)

	user, ok = svc.SessionUser(context.Background(), "garbage")
	assert.False(t, ok)
	assert.Nil(t, user)
}
