package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "carqr/backend/internal/domain/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 32
)

// Service coordinates account and authentication workflows between
// domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	tokens  TokenManager
	nowFunc func() time.Time
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, tokens TokenManager) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		nowFunc: time.Now,
	}
}

// RegisterInput contains the payload required to create an account.
type RegisterInput struct {
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ShowPhoneNumber bool   `json:"show_phone_number"`
}

// Register creates a new user and returns the persisted entity without
// a password hash. The plaintext password is hashed before storage and
// never returned.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	phone := strings.TrimSpace(input.PhoneNumber)
	password := input.Password

	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}
	if phone == "" {
		return nil, errors.New("phone number is required")
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, errors.New("password must be between 8 and 32 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, domain.ErrPhoneExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           email,
		PhoneNumber:     phone,
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		ShowPhoneNumber: input.ShowPhoneNumber,
		PasswordHash:    string(hashed),
		CreatedAt:       s.nowFunc().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

// Authenticate validates credentials and returns the matching user.
// Unknown email and wrong password fail identically so the response
// cannot be used to enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return sanitizeUser(user), nil
}

// Login validates credentials and returns a bearer token plus the user.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error) {
	user, err := s.Authenticate(ctx, creds)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// UserFromToken validates a bearer token and resolves its subject to an
// existing user. Any verification or resolution failure is reported as
// ErrTokenInvalid; API callers surface it as 401.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) (*domain.User, error) {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// SessionUser is the soft variant of UserFromToken used by browser
// session flows: any failure yields an absent user, never an error, so
// the caller can redirect instead of responding with a protocol error.
func (s *Service) SessionUser(ctx context.Context, tokenString string) (*domain.User, bool) {
	user, err := s.UserFromToken(ctx, tokenString)
	if err != nil {
		return nil, false
	}
	return user, true
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}
