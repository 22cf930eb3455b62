// Package auth is the authentication and authorization boundary: it turns
// credentials into bearer tokens, tokens into caller identities, and checks
// identities against the roles operations require.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/webkite/storefront/internal/domain/user"
)

// Credential and registration errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Service implements register and login over the user repository.
type Service struct {
	users  user.Repository
	tokens *TokenManager
	now    func() time.Time
}

// NewService creates an auth Service.
func NewService(users user.Repository, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a customer account with a bcrypt-hashed password. Emails
// are unique case-insensitively.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	all := s.users.All(ctx)
	for _, u := range all {
		if strings.EqualFold(u.Email, email) {
			return nil, ErrEmailTaken
		}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := s.now().UTC()
	u := user.User{
		ID:           nextID(all),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         user.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	all = append(all, u)
	if err := s.users.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist user")
	}
	return &u, nil
}

// Login verifies the credentials and returns the user with a signed token.
// The error does not reveal whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = strings.TrimSpace(email)

	var found *user.User
	for _, u := range s.users.All(ctx) {
		if strings.EqualFold(u.Email, email) {
			found = &u
			break
		}
	}
	if found == nil || !VerifyPassword(password, found.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*found)
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	return found, token, nil
}

// EnsureAdmin creates an admin account on first boot. It is a no-op when the
// user collection already has records, so it never overrides live data.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	all := s.users.All(ctx)
	if len(all) > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	now := s.now().UTC()
	admin := user.User{
		ID:           1,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.ReplaceAll(ctx, []user.User{admin}); err != nil {
		return errors.Wrap(err, "persist admin user")
	}
	return nil
}

func nextID(users []user.User) int64 {
	var maxID int64
	for _, u := range users {
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	return maxID + 1
}
