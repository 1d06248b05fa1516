package auth

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/harrylevesque/taskboard/internal/models"
)

// IdentityProvider verifies credentials. The protocol behind it is opaque to
// the rest of the server.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
}

// Registrar is implemented by providers that accept sign-ups.
type Registrar interface {
	Register(email, password string) error
}

// StaticProvider checks credentials against bcrypt hashes held in memory.
type StaticProvider struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewStaticProvider indexes users by lower-cased email.
func NewStaticProvider(users []models.User) *StaticProvider {
	p := &StaticProvider{users: make(map[string]models.User, len(users))}
	for _, u := range users {
		p.users[normalizeEmail(u.Email)] = u
	}
	return p
}

// Register adds a user with a freshly hashed password.
func (p *StaticProvider) Register(email, password string) error {
	key := normalizeEmail(email)
	if key == "" || password == "" {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[key]; ok {
		return ErrUserExists
	}
	p.users[key] = models.User{Email: email, PasswordHash: hash}
	return nil
}

// SignIn returns the user when password matches.
func (p *StaticProvider) SignIn(ctx context.Context, email, password string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	p.mu.RLock()
	user, ok := p.users[normalizeEmail(email)]
	p.mu.RUnlock()
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// HashPassword hashes a password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash checks a password hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
