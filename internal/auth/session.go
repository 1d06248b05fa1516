package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/harrylevesque/taskboard/internal/crypto"
)

var (
	// ErrInvalidCredentials is returned when the provided credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering an email twice.
	ErrUserExists = errors.New("user already exists")
	// ErrSessionNotFound is returned when the request carries no valid session.
	ErrSessionNotFound = errors.New("session not found")
)

const (
	keyEmail         = "email"
	keyAuthenticated = "authenticated"
)

type ctxKey struct{}

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// NewCookieStore builds an authenticated, encrypted cookie store.
func NewCookieStore(keys crypto.SessionKeys, opts CookieOptions) *sessions.CookieStore {
	store := sessions.NewCookieStore(keys.Hash, keys.Block)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)
	return store
}

// Auth gates requests on a session cookie issued after provider sign-in.
type Auth struct {
	provider IdentityProvider
	store    sessions.Store
	name     string
}

// New creates a new Auth instance.
func New(provider IdentityProvider, store sessions.Store, name string) *Auth {
	if name == "" {
		name = "taskboard"
	}
	return &Auth{provider: provider, store: store, name: name}
}

// Login verifies credentials and writes the session cookie.
func (a *Auth) Login(ctx context.Context, email, password string, w http.ResponseWriter, r *http.Request) error {
	user, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	session, err := a.store.Get(r, a.name)
	if err != nil && session == nil {
		return err
	}
	session.Values[keyEmail] = user.Email
	session.Values[keyAuthenticated] = true
	return a.store.Save(r, w, session)
}

// Logout expires the session cookie.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := a.store.Get(r, a.name)
	if err != nil && session == nil {
		return err
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return a.store.Save(r, w, session)
}

// CurrentUser returns the signed-in email.
func (a *Auth) CurrentUser(r *http.Request) (string, error) {
	if email, ok := r.Context().Value(ctxKey{}).(string); ok {
		return email, nil
	}
	session, err := a.store.Get(r, a.name)
	if err != nil {
		return "", ErrSessionNotFound
	}
	authenticated, _ := session.Values[keyAuthenticated].(bool)
	email, ok := session.Values[keyEmail].(string)
	if !authenticated || !ok || email == "" {
		return "", ErrSessionNotFound
	}
	return email, nil
}

// RequirePage redirects anonymous requests to the landing page.
func (a *Auth) RequirePage(next http.Handler) http.Handler {
	return a.require(next, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})
}

// RequireAPI rejects anonymous requests with 401.
func (a *Auth) RequireAPI(next http.Handler) http.Handler {
	return a.require(next, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, ErrSessionNotFound)
	})
}

func (a *Auth) require(next http.Handler, deny http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := a.CurrentUser(r)
		if err != nil {
			deny(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, email)))
	})
}

// EmailFromContext returns the email stored by the Require middlewares.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(ctxKey{}).(string)
	return email
}

// JSONResponse writes a JSON response.
func JSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// ErrorResponse writes an error response.
func ErrorResponse(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrUserExists):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	JSONResponse(w, status, map[string]string{"error": err.Error()})
}
