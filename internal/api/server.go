// Package api serves the dashboard's HTTP surface: session login, the gated
// page, and authenticated proxies to the upstream webhooks.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/auth"
	"github.com/harrylevesque/taskboard/internal/normalize"
	"github.com/harrylevesque/taskboard/internal/upstream"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// Upstream is the webhook service as seen by handlers.
type Upstream interface {
	Do(ctx context.Context, method, path string, payload any) (*upstream.Response, error)
	Fetch(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, payload any) ([]byte, error)
	PostJSON(ctx context.Context, path string, payload, out any) error
}

// Options are the server settings handlers read.
type Options struct {
	AllowedOrigin string
	StaticDir     string
	PrivatePage   string
	Debug         bool
}

// Server holds handler dependencies.
type Server struct {
	upstream   Upstream
	normalizer *normalize.Normalizer
	auth       *auth.Auth
	provider   auth.IdentityProvider
	logger     *zap.Logger
	opts       Options
	now        func() time.Time
}

// NewServer wires a Server. provider is consulted for sign-up when it
// supports registration.
func NewServer(up Upstream, a *auth.Auth, provider auth.IdentityProvider, opts Options, logger *zap.Logger) *Server {
	logger = utils.OrNop(logger)
	return &Server{
		upstream:   up,
		normalizer: normalize.New(logger.Named("normalize")),
		auth:       a,
		provider:   provider,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for timestamps and date defaults.
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
	s.normalizer.Now = now
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(NewRouter(s))
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *Server) today() time.Time {
	return s.now()
}
