package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/taskboard/internal/classify"
	"github.com/harrylevesque/taskboard/internal/files"
	"github.com/harrylevesque/taskboard/internal/models"
	"github.com/harrylevesque/taskboard/internal/normalize"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// ErrRefreshInFlight is returned when a refresh is requested while one runs.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// ProfileCache stores the last good profile.
type ProfileCache interface {
	Load() (models.CachedProfile, error)
	Save(models.CachedProfile) error
}

// Controller owns the dashboard State. Data fetches never fail the caller
// except for an expired session; user actions return their errors.
type Controller struct {
	src    Source
	norm   *normalize.Normalizer
	cache  ProfileCache
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	state      State
	refreshing atomic.Bool
}

// NewController builds a controller. cache may be nil.
func NewController(src Source, cache ProfileCache, logger *zap.Logger) *Controller {
	logger = utils.OrNop(logger)
	return &Controller{
		src:    src,
		norm:   normalize.New(logger.Named("normalize")),
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
	c.norm.Now = now
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

type fetched struct {
	raw    []byte
	health normalize.Health
	err    error
}

func (c *Controller) fetch(ctx context.Context, kind normalize.Kind) fetched {
	raw, h, err := c.src.Fetch(ctx, kind)
	if err != nil {
		c.logger.Warn("fetch failed", zap.String("kind", string(kind)), zap.Error(err))
		return fetched{health: normalize.Degraded(err.Error()), err: err}
	}
	return fetched{raw: raw, health: h}
}

// Load fetches tasks, goals and profile concurrently and replaces the state.
func (c *Controller) Load(ctx context.Context) (State, error) {
	var tasksRes, goalsRes, profileRes fetched
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { tasksRes = c.fetch(gctx, normalize.KindTasks); return nil })
	g.Go(func() error { goalsRes = c.fetch(gctx, normalize.KindGoals); return nil })
	g.Go(func() error { profileRes = c.fetch(gctx, normalize.KindProfile); return nil })
	_ = g.Wait()

	for _, f := range []fetched{tasksRes, goalsRes, profileRes} {
		if errors.Is(f.err, ErrUnauthorized) {
			return c.State(), ErrUnauthorized
		}
	}

	var degraded []string
	tasks := c.norm.Tasks(tasksRes.raw)
	degraded = appendDegraded(degraded, "tasks", tasksRes.health, tasks.Health)
	goals := c.norm.Goals(goalsRes.raw)
	degraded = appendDegraded(degraded, "goals", goalsRes.health, goals.Health)
	profileList := c.norm.Profile(profileRes.raw)
	degraded = appendDegraded(degraded, "profile", profileRes.health, profileList.Health)

	profile := profileList.Record()
	fromCache := false
	if profileRes.health.Degraded || profileList.Health.Degraded || profile.IsEmpty() {
		if cached, ok := c.loadCache(); ok {
			profile = models.FromCache(cached)
			fromCache = true
		}
	} else {
		c.saveCache(profile.ToCache())
	}

	now := c.now()
	next := State{
		Tasks:            tasks.Tasks,
		Goals:            goals.Goals,
		Profile:          BuildProfileView(profile, goals),
		ProfileFromCache: fromCache,
		Buckets:          classify.Classify(tasks.Tasks, now),
		Summary:          classify.Progress(tasks.Tasks),
		Hash:             Fingerprint(tasks.Tasks),
		Degraded:         degraded,
		LoadedAt:         now,
	}

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	return next.clone(), nil
}

func appendDegraded(list []string, kind string, hs ...normalize.Health) []string {
	for _, h := range hs {
		if h.Degraded {
			return append(list, kind+": "+h.Reason)
		}
	}
	return list
}

// Refresh re-fetches tasks only. It reports changed=false without touching
// state when the fetch is degraded or the content hash is unchanged.
func (c *Controller) Refresh(ctx context.Context) (bool, error) {
	if !c.refreshing.CompareAndSwap(false, true) {
		return false, ErrRefreshInFlight
	}
	defer c.refreshing.Store(false)

	f := c.fetch(ctx, normalize.KindTasks)
	if errors.Is(f.err, ErrUnauthorized) {
		return false, ErrUnauthorized
	}
	if f.health.Degraded {
		return false, nil
	}
	tasks := c.norm.Tasks(f.raw)
	if tasks.Health.Degraded {
		return false, nil
	}

	hash := Fingerprint(tasks.Tasks)
	c.mu.Lock()
	defer c.mu.Unlock()
	if hash == c.state.Hash {
		return false, nil
	}
	c.applyTasksLocked(tasks.Tasks)
	return true, nil
}

// Refreshing reports whether a refresh is in flight.
func (c *Controller) Refreshing() bool {
	return c.refreshing.Load()
}

func (c *Controller) applyTasksLocked(tasks []models.Task) {
	now := c.now()
	c.state.Tasks = tasks
	c.state.Buckets = classify.Classify(tasks, now)
	c.state.Summary = classify.Progress(tasks)
	c.state.Hash = Fingerprint(tasks)
	c.state.LoadedAt = now
}

func (c *Controller) loadCache() (models.CachedProfile, bool) {
	if c.cache == nil {
		return models.CachedProfile{}, false
	}
	p, err := c.cache.Load()
	if err != nil {
		if !errors.Is(err, files.ErrNotFound) {
			c.logger.Warn("profile cache unreadable", zap.Error(err))
		}
		return models.CachedProfile{}, false
	}
	return p, true
}

func (c *Controller) saveCache(p models.CachedProfile) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(p); err != nil {
		c.logger.Warn("profile cache not saved", zap.Error(err))
	}
}
