package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/utils"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 60 * time.Second

// Refresher is the slice of Controller the poller drives.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
	State() State
}

// Poller refreshes on a ticker. A tick that arrives while the previous
// refresh is still running is dropped.
type Poller struct {
	target   Refresher
	logger   *zap.Logger
	onChange func(State)

	interval atomic.Int64
	enabled  atomic.Bool
	reset    chan time.Duration
	skipped  atomic.Int64
	wg       sync.WaitGroup
}

// NewPoller builds an enabled poller. onChange runs after a refresh that
// changed the state; it may be nil.
func NewPoller(target Refresher, interval time.Duration, onChange func(State), logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		target:   target,
		logger:   utils.OrNop(logger),
		onChange: onChange,
		reset:    make(chan time.Duration, 1),
	}
	p.interval.Store(int64(interval))
	p.enabled.Store(true)
	return p
}

// Interval returns the current period.
func (p *Poller) Interval() time.Duration {
	return time.Duration(p.interval.Load())
}

// SetInterval changes the period; a running loop picks it up immediately.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.interval.Store(int64(d))
	select {
	case p.reset <- d:
	default:
		select {
		case <-p.reset:
		default:
		}
		p.reset <- d
	}
}

// SetEnabled pauses or resumes refreshing without stopping the loop.
func (p *Poller) SetEnabled(on bool) { p.enabled.Store(on) }

// Enabled reports whether ticks trigger refreshes.
func (p *Poller) Enabled() bool { return p.enabled.Load() }

// Skipped counts ticks dropped because a refresh was in flight.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }

// Run ticks until ctx is done and waits for any refresh it started.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()
	defer p.wg.Wait()

	var busy atomic.Bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-p.reset:
			ticker.Reset(d)
		case <-ticker.C:
			if !p.enabled.Load() {
				continue
			}
			if !busy.CompareAndSwap(false, true) {
				p.skipped.Add(1)
				continue
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				defer busy.Store(false)
				p.tick(ctx)
			}()
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	changed, err := p.target.Refresh(ctx)
	switch {
	case errors.Is(err, ErrRefreshInFlight):
		p.skipped.Add(1)
	case err != nil:
		p.logger.Warn("refresh failed", zap.Error(err))
	case changed && p.onChange != nil:
		p.onChange(p.target.State())
	}
}
