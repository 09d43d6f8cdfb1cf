package config

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/cameraman/internal/fsutil"
	"github.com/banshee-data/cameraman/internal/monitoring"
	"github.com/banshee-data/cameraman/internal/timeutil"
)

// UserBoundaryMaxAge is how recent the user boundary file must be to take
// precedence over the default one.
const UserBoundaryMaxAge = 24 * time.Hour

// Provider owns the tuning snapshot shared by prediction engines and
// hot-reloads the court boundary on request. Params is safe to call from
// any goroutine; RefreshBoundary calls are serialised.
type Provider struct {
	fs    fsutil.FileSystem
	clock timeutil.Clock

	defaultPath string
	userPath    string

	current atomic.Pointer[Params]

	mu         sync.Mutex // guards refresh and the cache below
	cachedPath string
	cachedMod  time.Time
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithFileSystem sets the filesystem boundary files are read from.
func WithFileSystem(fsys fsutil.FileSystem) ProviderOption {
	return func(p *Provider) { p.fs = fsys }
}

// WithClock sets the clock used for the user file freshness check.
func WithClock(c timeutil.Clock) ProviderOption {
	return func(p *Provider) { p.clock = c }
}

// NewProvider builds a provider from a validated config and performs the
// initial boundary load. A missing boundary file is not fatal: the
// snapshot starts with no court points.
func NewProvider(cfg *TuningConfig, opts ...ProviderOption) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Provider{
		fs:          fsutil.OSFileSystem{},
		clock:       timeutil.RealClock{},
		defaultPath: *cfg.Boundary.Default,
		userPath:    *cfg.Boundary.User,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.current.Store(cfg.Params())

	if _, err := p.RefreshBoundary(); err != nil {
		if !errors.Is(err, ErrNoBoundaryFile) {
			return nil, err
		}
		monitoring.Logf("[config] warning: %v (default=%q user=%q), engines fall back to default court range",
			err, p.defaultPath, p.userPath)
	}
	return p, nil
}

// Params returns the current snapshot. The result must not be modified.
func (p *Provider) Params() *Params {
	return p.current.Load()
}

// RefreshBoundary re-resolves the court boundary file and reloads it when
// the resolved file or its modification time changed since the last load.
// It reports whether a new snapshot was published. On a read or parse
// error the previous snapshot stays in place.
func (p *Provider) RefreshBoundary() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, mod, err := p.resolveBoundary()
	if err != nil {
		return false, err
	}
	if path == p.cachedPath && mod.Equal(p.cachedMod) {
		return false, nil
	}

	pts, err := LoadCourtPoints(p.fs, path)
	if err != nil {
		return false, err
	}

	next := p.current.Load().withCourt(pts)
	p.current.Store(next)
	p.cachedPath = path
	p.cachedMod = mod

	monitoring.Logf("[config] court boundary loaded from %s (%d points, version %d)", path, len(pts), next.BoundaryVersion)
	return true, nil
}

// resolveBoundary picks the user file when it was modified within
// UserBoundaryMaxAge of now, otherwise the default file.
func (p *Provider) resolveBoundary() (string, time.Time, error) {
	if p.userPath != "" {
		if info, err := p.fs.Stat(p.userPath); err == nil {
			age := p.clock.Since(info.ModTime())
			if age < 0 {
				age = -age
			}
			if age <= UserBoundaryMaxAge {
				return p.userPath, info.ModTime(), nil
			}
			monitoring.Debugf("[config] user boundary %s is stale (%v old), using default", p.userPath, age)
		}
	}
	if p.defaultPath != "" {
		if info, err := p.fs.Stat(p.defaultPath); err == nil {
			return p.defaultPath, info.ModTime(), nil
		}
	}
	return "", time.Time{}, ErrNoBoundaryFile
}
