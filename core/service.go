// Package core wires the membership store, session cache, and entitlement
// configuration into the service other server modules call. All store access
// dispatched from connection or admin paths runs on background goroutines;
// the read paths in resolver.go never touch the store.
package core

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipkit/entitlements"
	"github.com/open-rails/vipkit/membership"
	"github.com/open-rails/vipkit/session"
	"github.com/open-rails/vipkit/tasks"
)

// ErrUnknownGroup is returned by Grant when the group is not defined in the
// live entitlement configuration.
var ErrUnknownGroup = errors.New("core: unknown vip group")

const defaultSweepInterval = 300 * time.Second

// Options configures a Service. Store and Config are required.
type Options struct {
	Store  membership.Store
	Config *entitlements.Config

	// Capacity is the number of connection slots. Defaults to 64.
	Capacity int

	// SweepInterval is how often expired records are purged from the store.
	// Defaults to 300 seconds.
	SweepInterval time.Duration

	Logger *logrus.Logger

	// Clock defaults to the real clock; tests inject a mock.
	Clock clock.Clock
}

// Service is the public facade over the VIP membership core.
type Service struct {
	store membership.Store
	cache *session.Cache
	cfg   atomic.Pointer[entitlements.Config]
	log   *logrus.Logger
	clk   clock.Clock
	tasks *tasks.Tracker

	sweepEvery time.Duration
	cron       *cron.Cron
}

func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("core: Store is required")
	}
	if opts.Config == nil {
		return nil, errors.New("core: Config is required")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	every := opts.SweepInterval
	if every <= 0 {
		every = defaultSweepInterval
	}
	s := &Service{
		store:      opts.Store,
		cache:      session.NewCache(opts.Capacity),
		log:        log,
		clk:        clk,
		tasks:      tasks.New(log),
		sweepEvery: every,
	}
	s.cfg.Store(opts.Config)
	return s, nil
}

// Start ensures the store schema and begins the periodic expiration sweep.
// A schema failure is logged, not fatal; individual operations will fail and
// log on their own.
func (s *Service) Start(ctx context.Context) {
	if err := s.store.EnsureSchema(ctx); err != nil {
		s.log.WithError(err).Warn("membership schema setup failed")
	}
	s.cron = cron.New()
	s.cron.Schedule(cron.Every(s.sweepEvery), cron.FuncJob(func() {
		s.Sweep(context.Background())
	}))
	s.cron.Start()
}

// Close stops the sweeper and waits for in-flight background work.
func (s *Service) Close() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.tasks.Wait()
}

// Flush waits for all dispatched background work to finish. Tests use it to
// observe async grants, revokes, and session loads deterministically.
func (s *Service) Flush() {
	s.tasks.Wait()
}

// Config returns the live entitlement configuration.
func (s *Service) Config() *entitlements.Config {
	return s.cfg.Load()
}

// ReloadConfig swaps the entitlement configuration wholesale. Cached session
// entries are unaffected; group lookups happen at read time against the new
// mapping.
func (s *Service) ReloadConfig(cfg *entitlements.Config) {
	if cfg == nil {
		return
	}
	s.cfg.Store(cfg)
	s.log.Info("entitlement configuration reloaded")
}

// RegisterFeature adds a feature key to every group. Idempotent, in-memory
// only.
func (s *Service) RegisterFeature(name string) {
	s.Config().RegisterFeature(name)
	s.log.WithField("feature", name).Info("feature registered for all groups")
}

// UnregisterFeature removes a feature key from every group. Idempotent.
func (s *Service) UnregisterFeature(name string) {
	s.Config().UnregisterFeature(name)
	s.log.WithField("feature", name).Info("feature unregistered for all groups")
}

func (s *Service) now() int64 { return s.clk.Now().Unix() }

// Grant creates a membership for identifier in group, expiring after
// durationSeconds (0 = never). Granting over an existing membership is a
// logged no-op returning membership.ErrExists; revoke first to change terms.
func (s *Service) Grant(ctx context.Context, identifier, group string, durationSeconds int64) error {
	if identifier == "" {
		return errors.New("core: empty identifier")
	}
	if durationSeconds < 0 {
		return errors.New("core: negative duration")
	}
	if !s.Config().HasGroup(group) {
		s.log.WithField("group", group).Warn("grant rejected: vip group not found")
		return ErrUnknownGroup
	}
	now := s.now()
	rec := membership.Record{
		Identifier: identifier,
		Group:      group,
		GrantedAt:  now,
	}
	if durationSeconds > 0 {
		rec.ExpiresAt = now + durationSeconds
	}
	err := s.store.Insert(ctx, rec)
	switch {
	case errors.Is(err, membership.ErrExists):
		s.log.WithField("identifier", identifier).Info("grant ignored: membership already exists")
		return err
	case err != nil:
		s.log.WithError(err).WithField("identifier", identifier).Warn("grant not persisted")
		return err
	}
	s.log.WithFields(logrus.Fields{
		"identifier": identifier,
		"group":      group,
		"expires_at": rec.ExpiresAt,
	}).Info("vip granted")
	return nil
}

// GrantAsync dispatches Grant without the caller waiting. Rejections are
// logged by Grant itself.
func (s *Service) GrantAsync(identifier, group string, durationSeconds int64) {
	s.tasks.Go("grant", func() error {
		err := s.Grant(context.Background(), identifier, group, durationSeconds)
		if errors.Is(err, membership.ErrExists) || errors.Is(err, ErrUnknownGroup) {
			return nil
		}
		return err
	})
}

// Revoke deletes the membership for identifier, if any, and evicts any
// connected slot holding it so the revoke takes effect this session.
func (s *Service) Revoke(ctx context.Context, identifier string) error {
	err := s.store.Delete(ctx, identifier)
	switch {
	case errors.Is(err, membership.ErrNotFound):
		s.log.WithField("identifier", identifier).Info("revoke ignored: no membership")
		return nil
	case err != nil:
		s.log.WithError(err).WithField("identifier", identifier).Warn("revoke not persisted")
		return err
	}
	if n := s.cache.EvictIdentifier(identifier); n > 0 {
		s.log.WithField("identifier", identifier).Debug("evicted connected session on revoke")
	}
	s.log.WithField("identifier", identifier).Info("vip revoked")
	return nil
}

// RevokeAsync dispatches Revoke without the caller waiting.
func (s *Service) RevokeAsync(identifier string) {
	s.tasks.Go("revoke", func() error {
		return s.Revoke(context.Background(), identifier)
	})
}

// HandleConnect begins a session on slot and loads the player's membership
// snapshot in the background. If the player disconnects (or the slot is
// reused) before the lookup completes, the stale result is discarded by the
// session generation check.
func (s *Service) HandleConnect(slot int, identifier string) {
	gen, ok := s.cache.Connect(slot)
	if !ok {
		s.log.WithField("slot", slot).Warn("connect for out-of-range slot")
		return
	}
	if identifier == "" {
		return
	}
	s.tasks.Go("session-load", func() error {
		rec, found, err := s.store.Find(context.Background(), identifier)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if s.cache.Commit(slot, gen, rec) {
			s.log.WithFields(logrus.Fields{
				"identifier": identifier,
				"slot":       slot,
				"group":      rec.Group,
			}).Debug("vip session loaded")
		}
		return nil
	})
}

// HandleDisconnect clears the slot synchronously. Must be called before the
// slot index is reused for a new connection.
func (s *Service) HandleDisconnect(slot int) {
	s.cache.Evict(slot)
}

// GroupOf returns the cached group for the player on slot, or "".
func (s *Service) GroupOf(slot int) string {
	rec, ok := s.cache.Peek(slot)
	if !ok {
		return ""
	}
	return rec.Group
}
