// Package remind runs the reminder daemon: on every cron tick it reloads the
// schedule and notifies about entries that are about to start or have just
// run past their end.
package remind

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"jotter/internal/audit"
	"jotter/internal/notify"
	"jotter/internal/schedule"
	logx "jotter/pkg/logx"
)

type Config struct {
	Schedule      string // cron, duration or HH:MM; default "@every 1m"
	Lead          time.Duration
	OverdueWindow time.Duration
	Location      *time.Location
}

// Loader is satisfied by *store.Store.
type Loader interface {
	Load(ctx context.Context) (schedule.Collection, error)
}

// Dedup remembers delivered reminders. audit.Store satisfies it.
type Dedup interface {
	PutDedup(ctx context.Context, key string, until time.Time) error
	GetDedup(ctx context.Context, key string) (time.Time, bool, error)
}

type Service struct {
	src   Loader
	sink  notify.Sink
	dedup Dedup
	audit audit.Store
	log   logx.Logger
	now   func() time.Time

	mu     sync.Mutex
	cfg    Config
	spec   string
	c      *cron.Cron
	runCtx context.Context

	tickMu sync.Mutex
}

// New builds the daemon. st may be nil; dedup is then kept in memory and
// reminders are not written to the audit log.
func New(cfg Config, src Loader, sink notify.Sink, st audit.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{src: src, sink: sink, audit: st, log: log, now: time.Now, cfg: cfg}
	if st != nil {
		s.dedup = st
	} else {
		s.dedup = newMemoryDedup()
	}
	return s
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Start validates the schedule and begins ticking. It is a no-op when
// already running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	s.runCtx = ctx
	if err := s.startLocked(); err != nil {
		return err
	}
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		s.log.Debug("sd_notify ready failed", logx.Err(err))
	} else if ok {
		s.log.Debug("sd_notify ready sent")
	}
	return nil
}

func (s *Service) startLocked() error {
	raw := s.cfg.Schedule
	if raw == "" {
		raw = "@every 1m"
	}
	spec, err := NormalizeSchedule(raw)
	if err != nil {
		return err
	}
	c := cron.New(cron.WithParser(parser), cron.WithLocation(s.cfg.location()))
	ctx := s.runCtx
	if _, err := c.AddFunc(spec, func() { s.runTick(ctx) }); err != nil {
		return fmt.Errorf("remind schedule %q: %w", spec, err)
	}
	c.Start()
	s.c, s.spec = c, spec
	s.log.Info("reminders started",
		logx.String("schedule", spec),
		logx.Duration("lead", s.cfg.Lead),
		logx.Duration("overdue_window", s.cfg.OverdueWindow),
		logx.String("tz", s.cfg.location().String()),
	)
	return nil
}

// Apply swaps in new settings. The cron is rebuilt when the schedule or the
// zone changed; an invalid schedule keeps the old one running.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	old := s.cfg
	if s.c == nil || (old.Schedule == cfg.Schedule && old.location().String() == cfg.location().String()) {
		s.cfg = cfg
		s.mu.Unlock()
		return nil
	}
	if _, err := NormalizeSchedule(cfg.Schedule); err != nil {
		s.mu.Unlock()
		return err
	}
	prev := s.c
	s.c = nil
	s.mu.Unlock()

	// a running tick reads cfg under mu; wait for it without holding the lock
	<-prev.Stop().Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	if err := s.startLocked(); err != nil {
		// restore the previous schedule
		s.cfg = old
		return errors.Join(err, s.startLocked())
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReloading); err == nil {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	}
	return nil
}

// Stop halts ticking and waits for a running tick to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	<-c.Stop().Done()
	s.log.Info("reminders stopped")
}

func (s *Service) runTick(ctx context.Context) {
	n, err := s.Tick(ctx)
	if err != nil {
		s.log.Warn("reminder tick failed", logx.Err(err))
		return
	}
	if n > 0 {
		s.log.Debug("reminder tick", logx.Int("sent", n))
	}
}

// Tick runs one reminder pass and returns the number of messages sent.
// Ticks never overlap.
func (s *Service) Tick(ctx context.Context) (int, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	c, err := s.src.Load(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now().In(cfg.location())

	sent := 0
	var errs []error
	for _, d := range collect(c, now, cfg.Lead, cfg.OverdueWindow) {
		if until, ok, err := s.dedup.GetDedup(ctx, d.key); err != nil {
			errs = append(errs, err)
			continue
		} else if ok && until.After(now) {
			continue
		}
		if err := s.sink.Notify(ctx, d.msg); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
		if err := s.dedup.PutDedup(ctx, d.key, d.until); err != nil {
			errs = append(errs, err)
		}
		if s.audit != nil {
			rec := audit.Record{
				Action: audit.ActionRemind,
				Index:  d.msg.Item.ID,
				Task:   d.msg.Item.Entry.Task,
				Detail: string(d.msg.Reason),
			}
			if err := s.audit.Append(ctx, rec); err != nil {
				s.log.Debug("audit append failed", logx.Err(err))
			}
		}
	}
	return sent, errors.Join(errs...)
}

type memoryDedup struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newMemoryDedup() *memoryDedup { return &memoryDedup{m: map[string]time.Time{}} }

func (d *memoryDedup) PutDedup(_ context.Context, key string, until time.Time) error {
	d.mu.Lock()
	d.m[key] = until
	d.mu.Unlock()
	return nil
}

func (d *memoryDedup) GetDedup(_ context.Context, key string) (time.Time, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[key]
	return v, ok, nil
}
