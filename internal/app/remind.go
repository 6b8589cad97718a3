package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"jotter/internal/config"
	"jotter/internal/notify"
	"jotter/internal/remind"
	"jotter/internal/schedule"
	"jotter/internal/store"
	logx "jotter/pkg/logx"
)

var ErrRemindDisabled = errors.New("reminders disabled (set remind.enabled: true)")

// swapLoader lets a settings reload point the daemon at another document.
type swapLoader struct{ cur atomic.Pointer[store.Store] }

func (l *swapLoader) Load(ctx context.Context) (schedule.Collection, error) {
	return l.cur.Load().Load(ctx)
}

// swapSink lets a settings reload replace the Telegram target.
type swapSink struct {
	mu   sync.RWMutex
	sink notify.Sink
}

func (s *swapSink) set(n notify.Sink) {
	s.mu.Lock()
	s.sink = n
	s.mu.Unlock()
}

func (s *swapSink) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sink.Name()
}

func (s *swapSink) Notify(ctx context.Context, m notify.Message) error {
	s.mu.RLock()
	n := s.sink
	s.mu.RUnlock()
	return n.Notify(ctx, m)
}

// buildSink returns the log sink plus Telegram when configured.
func (a *App) buildSink(cfg *config.Config) notify.Sink {
	sinks := notify.Fanout{notify.LogSink{Log: a.log.With(logx.String("comp", "remind"))}}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(telegramConfig(cfg), a.log.With(logx.String("comp", "telegram")))
		if err != nil {
			a.log.Warn("telegram sink disabled", logx.Err(err))
		} else {
			sinks = append(sinks, tg)
		}
	}
	return sinks
}

// RunReminders runs the reminder daemon until ctx is done, following
// changes to the settings file.
func (a *App) RunReminders(ctx context.Context) error {
	cfg := a.cfg
	if !cfg.Remind.Enabled {
		return ErrRemindDisabled
	}
	rc, err := remindConfig(cfg)
	if err != nil {
		return err
	}

	loader := &swapLoader{}
	loader.cur.Store(a.store)
	sink := &swapSink{sink: a.buildSink(cfg)}
	svc := remind.New(rc, loader, sink, a.audit, a.log.With(logx.String("comp", "remind")))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.cfgm.SetValidator(func(_ context.Context, next *config.Config) error {
		_, err := remind.NormalizeSchedule(next.Remind.Schedule)
		return err
	})
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		_ = a.cfgm.Watch(ctx)
	}()

	if err := svc.Start(ctx); err != nil {
		cancel()
		<-watchDone
		return err
	}
	defer svc.Stop()

	for {
		select {
		case <-ctx.Done():
			cancel()
			<-watchDone
			return nil
		case next, ok := <-sub:
			if !ok {
				return nil
			}
			cfg = a.applyReload(cfg, a.opt.override(next), svc, loader, sink)
		}
	}
}

// applyReload pushes a new settings value into the running components and
// returns the settings now in effect.
func (a *App) applyReload(prev, next *config.Config, svc *remind.Service, loader *swapLoader, sink *swapSink) *config.Config {
	sections, attrs := config.SummarizeChange(prev, next)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return prev
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config change applied", fields...)

	for _, s := range sections {
		switch s {
		case "logging":
			if err := a.logs.Apply(logConfig(next, a.opt.Stderr)); err != nil {
				a.log.Warn("log file unavailable", logx.Err(err))
			}
		case "document":
			loc, err := next.Location()
			if err != nil {
				a.log.Warn("timezone rejected", logx.Err(err))
				continue
			}
			loader.cur.Store(store.New(store.Config{Path: next.Document, Location: loc}, a.log.With(logx.String("comp", "store"))))
		case "telegram":
			sink.set(a.buildSink(next))
		case "audit":
			a.log.Warn("audit config changed; restart required for changes to take effect")
		}
	}

	if !next.Remind.Enabled {
		a.log.Warn("remind.enabled is now false; stop the daemon to disable reminders")
	}
	rc, err := remindConfig(next)
	if err != nil {
		a.log.Warn("remind config rejected", logx.Err(err))
		return next
	}
	if err := svc.Apply(rc); err != nil {
		a.log.Warn("remind schedule rejected; keeping previous", logx.Err(err))
	}
	a.cfg = next
	return next
}
