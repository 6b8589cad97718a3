// Package app wires settings, logging, the schedule store, the audit log and
// the planner for the jot commands.
package app

import (
	"errors"
	"io"
	"strings"
	"time"

	"jotter/internal/audit"
	"jotter/internal/config"
	"jotter/internal/services/planner"
	"jotter/internal/store"
	logx "jotter/pkg/logx"
)

// Options are command-line overrides. Blank fields keep the settings file
// (or environment) value.
type Options struct {
	ConfigPath string
	Document   string
	LogLevel   string

	// Stderr receives console logs (default os.Stderr).
	Stderr io.Writer
	// Getenv replaces os.Getenv, for tests.
	Getenv func(string) string
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

type App struct {
	opt  Options
	cfgm *config.Manager
	cfg  *config.Config

	logs *logx.Service
	log  logx.Logger

	store   *store.Store
	audit   audit.Store
	planner *planner.Service
}

func New(opt Options) (*App, error) {
	cfgm := config.NewManager(opt.ConfigPath)
	if opt.Getenv != nil {
		cfgm.SetEnv(opt.Getenv)
	}
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	cfg = opt.override(cfg)

	logs, log, err := logx.New(logConfig(cfg, opt.Stderr))
	if err != nil {
		// console logging still works; report the file sink problem there
		log.Warn("log file unavailable", logx.Err(err))
	}
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.Join(err, logs.Close())
	}
	st := store.New(store.Config{Path: cfg.Document, Location: loc}, log.With(logx.String("comp", "store")))

	ac, err := auditConfig(cfg)
	if err != nil {
		return nil, errors.Join(err, logs.Close())
	}
	au, err := audit.Open(ac, log.With(logx.String("comp", "audit")))
	if err != nil {
		return nil, errors.Join(err, logs.Close())
	}

	genOpt, err := generatorOptions(cfg)
	if err != nil {
		return nil, errors.Join(err, closeAudit(au), logs.Close())
	}
	pl := planner.New(st, au, log.With(logx.String("comp", "planner")), planner.Options{
		Location:  loc,
		Now:       opt.Now,
		Generator: genOpt,
	})

	log.Debug("app ready",
		logx.String("config", cfgm.Path()),
		logx.String("document", cfg.Document),
		logx.String("audit", ac.Driver),
		logx.String("tz", loc.String()),
	)
	return &App{opt: opt, cfgm: cfgm, cfg: cfg, logs: logs, log: log, store: st, audit: au, planner: pl}, nil
}

// override applies command-line flags on top of a loaded config.
func (o Options) override(cfg *config.Config) *config.Config {
	c := *cfg
	if v := strings.TrimSpace(o.Document); v != "" {
		c.Document = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.Logging.Level = v
	}
	return &c
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Log() logx.Logger { return a.log }

func (a *App) Planner() *planner.Service { return a.planner }

func (a *App) Store() *store.Store { return a.store }

func (a *App) Close() error {
	return errors.Join(closeAudit(a.audit), a.logs.Close())
}

func closeAudit(st audit.Store) error {
	if st == nil {
		return nil
	}
	return st.Close()
}
