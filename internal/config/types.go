package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the jot settings file. It is separate from the shared document
// that holds the schedule itself.
type Config struct {
	// Document is the path of the shared configuration document whose
	// "schedule" key holds the entries.
	Document string `json:"document,omitempty"`

	// Timezone is an IANA zone used to read and write entry times.
	// Empty means the process local zone.
	Timezone string `json:"timezone,omitempty"`

	Logging   LoggingConfig   `json:"logging"`
	Generator GeneratorConfig `json:"generator"`
	Audit     AuditConfig     `json:"audit"`
	Remind    RemindConfig    `json:"remind"`
	Telegram  TelegramConfig  `json:"telegram"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	// Console is a pointer so an omitted key keeps the default (on).
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

func (l LoggingConfig) ConsoleEnabled() bool { return l.Console == nil || *l.Console }

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// GeneratorConfig holds defaults for `schedule gen`.
type GeneratorConfig struct {
	DefaultTemplate string `json:"default_template,omitempty"`
	DefaultStatus   string `json:"default_status,omitempty"`
	// RoundStart truncates the default start time (Go duration, e.g. "5m").
	RoundStart string `json:"round_start,omitempty"`
}

// AuditConfig controls the mutation log and reminder dedup store.
//
// Example:
//
//	"audit": { "driver": "sqlite", "path": "./jot_audit.db" }
type AuditConfig struct {
	Driver      string `json:"driver"` // none | file | sqlite
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// RemindConfig controls `jot remind`.
//
// Schedule accepts a cron expression ("*/5 * * * *", "@hourly"), a Go
// duration ("1m") or HH:MM ("00:30") as an interval.
type RemindConfig struct {
	Enabled       bool   `json:"enabled"`
	Schedule      string `json:"schedule,omitempty"`
	Lead          string `json:"lead,omitempty"`
	OverdueWindow string `json:"overdue_window,omitempty"`
}

type TelegramConfig struct {
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	ThreadID   int    `json:"thread_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.Token) != "" && t.ChatID != 0
}

const (
	DefaultPath     = "./jot.yaml"
	DefaultDocument = "./texteditor_config.json"

	defaultLevel         = "warn"
	defaultAuditDriver   = "none"
	defaultRemindEvery   = "@every 1m"
	defaultLead          = 10 * time.Minute
	defaultOverdueWindow = time.Hour
	defaultBusyTimeout   = 5 * time.Second
)

// Default returns the settings used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Document) == "" {
		c.Document = DefaultDocument
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLevel
	}
	if strings.TrimSpace(c.Audit.Driver) == "" {
		c.Audit.Driver = defaultAuditDriver
	}
	c.Audit.Driver = strings.ToLower(strings.TrimSpace(c.Audit.Driver))
	if strings.TrimSpace(c.Remind.Schedule) == "" {
		c.Remind.Schedule = defaultRemindEvery
	}
}

// applyEnv overlays JOT_* variables.
func (c *Config) applyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv("JOT_DOCUMENT")); v != "" {
		c.Document = v
	}
	if v := strings.TrimSpace(getenv("JOT_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(getenv("JOT_TELEGRAM_TOKEN")); v != "" {
		c.Telegram.Token = v
	}
}

// Validate checks values that would otherwise fail later at use sites.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.RoundStart(); err != nil {
		return err
	}
	switch c.Audit.Driver {
	case "none", "file", "sqlite":
	default:
		return fmt.Errorf("audit.driver: unknown driver %q (use none, file or sqlite)", c.Audit.Driver)
	}
	if c.Audit.Driver != "none" && strings.TrimSpace(c.Audit.Path) == "" {
		return fmt.Errorf("audit.path: required for driver %q", c.Audit.Driver)
	}
	if _, err := c.BusyTimeout(); err != nil {
		return err
	}
	if _, err := c.Lead(); err != nil {
		return err
	}
	if _, err := c.OverdueWindow(); err != nil {
		return err
	}
	if c.Telegram.RatePerSec < 0 {
		return fmt.Errorf("telegram.rate_per_sec: must be >= 0")
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) RoundStart() (time.Duration, error) {
	return roundStartSetting.parse(c.Generator.RoundStart)
}

func (c *Config) BusyTimeout() (time.Duration, error) {
	return busyTimeoutSetting.parse(c.Audit.BusyTimeout)
}

func (c *Config) Lead() (time.Duration, error) {
	return leadSetting.parse(c.Remind.Lead)
}

func (c *Config) OverdueWindow() (time.Duration, error) {
	return overdueWindowSetting.parse(c.Remind.OverdueWindow)
}
