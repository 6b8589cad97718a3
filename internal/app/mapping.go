package app

import (
	"io"

	"jotter/internal/audit"
	"jotter/internal/config"
	"jotter/internal/generator"
	"jotter/internal/notify"
	"jotter/internal/remind"
	logx "jotter/pkg/logx"
)

func logConfig(cfg *config.Config, out io.Writer) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Out: out,
	}
}

func auditConfig(cfg *config.Config) (audit.Config, error) {
	busy, err := cfg.BusyTimeout()
	if err != nil {
		return audit.Config{}, err
	}
	return audit.Config{Driver: cfg.Audit.Driver, Path: cfg.Audit.Path, BusyTimeout: busy}, nil
}

func generatorOptions(cfg *config.Config) (generator.Options, error) {
	round, err := cfg.RoundStart()
	if err != nil {
		return generator.Options{}, err
	}
	return generator.Options{
		Template:   cfg.Generator.DefaultTemplate,
		Status:     cfg.Generator.DefaultStatus,
		RoundStart: round,
	}, nil
}

func remindConfig(cfg *config.Config) (remind.Config, error) {
	lead, err := cfg.Lead()
	if err != nil {
		return remind.Config{}, err
	}
	window, err := cfg.OverdueWindow()
	if err != nil {
		return remind.Config{}, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return remind.Config{}, err
	}
	return remind.Config{Schedule: cfg.Remind.Schedule, Lead: lead, OverdueWindow: window, Location: loc}, nil
}

func telegramConfig(cfg *config.Config) notify.TelegramConfig {
	return notify.TelegramConfig{
		Token:      cfg.Telegram.Token,
		ChatID:     cfg.Telegram.ChatID,
		ThreadID:   cfg.Telegram.ThreadID,
		RatePerSec: cfg.Telegram.RatePerSec,
	}
}
