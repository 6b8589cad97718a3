package config

import (
	"strings"

	logx "jotter/pkg/logx"
)

// SummarizeChange lists the sections that differ between two settings and
// returns log-safe attributes for them. Tokens are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 12)

	if strings.TrimSpace(oldCfg.Document) != strings.TrimSpace(newCfg.Document) ||
		strings.TrimSpace(oldCfg.Timezone) != strings.TrimSpace(newCfg.Timezone) {
		changed = append(changed, "document")
		attrs = append(attrs,
			logx.String("document", newCfg.Document),
			logx.String("timezone", newCfg.Timezone),
		)
	}

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.ConsoleEnabled() != newCfg.Logging.ConsoleEnabled() ||
		oldCfg.Logging.File != newCfg.Logging.File {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Generator != newCfg.Generator {
		changed = append(changed, "generator")
	}

	if oldCfg.Audit != newCfg.Audit {
		changed = append(changed, "audit")
		attrs = append(attrs, logx.String("audit.driver", newCfg.Audit.Driver))
	}

	if oldCfg.Remind != newCfg.Remind {
		changed = append(changed, "remind")
		attrs = append(attrs,
			logx.Bool("remind.enabled", newCfg.Remind.Enabled),
			logx.String("remind.schedule", newCfg.Remind.Schedule),
			logx.String("remind.lead", newCfg.Remind.Lead),
		)
	}

	if oldCfg.Telegram.ChatID != newCfg.Telegram.ChatID ||
		oldCfg.Telegram.ThreadID != newCfg.Telegram.ThreadID ||
		oldCfg.Telegram.RatePerSec != newCfg.Telegram.RatePerSec ||
		oldCfg.Telegram.Token != newCfg.Telegram.Token {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.token_set", strings.TrimSpace(newCfg.Telegram.Token) != ""),
			logx.Int64("telegram.chat_id", newCfg.Telegram.ChatID),
		)
	}
	return changed, attrs
}
