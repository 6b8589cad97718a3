package config

import (
	"fmt"
	"strings"
	"time"
)

// durationSetting describes one Go-duration key of the settings file.
type durationSetting struct {
	key string
	def time.Duration
	max time.Duration // 0 means unbounded
}

var (
	roundStartSetting    = durationSetting{key: "generator.round_start", def: time.Minute, max: 24 * time.Hour}
	busyTimeoutSetting   = durationSetting{key: "audit.busy_timeout", def: defaultBusyTimeout, max: time.Minute}
	leadSetting          = durationSetting{key: "remind.lead", def: defaultLead}
	overdueWindowSetting = durationSetting{key: "remind.overdue_window", def: defaultOverdueWindow}
)

// parse reads raw ("90s", "5m", "1h30m"). Blank takes the default. Every
// jot duration is a span, so zero and negative values are rejected.
func (s durationSetting) parse(raw string) (time.Duration, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return s.def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration like 90s, 5m or 1h30m", s.key, raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: %q must be positive (omit the key for the default %s)", s.key, raw, s.def)
	}
	if s.max > 0 && d > s.max {
		return 0, fmt.Errorf("%s: %q exceeds %s", s.key, raw, s.max)
	}
	return d, nil
}
