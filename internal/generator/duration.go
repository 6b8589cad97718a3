package generator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jotter/internal/schedule"
)

var reAmount = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(小时|分钟|h|hr|hrs|hour|hours|m|min|mins|minute|minutes)?$`)

// ParseDuration parses a duration written as "2小时", "40分钟", "1.5",
// "90m", "1h30m" or "2 hours". A bare number is hours. The result must be
// strictly positive; anything else is InvalidDuration naming field.
func ParseDuration(field, raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, schedule.NewError(schedule.InvalidDuration, field, raw, fmt.Errorf("value required"))
	}

	var d time.Duration
	if m := reAmount.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, schedule.NewError(schedule.InvalidDuration, field, raw, err)
		}
		unit := time.Hour
		switch m[2] {
		case "分钟", "m", "min", "mins", "minute", "minutes":
			unit = time.Minute
		}
		d = time.Duration(math.Round(n * float64(unit)))
	} else {
		v, err := time.ParseDuration(s)
		if err != nil {
			return 0, schedule.NewError(schedule.InvalidDuration, field, raw,
				fmt.Errorf("use 1小时, 40分钟, 1.5 (hours) or 1h30m"))
		}
		d = v
	}
	if d <= 0 {
		return 0, schedule.NewError(schedule.InvalidDuration, field, raw, fmt.Errorf("must be > 0"))
	}
	// stored times carry at most seconds
	if d%time.Second != 0 {
		return 0, schedule.NewError(schedule.InvalidDuration, field, raw, fmt.Errorf("must be a whole number of seconds"))
	}
	return d, nil
}
