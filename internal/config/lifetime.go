package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidLifetime is returned when a lifetime string does not match <digits><s|m|h|d>.
var ErrInvalidLifetime = errors.New("invalid lifetime")

var lifetimePattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var lifetimeUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// Lifetime is a token lifetime written the way operators configure it ("5m", "1d", "7d").
type Lifetime time.Duration

// ParseLifetime parses a lifetime string such as "30s", "5m", "12h" or "7d".
func ParseLifetime(s string) (Lifetime, error) {
	match := lifetimePattern.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLifetime, s)
	}

	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLifetime, s)
	}

	unit := lifetimeUnits[match[2]]
	if value > int64(1<<63-1)/int64(unit) {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidLifetime, s)
	}

	return Lifetime(time.Duration(value) * unit), nil
}

// Duration returns the lifetime as a time.Duration.
func (l Lifetime) Duration() time.Duration {
	return time.Duration(l)
}

func (l Lifetime) String() string {
	return time.Duration(l).String()
}
