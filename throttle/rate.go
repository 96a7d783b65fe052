package throttle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate allows Limit requests per Period.
type Rate struct {
	Limit  int
	Period time.Duration
}

// ParseRate parses rates such as "60/min", "3/hour" or "10/s".
func ParseRate(s string) (Rate, error) {
	num, unit, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("throttle: invalid rate %q", s)
	}
	limit, err := strconv.Atoi(num)
	if err != nil || limit <= 0 {
		return Rate{}, fmt.Errorf("throttle: invalid request count in rate %q", s)
	}

	var period time.Duration
	switch strings.ToLower(unit) {
	case "s", "sec", "second":
		period = time.Second
	case "m", "min", "minute":
		period = time.Minute
	case "h", "hour":
		period = time.Hour
	case "d", "day":
		period = 24 * time.Hour
	default:
		return Rate{}, fmt.Errorf("throttle: invalid period in rate %q", s)
	}
	return Rate{Limit: limit, Period: period}, nil
}

// ParseRates parses a scope -> rate table.
func ParseRates(raw map[string]string) (map[string]Rate, error) {
	rates := make(map[string]Rate, len(raw))
	for scope, value := range raw {
		r, err := ParseRate(value)
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", scope, err)
		}
		rates[scope] = r
	}
	return rates, nil
}
