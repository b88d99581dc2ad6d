package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxDelaySeconds is the longest delay an upload may ask for (24 hours)
const MaxDelaySeconds int64 = 86400

var delayPattern = regexp.MustCompile(`^(\d+)\s*(seconds?|minutes?|hours?)$`)

// ParseDelay converts a delay such as "10 minutes" or "2 hours" into seconds.
// Only a single amount followed by one unit is accepted; "1 hour 30 minutes"
// is rejected. The 24 hour ceiling is left to the caller (see CheckDelay).
func ParseDelay(text string) (int64, error) {
	text = strings.ToLower(strings.TrimSpace(text))

	match := delayPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, ErrInvalidFormat
	}

	amount, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		// Only overflow can get here; saturate so the limit check rejects it
		amount = math.MaxInt64
	}

	unit := match[2]
	switch {
	case strings.HasPrefix(unit, "second"):
		return amount, nil
	case strings.HasPrefix(unit, "minute"):
		return saturatingMul(amount, 60), nil
	default:
		return saturatingMul(amount, 3600), nil
	}
}

// CheckDelay enforces the upper bound on a parsed delay
func CheckDelay(seconds, max int64) error {
	if seconds > max {
		return ErrDelayTooLong
	}
	return nil
}

func saturatingMul(a, b int64) int64 {
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
