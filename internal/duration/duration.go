// Package duration converts between human-entered duration expressions
// ("3 months 2 days 12 hours") and a canonical integer-seconds value used
// throughout the policy document. A value of 0 means "no duration
// configured"; any parsed value is clamped to [MinSeconds, MaxSeconds].
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinSeconds is the smallest duration an admin can configure.
	MinSeconds = 30

	// MaxSeconds is the largest duration an admin can configure (365 days).
	MaxSeconds = 365 * 86400
)

// tokenPattern matches one "<number> <unit>" pair. The scan is case-insensitive
// and tolerates whitespace between the number and the unit.
var tokenPattern = regexp.MustCompile(`(\d+)\s*([a-zA-Z]+)`)

// unitSeconds maps every recognized unit alias to its length in seconds.
// Months are fixed at 30 days and years at 365 days of wall time; calendar
// arithmetic is deliberately out of scope for penalty durations.
var unitSeconds = map[string]uint64{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
	"m": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
	"d": 86400, "day": 86400, "days": 86400,
	"month": 30 * 86400, "months": 30 * 86400,
	"y": 365 * 86400, "yr": 365 * 86400, "yrs": 365 * 86400, "year": 365 * 86400, "years": 365 * 86400,
}

// Parse converts a free-text duration expression into clamped seconds.
// Every (number, unit) token contributes to the sum; a single unrecognized
// unit anywhere in the input invalidates the whole parse. Empty input, or
// input with no tokens at all, is not ok.
//
// The clamp is applied unconditionally: sums below MinSeconds are raised to
// MinSeconds and sums above MaxSeconds are capped at MaxSeconds.
func Parse(text string) (uint32, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}

	tokens := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(tokens) == 0 {
		return 0, false
	}

	var total uint64
	for _, tok := range tokens {
		unit, ok := unitSeconds[tok[2]]
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseUint(tok[1], 10, 64)
		if err != nil || n > MaxSeconds {
			// The sum is clamped anyway, so saturate oversized numbers
			// instead of failing or overflowing the multiply.
			n = MaxSeconds
		}
		total += n * unit
		if total > MaxSeconds {
			total = MaxSeconds
		}
	}

	if total < MinSeconds {
		total = MinSeconds
	}
	return uint32(total), true
}

// Format renders canonical seconds as a human-readable string: 0 becomes
// "Off", anything else decomposes largest-to-smallest into days, hours,
// minutes and seconds, keeping only non-zero units. Seconds are shown only
// when no larger unit is present, matching how the menus summarize penalties.
func Format(seconds uint32) string {
	if seconds == 0 {
		return "Off"
	}

	days := seconds / 86400
	rem := seconds % 86400
	hours := rem / 3600
	minutes := (rem % 3600) / 60
	secs := rem % 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if secs > 0 && len(parts) == 0 {
		parts = append(parts, plural(secs, "second"))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, " ")
}

func plural(n uint32, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
