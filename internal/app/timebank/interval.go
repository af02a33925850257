package timebank

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

// maxIntervalMs bounds parsed intervals so the millisecond conversion cannot wrap.
const maxIntervalMs = math.MaxInt64 / int64(time.Millisecond)

// unitSizes maps every accepted interval label to its length. Months and years are
// approximations; the formatter never emits them.
var unitSizes = map[string]time.Duration{
	"ms": time.Millisecond, "msec": time.Millisecond, "msecs": time.Millisecond,
	"millisecond": time.Millisecond, "milliseconds": time.Millisecond,

	"s": time.Second, "sec": time.Second, "secs": time.Second,
	"second": time.Second, "seconds": time.Second,

	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"minute": time.Minute, "minutes": time.Minute,

	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour,
	"hour": time.Hour, "hours": time.Hour,

	"d": Day, "day": Day, "days": Day,

	"w": Week, "week": Week, "weeks": Week,

	"mon": Month, "mons": Month, "month": Month, "months": Month,

	"y": Year, "yr": Year, "yrs": Year, "year": Year, "years": Year,
}

type formatUnit struct {
	size             time.Duration
	singular, plural string
}

var formatUnits = []formatUnit{
	{Day, "day", "days"},
	{time.Hour, "hour", "hours"},
	{time.Minute, "minute", "minutes"},
	{time.Second, "second", "seconds"},
	{time.Millisecond, "millisecond", "milliseconds"},
}

// FormatInterval renders d as a verbose Postgres interval literal, e.g. "9 days 2 hours".
// Precision below a millisecond is dropped.
func FormatInterval(d time.Duration) string {
	d = d.Truncate(time.Millisecond)
	if d == 0 {
		return "0 seconds"
	}

	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	parts := make([]string, 0, len(formatUnits))
	for _, u := range formatUnits {
		n := d / u.size
		if n == 0 {
			continue
		}
		d -= n * u.size

		label := u.plural
		if n == 1 {
			label = u.singular
		}
		parts = append(parts, fmt.Sprintf("%s%d %s", sign, n, label))
	}
	return strings.Join(parts, " ")
}

// ParseInterval sums the components of an interval string into a millisecond-precision
// duration. It understands "<n> <unit>" pairs, glued forms like "3d", the "HH:MM:SS.fff"
// clock Postgres emits on read, and the "@ ... ago" verbose style. Tokens it does not
// recognise count as zero.
func ParseInterval(s string) time.Duration {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "@"))
	if s == "" {
		return 0
	}

	negate := false
	if strings.HasSuffix(s, " ago") {
		negate = true
		s = strings.TrimSuffix(s, " ago")
	}

	fields := strings.Fields(s)
	var totalMs float64
	for i := 0; i < len(fields); i++ {
		tok := strings.Trim(fields[i], ",")

		if strings.Contains(tok, ":") {
			totalMs += parseClock(tok)
			continue
		}
		if ms, ok := parseYearMonth(tok); ok {
			totalMs += ms
			continue
		}

		num, label := splitNumber(tok)
		if num == "" {
			continue
		}
		value, err := strconv.ParseFloat(num, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			continue
		}

		if label == "" && i+1 < len(fields) {
			next := strings.Trim(fields[i+1], ",")
			if strings.Contains(next, ":") {
				// sql_standard style: "9 2:00:00" is 9 days followed by a clock.
				label = "day"
			} else {
				i++
				label = next
			}
		}
		size, ok := unitSizes[label]
		if !ok {
			continue
		}
		totalMs += value * float64(size/time.Millisecond)
	}

	if negate {
		totalMs = -totalMs
	}
	switch {
	case math.IsNaN(totalMs):
		return 0
	case totalMs > float64(maxIntervalMs):
		totalMs = float64(maxIntervalMs)
	case totalMs < -float64(maxIntervalMs):
		totalMs = -float64(maxIntervalMs)
	}
	return time.Duration(math.Round(totalMs)) * time.Millisecond
}

// parseYearMonth reads the sql_standard "[-]Y-M" year-month token and returns milliseconds.
func parseYearMonth(tok string) (float64, bool) {
	sign := 1.0
	if strings.HasPrefix(tok, "-") {
		sign = -1
		tok = tok[1:]
	}
	years, months, found := strings.Cut(tok, "-")
	if !found {
		return 0, false
	}
	y, err := strconv.ParseUint(years, 10, 32)
	if err != nil {
		return 0, false
	}
	m, err := strconv.ParseUint(months, 10, 32)
	if err != nil {
		return 0, false
	}
	ms := float64(y)*float64(Year/time.Millisecond) + float64(m)*float64(Month/time.Millisecond)
	return sign * ms, true
}

// splitNumber separates a leading signed decimal from the rest of the token.
func splitNumber(tok string) (string, string) {
	end := 0
	for end < len(tok) {
		c := tok[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	return tok[:end], tok[end:]
}

// parseClock reads [-]HH:MM[:SS[.fff]] and returns milliseconds, or zero when malformed.
func parseClock(tok string) float64 {
	sign := 1.0
	switch {
	case strings.HasPrefix(tok, "-"):
		sign = -1
		tok = tok[1:]
	case strings.HasPrefix(tok, "+"):
		tok = tok[1:]
	}

	parts := strings.Split(tok, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	hours, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0
	}
	minutes, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0
	}
	var seconds float64
	if len(parts) == 3 {
		seconds, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || seconds < 0 {
			return 0
		}
	}

	ms := float64(hours)*float64(time.Hour/time.Millisecond) +
		float64(minutes)*float64(time.Minute/time.Millisecond) +
		seconds*1000
	return sign * ms
}
