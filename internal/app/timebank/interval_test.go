package timebank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInterval(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{9 * Day, "9 days"},
		{Day + 2*time.Hour + 5*time.Millisecond, "1 day 2 hours 5 milliseconds"},
		{90 * time.Second, "1 minute 30 seconds"},
		{1500*time.Millisecond + 999*time.Microsecond, "1 second 500 milliseconds"},
		{-(2*time.Hour + time.Minute), "-2 hours -1 minute"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatInterval(tc.in), "FormatInterval(%v)", tc.in)
	}
}

var maxParsedInterval = time.Duration(maxIntervalMs) * time.Millisecond

func TestParseInterval_SumsComponents(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"9 days", 777600000 * time.Millisecond},
		{"1 day 2 hours", 26 * time.Hour},
		{"2 weeks 3 days", 17 * Day},
		{"1 mon", 30 * Day},
		{"1 year 2 mons", Year + 2*Month},
		{"3 days 04:05:06.789", 3*Day + 4*time.Hour + 5*time.Minute + 6789*time.Millisecond},
		{"-01:30:00", -90 * time.Minute},
		{"3d 12h 500ms", 3*Day + 12*time.Hour + 500*time.Millisecond},
		{"@ 2 hours ago", -2 * time.Hour},
		{"1.5 days", 36 * time.Hour},
		{"45 minutes, 15 seconds", 45*time.Minute + 15*time.Second},
		{"9 2:00:00", 9*Day + 2*time.Hour},
		{"0 0:00:01.5", 1500 * time.Millisecond},
		{"1-2", Year + 2*Month},
		{"1-2 3 4:05:06", Year + 2*Month + 3*Day + 4*time.Hour + 5*time.Minute + 6*time.Second},
		{"300 years", maxParsedInterval},
		{"200000 days", maxParsedInterval},
		{"@ 300 years ago", -maxParsedInterval},
		{"99999999999999999999999999999999 days", maxParsedInterval},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseInterval(tc.in), "ParseInterval(%q)", tc.in)
	}
}

func TestParseInterval_IgnoresUnknownTokens(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ParseInterval("2 hours 7 fortnights"))
	assert.Equal(t, time.Minute, ParseInterval("banana 1 minute"))
	assert.Equal(t, time.Duration(0), ParseInterval("12:xx:00"))
	assert.Equal(t, time.Duration(0), ParseInterval("soon"))
}

func TestParseInterval_EmptyIsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseInterval(""))
	assert.Equal(t, time.Duration(0), ParseInterval("   "))
	assert.Equal(t, time.Duration(0), banked(nil))
}

func TestInterval_RoundTrip(t *testing.T) {
	for _, d := range []time.Duration{
		0,
		time.Millisecond,
		9 * Day,
		40*Day + 23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond,
		-3 * time.Hour,
	} {
		assert.Equal(t, d, ParseInterval(FormatInterval(d)), "round trip of %v", d)
	}
}
