package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		token string
		want  float64
	}{
		{"23:59", 23 + 59.0/60},
		{"2359", 23 + 59.0/60},
		{"930", 9 + 30.0/60},
		{"0900", 9},
		{" 11:30 ", 11.5},
		{"2530", 25.5},
		{"0", 0},
		{"7:05", 7 + 5.0/60},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseTime(tt.token)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseTime_Malformed(t *testing.T) {
	for _, token := range []string{"", "   ", "abc", "9h30", "-930", "9:-5", "-1:30", ":30", "9:", "9.5",
		"+930", "+9:30", "9:+5", "0x10", "9 30"} {
		t.Run(token, func(t *testing.T) {
			_, err := ParseTime(token)
			require.Error(t, err)
			var mte *MalformedTimeError
			assert.True(t, errors.As(err, &mte), "expected MalformedTimeError, got %T", err)
		})
	}
}

func TestParseClock_KeepsWrittenValue(t *testing.T) {
	c, err := ParseClock("25:10")
	require.NoError(t, err)
	assert.Equal(t, 25, c.Hours)
	assert.Equal(t, 10, c.Minutes)
	assert.Equal(t, "0110", c.HHMM())
}

func TestParseClock_RejectsOversizedComponents(t *testing.T) {
	c, err := ParseClock("9999:59")
	require.NoError(t, err)
	assert.Equal(t, MaxClockHours, c.Hours)

	c, err = ParseClock("999959")
	require.NoError(t, err)
	assert.Equal(t, MaxClockHours, c.Hours)
	assert.Equal(t, 59, c.Minutes)

	for _, token := range []string{"10000:00", "2147483648:00", "9:300", "1000000", "99999999999999999999"} {
		t.Run(token, func(t *testing.T) {
			_, err := ParseClock(token)
			var mte *MalformedTimeError
			require.True(t, errors.As(err, &mte), "got %v", err)
			assert.Contains(t, mte.Reason, "too large")
		})
	}
}

func TestParseHours(t *testing.T) {
	h, clock, err := ParseHours("9.5")
	require.NoError(t, err)
	assert.Equal(t, 9.5, h)
	assert.Equal(t, "0930", clock.HHMM())

	h, clock, err = ParseHours("10.9999")
	require.NoError(t, err)
	assert.InDelta(t, 10.9999, h, 1e-9)
	assert.Equal(t, "1100", clock.HHMM())

	for _, bad := range []string{"", "x", "-1", "NaN", "Inf", "10000", "1e12"} {
		_, _, err := ParseHours(bad)
		var mte *MalformedTimeError
		assert.True(t, errors.As(err, &mte), "token %q", bad)
	}
}
