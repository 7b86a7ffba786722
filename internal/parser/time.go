package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/zigzag-timetable/backend/internal/models"
)

// MaxClockHours is the largest hour component a time token may carry.
const MaxClockHours = 9999

// Digit limits per component: hours up to MaxClockHours, minutes two digits.
const (
	hourDigits    = 4
	minuteDigits  = 2
	compactDigits = hourDigits + minuteDigits
)

// ParseClock reads a time token written as "HH:MM" or as compact "HHMM"/"HMM".
// Hours above 23 are kept so that trips can run into the next day. Only ASCII
// digits are accepted, so signs and hours beyond MaxClockHours are malformed.
func ParseClock(token string) (models.ClockTime, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "empty"}
	}

	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		hours, err := parseComponent(s[:idx], hourDigits)
		if err != nil {
			return models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "hours " + err.Error()}
		}
		minutes, err := parseComponent(s[idx+1:], minuteDigits)
		if err != nil {
			return models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "minutes " + err.Error()}
		}
		return models.ClockTime{Hours: hours, Minutes: minutes}, nil
	}

	n, err := parseComponent(s, compactDigits)
	if err != nil {
		return models.ClockTime{}, &MalformedTimeError{Token: token, Reason: err.Error()}
	}
	return models.ClockTime{Hours: n / 100, Minutes: n % 100}, nil
}

// ParseTime converts a time token into fractional hours.
func ParseTime(token string) (float64, error) {
	c, err := ParseClock(token)
	if err != nil {
		return 0, err
	}
	return c.Fractional(), nil
}

// ParseHours reads a decimal hour value such as "9.5", used by the
// deprecated DepHrs/ArrHrs columns. The clock is derived from the value.
func ParseHours(token string) (float64, models.ClockTime, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return 0, models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "empty"}
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "not a number"}
	}
	if h < 0 {
		return 0, models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "negative"}
	}
	if h >= MaxClockHours+1 {
		return 0, models.ClockTime{}, &MalformedTimeError{Token: token, Reason: "too large"}
	}

	whole := math.Floor(h)
	minutes := int(math.Round((h - whole) * 60))
	hours := int(whole)
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return h, models.ClockTime{Hours: hours, Minutes: minutes}, nil
}

type componentError string

func (e componentError) Error() string { return string(e) }

const (
	errNotNumeric componentError = "not numeric"
	errNegative   componentError = "negative"
	errTooLarge   componentError = "too large"
)

// parseComponent parses a run of at most maxDigits ASCII digits.
func parseComponent(s string, maxDigits int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errNotNumeric
	}
	if s[0] == '-' && len(s) > 1 && allDigits(s[1:]) {
		return 0, errNegative
	}
	if !allDigits(s) {
		return 0, errNotNumeric
	}
	if len(s) > maxDigits {
		return 0, errTooLarge
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errNotNumeric
	}
	return n, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
