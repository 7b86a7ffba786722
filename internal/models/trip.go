package models

import "fmt"

// DefaultTripStyle is the style tag used when a trip row carries no styleclass.
const DefaultTripStyle = "trainZigZag"

// ClockTime is a time of day exactly as it was written in the input.
// Hours may exceed 23 for trips running past midnight.
type ClockTime struct {
	Hours   int `json:"hours" msgpack:"hours"`
	Minutes int `json:"minutes" msgpack:"minutes"`
}

// Fractional returns the clock as fractional hours.
func (c ClockTime) Fractional() float64 {
	return float64(c.Hours) + float64(c.Minutes)/60
}

// HHMM formats the clock as a zero-padded four digit label, wrapped at 2400.
func (c ClockTime) HHMM() string {
	return fmt.Sprintf("%04d", (c.Hours*100+c.Minutes)%2400)
}

// Trip is a single train movement between two stations.
type Trip struct {
	From        string    `json:"from" msgpack:"from"`
	To          string    `json:"to" msgpack:"to"`
	Depart      float64   `json:"depart" msgpack:"depart"` // fractional hours
	Arrive      float64   `json:"arrive" msgpack:"arrive"` // fractional hours
	DepartClock ClockTime `json:"departClock" msgpack:"departClock"`
	ArriveClock ClockTime `json:"arriveClock" msgpack:"arriveClock"`
	Style       string    `json:"style" msgpack:"style"`
	Line        int       `json:"line,omitempty" msgpack:"line,omitempty"` // source line, 0 when unknown
}
