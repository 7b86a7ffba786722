// Package models contains domain types for the zigzag timetable diagram.
package models

// Station is a named reference point on the vertical axis.
// Position is either an integer slot (implicit mode) or an explicit Y value.
type Station struct {
	Name     string  `json:"name" msgpack:"name"`
	Position float64 `json:"position" msgpack:"position"`
}
