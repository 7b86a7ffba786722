package models

import "time"

// Dataset summarizes a stored pair of ingested tables.
type Dataset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Explicit     bool      `json:"explicit"` // stations came from an explicit table
	StationCount int       `json:"stationCount"`
	TripCount    int       `json:"tripCount"`
	FirstDepart  float64   `json:"firstDepart"`
	LastArrive   float64   `json:"lastArrive"`
	CreatedAt    time.Time `json:"createdAt"`
}
