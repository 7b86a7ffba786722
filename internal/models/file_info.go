package models

import "time"

// TableKind identifies which of the two input tables a file holds.
type TableKind string

const (
	TableKindStations TableKind = "stations"
	TableKindTrips    TableKind = "trips"
)

// Valid reports whether k names a known table kind.
func (k TableKind) Valid() bool {
	return k == TableKindStations || k == TableKindTrips
}

// FileInfo represents metadata about an uploaded table file.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       TableKind `json:"kind,omitempty"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
