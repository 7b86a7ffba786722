// Package stations derives station slots when no explicit station table is given.
package stations

import "github.com/zigzag-timetable/backend/internal/models"

// Index maps station names to integer slots assigned in order of first appearance.
type Index struct {
	order []string
	slots map[string]int
}

// BuildIndex scans trips in order and gives each station the next slot,
// starting at 1, the first time it appears as either end of a trip.
// A station keeps its slot for the rest of the scan.
func BuildIndex(trips []models.Trip) *Index {
	idx := &Index{slots: make(map[string]int)}
	for _, t := range trips {
		idx.add(t.From)
		idx.add(t.To)
	}
	return idx
}

func (idx *Index) add(name string) {
	if _, ok := idx.slots[name]; ok {
		return
	}
	idx.order = append(idx.order, name)
	idx.slots[name] = len(idx.order)
}

// Slot returns the slot of a station and whether it is known.
func (idx *Index) Slot(name string) (int, bool) {
	s, ok := idx.slots[name]
	return s, ok
}

// Len returns the number of stations.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Stations returns the stations in slot order, with the slot as position.
func (idx *Index) Stations() []models.Station {
	out := make([]models.Station, len(idx.order))
	for i, name := range idx.order {
		out[i] = models.Station{Name: name, Position: float64(i + 1)}
	}
	return out
}
