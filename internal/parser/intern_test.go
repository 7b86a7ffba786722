package parser

import (
	"strconv"
	"testing"
	"unsafe"
)

func sameBacking(a, b string) bool {
	return unsafe.StringData(a) == unsafe.StringData(b)
}

func TestNameTable(t *testing.T) {
	nt := newNameTable()

	row1 := []string{"Tokyo", "Osaka"}
	row2 := []string{"Osaka", "Tokyo"}

	a := nt.intern(row1[0])
	b := nt.intern(row2[1])
	if a != "Tokyo" || !sameBacking(a, b) {
		t.Error("Expected equal names to share one string")
	}
	if sameBacking(nt.intern(row1[1]), a) {
		t.Error("Expected different names to stay distinct")
	}
	if nt.len() != 2 {
		t.Errorf("Expected pool size 2, got %d", nt.len())
	}
}

func TestNameTable_Cap(t *testing.T) {
	nt := newNameTable()
	for i := 0; i < maxNamePoolSize; i++ {
		nt.intern(strconv.Itoa(i))
	}

	extra := nt.intern("overflow")
	if extra != "overflow" {
		t.Errorf("Expected value returned unchanged, got %q", extra)
	}
	if nt.len() != maxNamePoolSize {
		t.Errorf("Expected pool to stop at %d, got %d", maxNamePoolSize, nt.len())
	}
}

func TestIngest_SharesStationNames(t *testing.T) {
	trips := &RawTable{
		Name:    "trips",
		Headers: []string{"from", "to", "depart", "arrive"},
		Rows: []RawRow{
			{Line: 2, Cells: []string{"Tokyo", "Osaka", "9:00", "11:00"}},
			{Line: 3, Cells: []string{"Osaka", "Tokyo", "12:00", "14:00"}},
		},
	}

	res, err := Ingest(nil, trips)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !sameBacking(res.Trips[0].From, res.Trips[1].To) {
		t.Error("Expected trips to share the station name")
	}
	if !sameBacking(res.Trips[0].Style, res.Trips[1].Style) {
		t.Error("Expected trips to share the style tag")
	}
}
