package stations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zigzag-timetable/backend/internal/models"
)

func TestBuildIndex_FirstAppearanceOrder(t *testing.T) {
	trips := []models.Trip{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "A"},
	}

	idx := BuildIndex(trips)
	require.Equal(t, 3, idx.Len())

	for name, want := range map[string]int{"A": 1, "B": 2, "C": 3} {
		got, ok := idx.Slot(name)
		assert.True(t, ok)
		assert.Equal(t, want, got, "slot of %s", name)
	}

	assert.Equal(t, []models.Station{
		{Name: "A", Position: 1},
		{Name: "B", Position: 2},
		{Name: "C", Position: 3},
	}, idx.Stations())
}

func TestBuildIndex_SlotsAreStable(t *testing.T) {
	trips := []models.Trip{
		{From: "Osaka", To: "Kyoto"},
		{From: "Kyoto", To: "Osaka"},
		{From: "Nagoya", To: "Kyoto"},
		{From: "Osaka", To: "Tokyo"},
	}

	idx := BuildIndex(trips)
	slot, _ := idx.Slot("Osaka")
	assert.Equal(t, 1, slot)
	slot, _ = idx.Slot("Tokyo")
	assert.Equal(t, 4, slot)

	_, ok := idx.Slot("Sendai")
	assert.False(t, ok)
}

func TestBuildIndex_Empty(t *testing.T) {
	idx := BuildIndex(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Stations())
}
