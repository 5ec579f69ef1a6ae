package epg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGuide(programs ...Program) *Guide {
	guide := &Guide{
		Channels: map[string]Channel{
			"ch": {ID: "ch", DisplayName: "Test Channel"},
		},
		Programs: map[string][]Program{},
	}
	for _, p := range programs {
		guide.Programs[p.Channel] = append(guide.Programs[p.Channel], p)
	}
	return guide
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func TestCurrentAndNext(t *testing.T) {
	guide := testGuide(
		Program{Channel: "ch", Title: "A", Start: at(10, 0), Stop: at(10, 30)},
		Program{Channel: "ch", Title: "B", Start: at(10, 30), Stop: at(11, 0)},
	)

	t.Run("mid program", func(t *testing.T) {
		current, next := CurrentAndNext(guide, "ch", at(10, 15))
		require.NotNil(t, current)
		assert.Equal(t, "A", current.Title)
		require.NotNil(t, next)
		assert.Equal(t, "B", next.Title)
	})

	t.Run("boundary belongs to the next program", func(t *testing.T) {
		current, next := CurrentAndNext(guide, "ch", at(10, 30))
		require.NotNil(t, current)
		assert.Equal(t, "B", current.Title)
		assert.Nil(t, next, "B is the last entry")
	})

	t.Run("gap yields neither", func(t *testing.T) {
		current, next := CurrentAndNext(guide, "ch", at(9, 0))
		assert.Nil(t, current)
		assert.Nil(t, next)
	})

	t.Run("after the schedule", func(t *testing.T) {
		current, next := CurrentAndNext(guide, "ch", at(11, 30))
		assert.Nil(t, current)
		assert.Nil(t, next)
	})

	t.Run("unknown channel", func(t *testing.T) {
		current, next := CurrentAndNext(guide, "nope", at(10, 15))
		assert.Nil(t, current)
		assert.Nil(t, next)
	})
}

func TestUpcoming(t *testing.T) {
	guide := testGuide(
		Program{Channel: "ch", Title: "Started", Start: at(10, 0), Stop: at(11, 0)},
		Program{Channel: "ch", Title: "Noon", Start: at(12, 0), Stop: at(13, 0)},
		Program{Channel: "ch", Title: "Afternoon", Start: at(14, 30), Stop: at(15, 30)},
	)

	t.Run("window excludes already started and out of range", func(t *testing.T) {
		// [10:05, 14:05): "Started" began before now, "Afternoon" starts after the window.
		got := Upcoming(guide, "ch", at(10, 5), 4*time.Hour)
		require.Len(t, got, 1)
		assert.Equal(t, "Noon", got[0].Title)
	})

	t.Run("wider window keeps ascending order", func(t *testing.T) {
		got := Upcoming(guide, "ch", at(10, 5), 6*time.Hour)
		require.Len(t, got, 2)
		assert.Equal(t, "Noon", got[0].Title)
		assert.Equal(t, "Afternoon", got[1].Title)
	})

	t.Run("start exactly at now is included", func(t *testing.T) {
		got := Upcoming(guide, "ch", at(12, 0), time.Hour)
		require.Len(t, got, 1)
		assert.Equal(t, "Noon", got[0].Title)
	})

	t.Run("start exactly at window end is excluded", func(t *testing.T) {
		// [10:00, 12:00): "Started" begins exactly at now, "Noon" exactly at the end.
		got := Upcoming(guide, "ch", at(10, 0), 2*time.Hour)
		require.Len(t, got, 1)
		assert.Equal(t, "Started", got[0].Title)
	})

	t.Run("no programs", func(t *testing.T) {
		assert.Empty(t, Upcoming(guide, "empty", at(10, 0), 24*time.Hour))
	})
}
