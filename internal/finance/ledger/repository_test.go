package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/bistro-suite/bistro/testing"
)

func TestListFiltersEndDateCoversWholeDay(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	req := ListRequest{DateStart: &start, DateEnd: &end}

	where, args := listFilters(req)
	assert.Contains(t, where, "entry_date >= $1")
	assert.Contains(t, where, "entry_date < $2")
	require.Len(t, args, 2)
	assert.Equal(t, start, args[0])
	// Exclusive upper bound at the next midnight keeps evening entries on the
	// end date inside the window.
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), args[1])
}

func TestDayWindowBounds(t *testing.T) {
	evening := time.Date(2026, 3, 31, 20, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), dayStart(evening))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), nextDay(evening))
	assert.True(t, evening.Before(nextDay(evening)))
}
