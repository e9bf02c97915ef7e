package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/campusnotify/pkg/geo"
)

func TestMemoryRoster(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRoster(10 * time.Minute)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Report("a", "driver", geo.Coordinate{Latitude: 6.17, Longitude: 1.21}))
	assert.ErrorIs(t, r.Report("", "driver", geo.Coordinate{}), ErrRecipientRequired)
	assert.ErrorIs(t, r.Report("b", "driver", geo.Coordinate{Latitude: 100}), geo.ErrInvalidCoordinate)

	got, err := r.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].UserID)

	now = now.Add(11 * time.Minute)
	got, err = r.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "stale positions are hidden")

	require.NoError(t, r.Report("a", "driver", geo.Coordinate{Latitude: 6.17, Longitude: 1.21}))
	r.Forget("a")
	got, err = r.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
