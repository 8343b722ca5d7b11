package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewOf_DisjointBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		auctionAt time.Time
		want      View
		ok        bool
	}{
		{"ya empezada", now.Add(-time.Hour), ViewLive, true},
		{"exactamente ahora", now, ViewLive, true},
		{"en una hora", now.Add(time.Hour), ViewNext2h, true},
		{"exactamente +2h", now.Add(2 * time.Hour), ViewNext2h, true},
		{"en tres horas", now.Add(3 * time.Hour), ViewNext24h, true},
		{"exactamente +24h", now.Add(24 * time.Hour), ViewNext24h, true},
		{"más allá de 24h", now.Add(25 * time.Hour), 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ViewOf(tc.auctionAt, now)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestViewOf_ExactlyOneView(t *testing.T) {
	// Cada instante dentro del horizonte cae en exactamente una vista.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for h := -5.0; h <= 26; h += 0.25 {
		at := now.Add(time.Duration(h * float64(time.Hour)))
		matches := 0
		if _, ok := ViewOf(at, now); ok {
			matches = 1
		}
		if h <= 24 {
			assert.Equal(t, 1, matches, "offset %.2fh debe pertenecer a una vista", h)
		} else {
			assert.Equal(t, 0, matches, "offset %.2fh queda fuera del horizonte", h)
		}
	}
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "live", ViewLive.String())
	assert.Equal(t, "next_2h", ViewNext2h.String())
	assert.Equal(t, "next_24h", ViewNext24h.String())
}
