package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auctionengine/internal/models"
)

func TestPhaseAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := start.Add(time.Hour)
	extended := expiry.Add(10 * time.Minute)

	tests := []struct {
		name   string
		closed bool
		endsAt *time.Time
		now    time.Time
		want   models.Phase
	}{
		{name: "before_start", now: start.Add(-time.Second), want: models.PhaseScheduled},
		{name: "at_start", now: start, want: models.PhaseOpen},
		{name: "mid_window", now: start.Add(30 * time.Minute), want: models.PhaseOpen},
		{name: "at_expiry", now: expiry, want: models.PhaseClosing},
		{name: "after_expiry", now: expiry.Add(time.Minute), want: models.PhaseClosing},
		{name: "extended_still_open", endsAt: &extended, now: expiry.Add(time.Minute), want: models.PhaseOpen},
		{name: "extended_past", endsAt: &extended, now: extended, want: models.PhaseClosing},
		{name: "closed_flag_wins", closed: true, now: start.Add(time.Minute), want: models.PhaseClosed},
		{name: "closed_before_start_still_closed", closed: true, now: start.Add(-time.Hour), want: models.PhaseClosed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := &models.Auction{
				StartsAt: start,
				Expiry:   expiry,
				EndsAt:   tc.endsAt,
				Closed:   tc.closed,
			}
			require.Equal(t, tc.want, PhaseAt(a, tc.now))
		})
	}
}
