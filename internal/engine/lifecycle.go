package engine

import (
	"time"

	"auctionengine/internal/models"
)

// PhaseAt derives the lifecycle phase of an auction at the given instant.
// The terminal Closed flag always wins so a closed auction never reopens
// under clock skew; Closing is the transient window between the deadline
// passing and the resolver producing a result.
func PhaseAt(a *models.Auction, now time.Time) models.Phase {
	if a.Closed {
		return models.PhaseClosed
	}
	if now.Before(a.StartsAt) {
		return models.PhaseScheduled
	}
	if !now.Before(a.Deadline()) {
		return models.PhaseClosing
	}
	return models.PhaseOpen
}
