package strategy

import (
	"time"

	"auctionengine/internal/models"
)

// english is the standard ascending auction: every bid must beat the
// current leader by at least the configured minimum increment.
type english struct {
	opts EnglishOptions
}

func (s *english) Type() models.AuctionType { return models.TypeEnglish }

func (s *english) IsBidAcceptable(snap *models.Snapshot, candidate *models.Bid) *models.RejectionError {
	lead := snap.LeadingBid
	if lead == nil {
		return nil
	}
	// An equal-amount bid never replaces the standing leader: the earlier
	// admission sequence keeps the lead.
	if candidate.Amount.Value <= lead.Amount.Value {
		return models.Reject(models.RejectBelowThreshold,
			"bid %d does not exceed leading bid %d", candidate.Amount.Value, lead.Amount.Value)
	}
	if candidate.Amount.Value < lead.Amount.Value+s.opts.MinIncrement {
		return models.Reject(models.RejectBelowThreshold,
			"bid %d below leading bid %d plus increment %d",
			candidate.Amount.Value, lead.Amount.Value, s.opts.MinIncrement)
	}
	return nil
}

func (s *english) CurrentPrice(snap *models.Snapshot, _ time.Time) models.Amount {
	if snap.LeadingBid != nil {
		return snap.LeadingBid.Amount
	}
	return models.NewAmount(0, snap.Auction.Currency)
}

func (s *english) OnAccept(snap *models.Snapshot, _ *models.Bid, now time.Time) Effect {
	return snipingExtension(s.opts, snap, now)
}

func (s *english) EligibleToWin(*models.Bid) bool { return true }

func (s *english) WinningPrice(winner *models.Bid, _ []models.Bid) models.Amount {
	return winner.Amount
}

// snipingExtension pushes the deadline back when a bid lands inside the
// configured window before it. The new deadline only ever lengthens.
func snipingExtension(opts EnglishOptions, snap *models.Snapshot, now time.Time) Effect {
	if opts.SnipingWindowSecs <= 0 || opts.SnipingExtensionSecs <= 0 {
		return Effect{}
	}
	deadline := snap.Auction.Deadline()
	window := time.Duration(opts.SnipingWindowSecs) * time.Second
	if deadline.Sub(now) > window {
		return Effect{}
	}
	extended := deadline.Add(time.Duration(opts.SnipingExtensionSecs) * time.Second)
	return Effect{NewEndsAt: &extended}
}
