package engine

import (
	"auctionengine/internal/models"
	"auctionengine/internal/strategy"
)

// validateBid decides one candidate's admissibility against a snapshot.
// Checks run in a fixed order and short-circuit on the first failure. The
// function is pure; that purity is what makes the controller's per-auction
// lock sufficient for correctness.
func validateBid(snap *models.Snapshot, strat strategy.Strategy, candidate *models.Bid) *models.RejectionError {
	if snap.Phase != models.PhaseOpen {
		return models.Reject(models.RejectNotOpen, "auction phase is %s", snap.Phase)
	}
	if candidate.Amount.Currency != snap.Auction.Currency {
		return models.Reject(models.RejectCurrencyMismatch,
			"bid currency %s, auction currency %s", candidate.Amount.Currency, snap.Auction.Currency)
	}
	if candidate.Amount.Value <= 0 {
		return models.Reject(models.RejectInvalidAmount, "amount %d", candidate.Amount.Value)
	}
	if candidate.BidderID == snap.Auction.SellerID {
		return models.Reject(models.RejectSellerBid, "seller cannot bid on own auction")
	}
	return strat.IsBidAcceptable(snap, candidate)
}
