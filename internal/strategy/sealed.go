package strategy

import (
	"time"

	"auctionengine/internal/models"
)

// sealed accepts bids without comparison to any visible leader; validity is
// only well-formedness plus one bid per bidder. The standing price is not
// revealed until close.
type sealed struct {
	opts SealedOptions
}

func (s *sealed) Type() models.AuctionType { return models.TypeSealed }

func (s *sealed) IsBidAcceptable(snap *models.Snapshot, candidate *models.Bid) *models.RejectionError {
	if snap.HasBidder(candidate.BidderID) {
		return models.Reject(models.RejectAlreadyBid,
			"bidder %s already placed a sealed bid", candidate.BidderID)
	}
	return nil
}

func (s *sealed) CurrentPrice(snap *models.Snapshot, _ time.Time) models.Amount {
	// Sealed price stays hidden while bidding is open.
	return models.NewAmount(0, snap.Auction.Currency)
}

func (s *sealed) OnAccept(*models.Snapshot, *models.Bid, time.Time) Effect { return Effect{} }

func (s *sealed) EligibleToWin(*models.Bid) bool { return true }

func (s *sealed) WinningPrice(winner *models.Bid, history []models.Bid) models.Amount {
	if s.opts.Pricing != PricingVickrey {
		return winner.Amount
	}
	// Vickrey: the winner pays the highest losing amount. With a single
	// bid they pay their own.
	price := winner.Amount
	second := int64(-1)
	for i := range history {
		b := &history[i]
		if b.Seq == winner.Seq {
			continue
		}
		if b.Amount.Value > second {
			second = b.Amount.Value
		}
	}
	if second >= 0 {
		price = models.NewAmount(second, winner.Amount.Currency)
	}
	return price
}
