package strategy

import (
	"time"

	"auctionengine/internal/models"
)

// dutch descends from the start price by a fixed decrement per interval
// until the floor. The first bid at or above the current price wins and
// immediately ends the auction.
type dutch struct {
	opts DutchOptions
}

func (s *dutch) Type() models.AuctionType { return models.TypeDutch }

func (s *dutch) IsBidAcceptable(snap *models.Snapshot, candidate *models.Bid) *models.RejectionError {
	price := s.CurrentPrice(snap, candidate.PlacedAt)
	if candidate.Amount.Value < price.Value {
		return models.Reject(models.RejectBelowThreshold,
			"bid %d below current price %d", candidate.Amount.Value, price.Value)
	}
	return nil
}

func (s *dutch) CurrentPrice(snap *models.Snapshot, now time.Time) models.Amount {
	price := s.opts.StartPrice
	if elapsed := now.Sub(snap.Auction.StartsAt); elapsed > 0 {
		steps := int64(elapsed / (time.Duration(s.opts.IntervalSecs) * time.Second))
		price -= steps * s.opts.Decrement
	}
	if price < s.opts.FloorPrice {
		price = s.opts.FloorPrice
	}
	return models.NewAmount(price, snap.Auction.Currency)
}

func (s *dutch) OnAccept(*models.Snapshot, *models.Bid, time.Time) Effect {
	// First acceptable bid ends the auction.
	return Effect{CloseNow: true}
}

func (s *dutch) EligibleToWin(*models.Bid) bool { return true }

func (s *dutch) WinningPrice(winner *models.Bid, _ []models.Bid) models.Amount {
	return winner.Amount
}
