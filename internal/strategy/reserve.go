package strategy

import (
	"auctionengine/internal/models"
)

// reserve is english bidding plus a hidden reserve amount below which no
// bid, even the highest, is eligible to win. The reserve never influences
// admission, only resolution.
type reserve struct {
	english
	opts ReserveOptions
}

func (s *reserve) Type() models.AuctionType { return models.TypeReserve }

func (s *reserve) EligibleToWin(bid *models.Bid) bool {
	return bid.Amount.Value >= s.opts.ReservePrice
}
