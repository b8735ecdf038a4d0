package models

import (
	"encoding/json"
	"time"
)

// AuctionType selects which bidding strategy governs an auction.
// The set is closed; anything else is rejected at creation.
type AuctionType string

const (
	TypeEnglish AuctionType = "ENGLISH"
	TypeReserve AuctionType = "RESERVE"
	TypeSealed  AuctionType = "SEALED"
	TypeDutch   AuctionType = "DUTCH"
)

// Phase is the lifecycle state of an auction. It is derived from the
// stored timestamps plus the terminal Closed flag, never from wall clock
// alone, so a closed auction can never reopen.
type Phase string

const (
	PhaseScheduled Phase = "SCHEDULED"
	PhaseOpen      Phase = "OPEN"
	PhaseClosing   Phase = "CLOSING"
	PhaseClosed    Phase = "CLOSED"
)

// Auction is one listing. Currency and type are fixed at creation.
type Auction struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	SellerID    string          `json:"seller_id"`
	Currency    Currency        `json:"currency"`
	Type        AuctionType     `json:"type"`
	Options     json.RawMessage `json:"options,omitempty"`
	StartsAt    time.Time       `json:"starts_at"`
	Expiry      time.Time       `json:"expiry"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	OpenBidders bool            `json:"open_bidders"`
	Closed      bool            `json:"closed"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Deadline is the instant after which no further bids are accepted:
// the extended ends_at when set, the scheduled expiry otherwise.
func (a *Auction) Deadline() time.Time {
	if a.EndsAt != nil {
		return *a.EndsAt
	}
	return a.Expiry
}

// Bid is one admitted offer. Bids are immutable once admitted; Seq is the
// admission sequence assigned inside the exclusive section and is the only
// value used for tie-breaking (PlacedAt is informational).
type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    Amount    `json:"amount"`
	Seq       int64     `json:"seq"`
	PlacedAt  time.Time `json:"placed_at"`
}

// Snapshot is the engine's working view of an auction used to decide one
// bid's admissibility. It is recomputed from committed state on every
// decision; Version detects stale commits.
type Snapshot struct {
	Auction    Auction
	Phase      Phase
	LeadingBid *Bid
	Bidders    []string
	BidCount   int
	Version    int64
	NextSeq    int64
}

// HasBidder reports whether bidderID already placed a bid.
func (s *Snapshot) HasBidder(bidderID string) bool {
	for _, b := range s.Bidders {
		if b == bidderID {
			return true
		}
	}
	return false
}

// Result is the outcome of a closed auction. Winner nil means no eligible
// bid existed. Price is what the winner pays, which may differ from the
// winning bid amount (Vickrey sealed auctions).
type Result struct {
	AuctionID  string    `json:"auction_id"`
	Winner     *Bid      `json:"winner,omitempty"`
	Price      *Amount   `json:"price,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}
