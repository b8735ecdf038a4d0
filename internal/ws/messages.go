package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/bid"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// BidRequest is the body for "auctions/bid". Amount is in integer minor
// units of the auction's currency.
type BidRequest struct {
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// BidAck confirms an admitted bid.
type BidAck struct {
	BidID string `json:"bid_id"`
	Seq   int64  `json:"seq"`
}

// SnapshotBody is the initial auction state pushed to a joining client.
type SnapshotBody struct {
	Phase      string `json:"phase"`
	Currency   string `json:"currency"`
	StartsAt   int64  `json:"starts_at"`
	EndsAt     int64  `json:"ends_at"`
	BidCount   int    `json:"bid_count"`
	HighBid    *int64 `json:"high_bid,omitempty"`
	HighBidder string `json:"high_bidder,omitempty"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
