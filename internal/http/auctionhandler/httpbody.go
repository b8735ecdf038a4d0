package auctionhandler

import (
	"encoding/json"
	"time"
)

type CreateAuctionBody struct {
	Title       string          `json:"title"        binding:"required"                       example:"vase"`
	SellerID    string          `json:"seller_id"    binding:"required"                       example:"seller123"`
	Currency    string          `json:"currency"     binding:"required,len=3"                 example:"USD"`
	Type        string          `json:"type"         binding:"required,oneof=ENGLISH RESERVE SEALED DUTCH"`
	Options     json.RawMessage `json:"options,omitempty"   swaggertype:"object"`
	StartsAt    time.Time       `json:"starts_at"    binding:"required" example:"2025-07-27T16:05:05Z"`
	Expiry      time.Time       `json:"expiry"       binding:"required" example:"2025-07-28T16:05:05Z"`
	OpenBidders bool            `json:"open_bidders"`
} // @name CreateAuctionRequest

type PlaceBidBody struct {
	BidderID string `json:"bidder_id" binding:"required"      example:"user123"`
	Amount   int64  `json:"amount"    binding:"required,gt=0" example:"1000"`
	Currency string `json:"currency"  binding:"required,len=3" example:"USD"`
} // @name PlaceBidRequest

type BidAcceptedResponse struct {
	BidID string `json:"bid_id"`
	Seq   int64  `json:"seq"`
} // @name BidAcceptedResponse

type AuctionResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	SellerID    string     `json:"seller_id"`
	Currency    string     `json:"currency"`
	Type        string     `json:"type"`
	Phase       string     `json:"phase"`
	StartsAt    time.Time  `json:"starts_at"`
	Expiry      time.Time  `json:"expiry"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	OpenBidders bool       `json:"open_bidders"`
	BidCount    int        `json:"bid_count"`
	HighBid     *int64     `json:"high_bid,omitempty"`
	HighBidder  string     `json:"high_bidder,omitempty"`
} // @name AuctionResponse

type ResultResponse struct {
	AuctionID  string    `json:"auction_id"`
	Winner     string    `json:"winner,omitempty"`
	WinningBid *int64    `json:"winning_bid,omitempty"`
	Price      *int64    `json:"price,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
} // @name ResultResponse

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=OPEN CLOSED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListAuctionsQuery
