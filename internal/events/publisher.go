package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionengine/internal/models"
)

// Publisher fans engine decisions out to interested parties (websocket
// rooms on this or any other instance). Publishing is best effort: a lost
// event never affects the committed state.
type Publisher interface {
	BidAccepted(ctx context.Context, a *models.Auction, bid *models.Bid, deadline time.Time)
	AuctionClosed(ctx context.Context, auctionID string, res *models.Result)
}

// Channel is the Redis pub/sub channel carrying one auction's events.
func Channel(auctionID string) string {
	return "auc:" + auctionID + ":events"
}

type redisPublisher struct {
	rdc *redis.Client
}

// NewRedis publishes events on auc:<id>:events.
func NewRedis(rdc *redis.Client) Publisher {
	return &redisPublisher{rdc: rdc}
}

type bidEvent struct {
	Event    string `json:"event"`
	BidID    string `json:"bid_id"`
	Bidder   string `json:"bidder,omitempty"`
	Amount   *int64 `json:"amount,omitempty"`
	Currency string `json:"currency"`
	Seq      int64  `json:"seq"`
	EndsAt   int64  `json:"ends_at"`
}

type closedEvent struct {
	Event  string `json:"event"`
	Winner string `json:"winner,omitempty"`
	Price  *int64 `json:"price,omitempty"`
}

func (p *redisPublisher) BidAccepted(ctx context.Context, a *models.Auction, bid *models.Bid, deadline time.Time) {
	ev := bidEvent{
		Event:    "bid",
		BidID:    bid.ID,
		Currency: string(bid.Amount.Currency),
		Seq:      bid.Seq,
		EndsAt:   deadline.Unix(),
	}
	// Sealed amounts stay hidden until close; bidder identity is shown
	// only on open-bidder auctions.
	if a.Type != models.TypeSealed {
		amount := bid.Amount.Value
		ev.Amount = &amount
	}
	if a.OpenBidders {
		ev.Bidder = bid.BidderID
	}
	p.publish(ctx, a.ID, ev)
}

func (p *redisPublisher) AuctionClosed(ctx context.Context, auctionID string, res *models.Result) {
	ev := closedEvent{Event: "closed"}
	if res.Winner != nil {
		ev.Winner = res.Winner.BidderID
		price := res.Price.Value
		ev.Price = &price
	}
	p.publish(ctx, auctionID, ev)
}

func (p *redisPublisher) publish(ctx context.Context, auctionID string, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		zap.L().Warn("events.marshal", zap.Error(err))
		return
	}
	if err := p.rdc.Publish(ctx, Channel(auctionID), payload).Err(); err != nil {
		zap.L().Warn("events.publish",
			zap.String("auction_id", auctionID), zap.Error(err))
	}
}

type nopPublisher struct{}

func (nopPublisher) BidAccepted(context.Context, *models.Auction, *models.Bid, time.Time) {}
func (nopPublisher) AuctionClosed(context.Context, string, *models.Result)               {}

// Nop discards all events.
func Nop() Publisher { return nopPublisher{} }
