package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"auctionengine/internal/models"
)

const usd = models.Currency("USD")

func TestChannel(t *testing.T) {
	require.Equal(t, "auc:a1:events", Channel("a1"))
}

func testBid() *models.Bid {
	return &models.Bid{
		ID:        "bid-1",
		AuctionID: "a1",
		BidderID:  "alice",
		Amount:    models.NewAmount(1000, usd),
		Seq:       3,
	}
}

func TestBidAcceptedEvent(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		auction models.Auction
		want    bidEvent
	}{
		{
			name:    "open_auction_full_event",
			auction: models.Auction{ID: "a1", Type: models.TypeEnglish, OpenBidders: true},
			want: bidEvent{
				Event: "bid", BidID: "bid-1", Bidder: "alice",
				Amount: int64Ptr(1000), Currency: "USD", Seq: 3,
				EndsAt: deadline.Unix(),
			},
		},
		{
			name:    "anonymous_bidders",
			auction: models.Auction{ID: "a1", Type: models.TypeEnglish},
			want: bidEvent{
				Event: "bid", BidID: "bid-1",
				Amount: int64Ptr(1000), Currency: "USD", Seq: 3,
				EndsAt: deadline.Unix(),
			},
		},
		{
			name:    "sealed_amount_hidden",
			auction: models.Auction{ID: "a1", Type: models.TypeSealed, OpenBidders: true},
			want: bidEvent{
				Event: "bid", BidID: "bid-1", Bidder: "alice",
				Currency: "USD", Seq: 3,
				EndsAt: deadline.Unix(),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rdc, mock := redismock.NewClientMock()
			payload, err := json.Marshal(tc.want)
			require.NoError(t, err)
			mock.ExpectPublish(Channel("a1"), payload).SetVal(1)

			pub := NewRedis(rdc)
			pub.BidAccepted(context.Background(), &tc.auction, testBid(), deadline)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAuctionClosedEvent(t *testing.T) {
	t.Run("with_winner", func(t *testing.T) {
		rdc, mock := redismock.NewClientMock()
		price := models.NewAmount(700, usd)
		payload, err := json.Marshal(closedEvent{Event: "closed", Winner: "bob", Price: int64Ptr(700)})
		require.NoError(t, err)
		mock.ExpectPublish(Channel("a1"), payload).SetVal(1)

		pub := NewRedis(rdc)
		pub.AuctionClosed(context.Background(), "a1", &models.Result{
			AuctionID: "a1",
			Winner:    &models.Bid{BidderID: "bob"},
			Price:     &price,
		})
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no_winner", func(t *testing.T) {
		rdc, mock := redismock.NewClientMock()
		payload, err := json.Marshal(closedEvent{Event: "closed"})
		require.NoError(t, err)
		mock.ExpectPublish(Channel("a1"), payload).SetVal(1)

		pub := NewRedis(rdc)
		pub.AuctionClosed(context.Background(), "a1", &models.Result{AuctionID: "a1"})
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func int64Ptr(v int64) *int64 { return &v }
