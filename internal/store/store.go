package store

import (
	"context"
	"errors"
	"time"

	"auctionengine/internal/models"
)

var (
	// ErrNotFound means no auction exists under the given id.
	ErrNotFound = errors.New("auction not found")
	// ErrExists means an auction with the given id was already created.
	ErrExists = errors.New("auction already exists")
	// ErrConflict means the snapshot the caller decided on went stale
	// before the commit; the caller must redo the decide-and-commit step
	// from a fresh snapshot.
	ErrConflict = errors.New("stale auction snapshot")
)

// LeaderState is the new leading-bid state committed together with an
// admitted bid. Version must match the version of the snapshot the
// decision was made against or the commit fails with ErrConflict.
type LeaderState struct {
	Version    int64
	LeadingBid *models.Bid
	// EndsAt, when set, replaces the auction deadline (anti-sniping
	// extension, or the dutch immediate close).
	EndsAt  *time.Time
	NextSeq int64
}

// Store is the durable collaborator of the engine. Implementations must
// make AppendBidAndUpdateLeader and MarkClosed atomic and stale-detecting.
type Store interface {
	CreateAuction(ctx context.Context, a *models.Auction) error
	LoadSnapshot(ctx context.Context, auctionID string) (*models.Snapshot, error)
	AppendBidAndUpdateLeader(ctx context.Context, auctionID string, bid *models.Bid, lead LeaderState) error
	LoadBidHistory(ctx context.Context, auctionID string) ([]models.Bid, error)
	MarkClosed(ctx context.Context, auctionID string, res *models.Result, version int64) error
	LoadResult(ctx context.Context, auctionID string) (*models.Result, error)
	ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error)
	// ListDue returns ids of auctions whose deadline has passed but whose
	// result has not been produced yet.
	ListDue(ctx context.Context, now time.Time, limit int) ([]string, error)
}
