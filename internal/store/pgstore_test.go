package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"auctionengine/internal/models"
)

func newMockStore(t *testing.T) (*PgStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPgStore(db), mock
}

func TestPgStoreCreateAuction(t *testing.T) {
	st, mock := newMockStore(t)
	a := memAuction("a1")
	a.CreatedAt = memStart

	mock.ExpectExec(`INSERT INTO auctions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, st.CreateAuction(context.Background(), a))
}

func TestPgStoreCreateAuctionExists(t *testing.T) {
	st, mock := newMockStore(t)
	a := memAuction("a1")

	mock.ExpectExec(`INSERT INTO auctions`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, st.CreateAuction(context.Background(), a), ErrExists)
}

func snapshotColumns() []string {
	return []string{
		"id", "title", "seller_id", "currency", "auction_type", "options",
		"starts_at", "expiry", "ends_at", "open_bidders", "closed", "version", "next_seq",
		"high_bid_id", "high_bidder", "high_bid", "high_seq", "high_placed_at",
		"created_at", "updated_at", "bid_count",
	}
}

func TestPgStoreLoadSnapshot(t *testing.T) {
	st, mock := newMockStore(t)
	placedAt := memStart.Add(time.Minute)

	mock.ExpectQuery(`SELECT .+ FROM auctions WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(snapshotColumns()).AddRow(
			"a1", "test lot", "seller-1", "USD", "ENGLISH", []byte(`{"min_increment":100}`),
			memStart, memStart.Add(time.Hour), nil, false, false, int64(2), int64(3),
			"bid-bob", "bob", int64(2000), int64(2), placedAt,
			memStart, placedAt, 2))
	mock.ExpectQuery(`SELECT DISTINCT bidder_id FROM bids`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"bidder_id"}).
			AddRow("alice").AddRow("bob"))

	snap, err := st.LoadSnapshot(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, int64(2), snap.Version)
	require.Equal(t, int64(3), snap.NextSeq)
	require.Equal(t, 2, snap.BidCount)
	require.NotNil(t, snap.LeadingBid)
	require.Equal(t, "bob", snap.LeadingBid.BidderID)
	require.Equal(t, int64(2000), snap.LeadingBid.Amount.Value)
	require.Equal(t, usd, snap.LeadingBid.Amount.Currency)
	require.Equal(t, []string{"alice", "bob"}, snap.Bidders)
	require.True(t, snap.HasBidder("alice"))
	require.False(t, snap.HasBidder("carol"))
}

func TestPgStoreLoadSnapshotNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM auctions WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(snapshotColumns()))
	_, err := st.LoadSnapshot(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPgStoreAppendBid(t *testing.T) {
	st, mock := newMockStore(t)
	bid := memBid("a1", "alice", 1000, 1)
	lead := LeaderState{Version: 0, LeadingBid: bid, NextSeq: 2}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE auctions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bids`).
		WithArgs(bid.AuctionID, bid.Seq, bid.ID, bid.BidderID,
			bid.Amount.Value, "USD", bid.PlacedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.AppendBidAndUpdateLeader(context.Background(), "a1", bid, lead))
}

func TestPgStoreAppendBidConflict(t *testing.T) {
	st, mock := newMockStore(t)
	bid := memBid("a1", "alice", 1000, 1)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE auctions`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := st.AppendBidAndUpdateLeader(context.Background(), "a1", bid,
		LeaderState{Version: 5, LeadingBid: bid, NextSeq: 2})
	require.ErrorIs(t, err, ErrConflict)
}

func TestPgStoreAppendBidUnknownAuction(t *testing.T) {
	st, mock := newMockStore(t)
	bid := memBid("ghost", "alice", 1000, 1)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE auctions`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := st.AppendBidAndUpdateLeader(context.Background(), "ghost", bid,
		LeaderState{Version: 0, LeadingBid: bid, NextSeq: 2})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPgStoreMarkClosed(t *testing.T) {
	st, mock := newMockStore(t)
	price := models.NewAmount(1000, usd)
	res := &models.Result{
		AuctionID:  "a1",
		Winner:     memBid("a1", "alice", 1000, 1),
		Price:      &price,
		ResolvedAt: memStart.Add(time.Hour),
	}

	mock.ExpectExec(`UPDATE auctions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, st.MarkClosed(context.Background(), "a1", res, 3))

	mock.ExpectExec(`UPDATE auctions`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, st.MarkClosed(context.Background(), "a1", res, 3), ErrConflict)
}

func TestPgStoreLoadResult(t *testing.T) {
	st, mock := newMockStore(t)
	resolvedAt := memStart.Add(time.Hour)
	placedAt := memStart.Add(time.Minute)
	cols := []string{
		"currency", "closed", "winner_seq", "price", "resolved_at",
		"id", "bidder_id", "amount", "placed_at",
	}

	t.Run("resolved_with_winner", func(t *testing.T) {
		mock.ExpectQuery(`SELECT a\.currency`).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(
				"USD", true, int64(2), int64(700), resolvedAt,
				"bid-2", "bob", int64(700), placedAt))
		res, err := st.LoadResult(context.Background(), "a1")
		require.NoError(t, err)
		require.NotNil(t, res.Winner)
		require.Equal(t, "bob", res.Winner.BidderID)
		require.Equal(t, int64(700), res.Price.Value)
		require.Equal(t, resolvedAt, res.ResolvedAt)
	})

	t.Run("resolved_no_winner", func(t *testing.T) {
		mock.ExpectQuery(`SELECT a\.currency`).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(
				"USD", true, nil, nil, resolvedAt,
				nil, nil, nil, nil))
		res, err := st.LoadResult(context.Background(), "a1")
		require.NoError(t, err)
		require.NotNil(t, res)
		require.Nil(t, res.Winner)
	})

	t.Run("still_open", func(t *testing.T) {
		mock.ExpectQuery(`SELECT a\.currency`).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(
				"USD", false, nil, nil, nil,
				nil, nil, nil, nil))
		res, err := st.LoadResult(context.Background(), "a1")
		require.NoError(t, err)
		require.Nil(t, res)
	})

	t.Run("not_found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT a\.currency`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(cols))
		_, err := st.LoadResult(context.Background(), "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPgStoreListDue(t *testing.T) {
	st, mock := newMockStore(t)
	now := memStart.Add(2 * time.Hour)

	mock.ExpectQuery(`SELECT id FROM auctions`).
		WithArgs(now, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1").AddRow("a2"))

	ids, err := st.ListDue(context.Background(), now, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a2"}, ids)
}

func TestPgStoreLoadBidHistory(t *testing.T) {
	st, mock := newMockStore(t)
	placedAt := memStart.Add(time.Minute)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT id, bidder_id, amount, currency, seq, placed_at`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "bidder_id", "amount", "currency", "seq", "placed_at"}).
			AddRow("b1", "alice", int64(500), "USD", int64(1), placedAt).
			AddRow("b2", "bob", int64(700), "USD", int64(2), placedAt))

	history, err := st.LoadBidHistory(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, int64(1), history[0].Seq)
	require.Equal(t, usd, history[0].Amount.Currency)
	require.Equal(t, "a1", history[1].AuctionID)
}
