package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auctionengine/internal/models"
)

// PgStore persists auctions and bids in Postgres. The leading bid is
// denormalized onto the auctions row (high_* columns) so a snapshot load is
// one row plus the bidder set; the version column carries the optimistic
// check that AppendBidAndUpdateLeader and MarkClosed rely on.
type PgStore struct {
	db *sql.DB
}

func NewPgStore(db *sql.DB) *PgStore { return &PgStore{db: db} }

// EnsureSchema creates the auctions/bids tables when missing.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS auctions (
	    id            text PRIMARY KEY,
	    title         text NOT NULL,
	    seller_id     text NOT NULL,
	    currency      char(3) NOT NULL,
	    auction_type  text NOT NULL,
	    options       jsonb,
	    starts_at     timestamptz NOT NULL,
	    expiry        timestamptz NOT NULL,
	    ends_at       timestamptz,
	    open_bidders  boolean NOT NULL DEFAULT false,
	    closed        boolean NOT NULL DEFAULT false,
	    version       bigint NOT NULL DEFAULT 0,
	    next_seq      bigint NOT NULL DEFAULT 1,
	    high_bid_id   text,
	    high_bidder   text,
	    high_bid      bigint,
	    high_seq      bigint,
	    high_placed_at timestamptz,
	    winner_seq    bigint,
	    price         bigint,
	    resolved_at   timestamptz,
	    created_at    timestamptz NOT NULL DEFAULT now(),
	    updated_at    timestamptz NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS bids (
	    auction_id text NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
	    seq        bigint NOT NULL,
	    id         text NOT NULL,
	    bidder_id  text NOT NULL,
	    amount     bigint NOT NULL,
	    currency   char(3) NOT NULL,
	    placed_at  timestamptz NOT NULL,
	    PRIMARY KEY (auction_id, seq)
	);
	CREATE INDEX IF NOT EXISTS auctions_due_idx
	    ON auctions (closed, starts_at, expiry, ends_at);`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *PgStore) CreateAuction(ctx context.Context, a *models.Auction) error {
	const ins = `
	INSERT INTO auctions (id, title, seller_id, currency, auction_type, options,
	                      starts_at, expiry, open_bidders, created_at, updated_at)
	     VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
	ON CONFLICT (id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, ins,
		a.ID, a.Title, a.SellerID, string(a.Currency), string(a.Type),
		[]byte(a.Options), a.StartsAt, a.Expiry, a.OpenBidders, a.CreatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

func (s *PgStore) LoadSnapshot(ctx context.Context, auctionID string) (*models.Snapshot, error) {
	const q = `
	SELECT id, title, seller_id, currency, auction_type, coalesce(options,'null'::jsonb),
	       starts_at, expiry, ends_at, open_bidders, closed, version, next_seq,
	       high_bid_id, high_bidder, high_bid, high_seq, high_placed_at,
	       created_at, updated_at,
	       (SELECT count(*) FROM bids b WHERE b.auction_id = auctions.id)
	  FROM auctions WHERE id = $1`
	row := s.db.QueryRowContext(ctx, q, auctionID)

	var (
		snap     models.Snapshot
		currency string
		typ      string
		options  []byte
		endsAt   sql.NullTime
		highID   sql.NullString
		highUser sql.NullString
		highBid  sql.NullInt64
		highSeq  sql.NullInt64
		highAt   sql.NullTime
	)
	a := &snap.Auction
	err := row.Scan(&a.ID, &a.Title, &a.SellerID, &currency, &typ, &options,
		&a.StartsAt, &a.Expiry, &endsAt, &a.OpenBidders, &a.Closed,
		&snap.Version, &snap.NextSeq,
		&highID, &highUser, &highBid, &highSeq, &highAt,
		&a.CreatedAt, &a.UpdatedAt, &snap.BidCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Currency = models.Currency(currency)
	a.Type = models.AuctionType(typ)
	if string(options) != "null" {
		a.Options = options
	}
	if endsAt.Valid {
		t := endsAt.Time
		a.EndsAt = &t
	}
	if highID.Valid {
		snap.LeadingBid = &models.Bid{
			ID:        highID.String,
			AuctionID: a.ID,
			BidderID:  highUser.String,
			Amount:    models.NewAmount(highBid.Int64, a.Currency),
			Seq:       highSeq.Int64,
			PlacedAt:  highAt.Time,
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT bidder_id FROM bids WHERE auction_id = $1`, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var bidder string
		if err := rows.Scan(&bidder); err != nil {
			return nil, err
		}
		snap.Bidders = append(snap.Bidders, bidder)
	}
	return &snap, rows.Err()
}

func (s *PgStore) AppendBidAndUpdateLeader(ctx context.Context, auctionID string, bid *models.Bid, lead LeaderState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upd = `
	UPDATE auctions
	   SET version = version + 1,
	       next_seq = $3,
	       ends_at = coalesce($4, ends_at),
	       high_bid_id = coalesce($5, high_bid_id),
	       high_bidder = coalesce($6, high_bidder),
	       high_bid = coalesce($7, high_bid),
	       high_seq = coalesce($8, high_seq),
	       high_placed_at = coalesce($9, high_placed_at),
	       updated_at = $10
	 WHERE id = $1 AND version = $2 AND NOT closed`
	var (
		leadID     *string
		leadUser   *string
		leadAmount *int64
		leadSeq    *int64
		leadAt     *time.Time
	)
	if lead.LeadingBid != nil {
		leadID = &lead.LeadingBid.ID
		leadUser = &lead.LeadingBid.BidderID
		leadAmount = &lead.LeadingBid.Amount.Value
		leadSeq = &lead.LeadingBid.Seq
		leadAt = &lead.LeadingBid.PlacedAt
	}
	res, err := tx.ExecContext(ctx, upd, auctionID, lead.Version, lead.NextSeq,
		lead.EndsAt, leadID, leadUser, leadAmount, leadSeq, leadAt, bid.PlacedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the auction is unknown or another commit moved the
		// version; distinguish so the controller can retry conflicts.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM auctions WHERE id = $1)`, auctionID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}

	const ins = `
	INSERT INTO bids (auction_id, seq, id, bidder_id, amount, currency, placed_at)
	     VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.ExecContext(ctx, ins,
		bid.AuctionID, bid.Seq, bid.ID, bid.BidderID,
		bid.Amount.Value, string(bid.Amount.Currency), bid.PlacedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PgStore) LoadBidHistory(ctx context.Context, auctionID string) ([]models.Bid, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auctions WHERE id = $1)`, auctionID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	const q = `
	SELECT id, bidder_id, amount, currency, seq, placed_at
	  FROM bids WHERE auction_id = $1 ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, q, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []models.Bid
	for rows.Next() {
		b := models.Bid{AuctionID: auctionID}
		var currency string
		if err := rows.Scan(&b.ID, &b.BidderID, &b.Amount.Value, &currency, &b.Seq, &b.PlacedAt); err != nil {
			return nil, err
		}
		b.Amount.Currency = models.Currency(currency)
		history = append(history, b)
	}
	return history, rows.Err()
}

func (s *PgStore) MarkClosed(ctx context.Context, auctionID string, res *models.Result, version int64) error {
	const upd = `
	UPDATE auctions
	   SET closed = true, version = version + 1,
	       winner_seq = $3, price = $4, resolved_at = $5, updated_at = $5
	 WHERE id = $1 AND version = $2 AND NOT closed`
	var (
		winnerSeq *int64
		price     *int64
	)
	if res.Winner != nil {
		winnerSeq = &res.Winner.Seq
	}
	if res.Price != nil {
		price = &res.Price.Value
	}
	r, err := s.db.ExecContext(ctx, upd, auctionID, version, winnerSeq, price, res.ResolvedAt)
	if err != nil {
		return err
	}
	n, err := r.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PgStore) LoadResult(ctx context.Context, auctionID string) (*models.Result, error) {
	const q = `
	SELECT a.currency, a.closed, a.winner_seq, a.price, a.resolved_at,
	       b.id, b.bidder_id, b.amount, b.placed_at
	  FROM auctions a
	  LEFT JOIN bids b ON b.auction_id = a.id AND b.seq = a.winner_seq
	 WHERE a.id = $1`
	var (
		currency   string
		closed     bool
		winnerSeq  sql.NullInt64
		price      sql.NullInt64
		resolvedAt sql.NullTime
		bidID      sql.NullString
		bidder     sql.NullString
		amount     sql.NullInt64
		placedAt   sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, auctionID).Scan(
		&currency, &closed, &winnerSeq, &price, &resolvedAt,
		&bidID, &bidder, &amount, &placedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, nil
	}
	result := &models.Result{AuctionID: auctionID, ResolvedAt: resolvedAt.Time}
	if winnerSeq.Valid && bidID.Valid {
		result.Winner = &models.Bid{
			ID:        bidID.String,
			AuctionID: auctionID,
			BidderID:  bidder.String,
			Amount:    models.NewAmount(amount.Int64, models.Currency(currency)),
			Seq:       winnerSeq.Int64,
			PlacedAt:  placedAt.Time,
		}
		p := models.NewAmount(price.Int64, models.Currency(currency))
		result.Price = &p
	}
	return result, nil
}

func (s *PgStore) ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error) {
	if limit == 0 {
		limit = 10
	}
	base := `
	SELECT id, title, seller_id, currency, auction_type,
	       starts_at, expiry, ends_at, open_bidders, closed, created_at, updated_at
	  FROM auctions`
	var (
		rows *sql.Rows
		err  error
	)
	switch status {
	case "OPEN":
		rows, err = s.db.QueryContext(ctx, base+` WHERE NOT closed ORDER BY expiry DESC LIMIT $1 OFFSET $2`, limit, offset)
	case "CLOSED":
		rows, err = s.db.QueryContext(ctx, base+` WHERE closed ORDER BY expiry DESC LIMIT $1 OFFSET $2`, limit, offset)
	default:
		rows, err = s.db.QueryContext(ctx, base+` ORDER BY expiry DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Auction
	for rows.Next() {
		var (
			a        models.Auction
			currency string
			typ      string
			endsAt   sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.SellerID, &currency, &typ,
			&a.StartsAt, &a.Expiry, &endsAt, &a.OpenBidders, &a.Closed,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Currency = models.Currency(currency)
		a.Type = models.AuctionType(typ)
		if endsAt.Valid {
			t := endsAt.Time
			a.EndsAt = &t
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (s *PgStore) ListDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
	SELECT id FROM auctions
	 WHERE NOT closed AND starts_at <= $1 AND coalesce(ends_at, expiry) <= $1
	 LIMIT $2`
	rows, err := s.db.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
