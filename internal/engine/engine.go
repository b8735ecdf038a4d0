package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"auctionengine/internal/events"
	"auctionengine/internal/models"
	"auctionengine/internal/store"
	"auctionengine/internal/strategy"
)

var (
	// ErrLockTimeout means a submission timed out waiting for the
	// per-auction exclusive section; no state was touched.
	ErrLockTimeout = errors.New("timed out waiting for auction lock")
	// ErrTooManyConflicts means the bounded optimistic-retry budget ran
	// out; the caller may retry the whole submission.
	ErrTooManyConflicts = errors.New("too many commit conflicts")
)

// EngineError is a retryable failure: the engine guarantees no partial
// state mutation occurred.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("engine: %s: %v", e.Op, e.Err) }
func (e *EngineError) Unwrap() error { return e.Err }

// Params tunes the admission controller.
type Params struct {
	// LockWait bounds how long a submission may wait for the per-auction
	// exclusive section.
	LockWait time.Duration
	// CommitAttempts bounds decide-and-commit reruns after store conflicts.
	CommitAttempts int
	Clock          Clock
}

func (p *Params) fill() {
	if p.LockWait <= 0 {
		p.LockWait = 2 * time.Second
	}
	if p.CommitAttempts <= 0 {
		p.CommitAttempts = 3
	}
	if p.Clock == nil {
		p.Clock = SystemClock()
	}
}

// Engine is the sole entry point through which a bid becomes part of an
// auction's history. Submissions for one auction are serialized by a keyed
// mutex; submissions for different auctions run fully in parallel.
type Engine struct {
	store  store.Store
	pub    events.Publisher
	clock  Clock
	locks  *keyedMutex
	params Params
}

func New(st store.Store, pub events.Publisher, params Params) *Engine {
	params.fill()
	if pub == nil {
		pub = events.Nop()
	}
	return &Engine{
		store:  st,
		pub:    pub,
		clock:  params.Clock,
		locks:  newKeyedMutex(),
		params: params,
	}
}

// CreateAuctionCommand carries everything needed to create a listing.
type CreateAuctionCommand struct {
	ID          string
	Title       string
	SellerID    string
	Currency    string
	Type        models.AuctionType
	Options     []byte
	StartsAt    time.Time
	Expiry      time.Time
	OpenBidders bool
}

// CreateAuction validates the command (including the type-specific options
// payload) and persists the new listing in phase Scheduled. All shape
// problems surface here as ConfigurationError, never at bid time.
func (e *Engine) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (*models.Auction, error) {
	currency, err := models.ParseCurrency(cmd.Currency)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "currency", Err: err}
	}
	if cmd.Title == "" {
		return nil, &models.ConfigurationError{Field: "title", Err: errors.New("required")}
	}
	if cmd.SellerID == "" {
		return nil, &models.ConfigurationError{Field: "seller_id", Err: errors.New("required")}
	}
	if !cmd.StartsAt.Before(cmd.Expiry) {
		return nil, &models.ConfigurationError{
			Field: "starts_at",
			Err:   errors.New("must be before expiry"),
		}
	}
	if err := strategy.ValidateOptions(cmd.Type, cmd.Options); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	a := &models.Auction{
		ID:          cmd.ID,
		Title:       cmd.Title,
		SellerID:    cmd.SellerID,
		Currency:    currency,
		Type:        cmd.Type,
		Options:     cmd.Options,
		StartsAt:    cmd.StartsAt.UTC(),
		Expiry:      cmd.Expiry.UTC(),
		OpenBidders: cmd.OpenBidders,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := e.store.CreateAuction(ctx, a); err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, err
		}
		return nil, &EngineError{Op: "create", Err: err}
	}
	zap.L().Info("auction_created",
		zap.String("auction_id", a.ID),
		zap.String("type", string(a.Type)))
	return a, nil
}

// SubmitBid admits or rejects one bid. Inside the per-auction exclusive
// section it loads the latest snapshot, derives the phase, validates the
// candidate and commits bid + leader + deadline as one unit. A stale
// snapshot (another process committed meanwhile) reruns the whole
// decide-and-commit step from a fresh snapshot, a bounded number of times.
func (e *Engine) SubmitBid(ctx context.Context, auctionID, bidderID string, amount models.Amount) (*models.Bid, error) {
	lockCtx, cancel := context.WithTimeout(ctx, e.params.LockWait)
	release, err := e.locks.Acquire(lockCtx, auctionID)
	cancel()
	if err != nil {
		return nil, &EngineError{Op: "acquire", Err: ErrLockTimeout}
	}
	defer release()

	for attempt := 0; attempt < e.params.CommitAttempts; attempt++ {
		snap, err := e.store.LoadSnapshot(ctx, auctionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			return nil, &EngineError{Op: "load_snapshot", Err: err}
		}
		now := e.clock.Now()
		snap.Phase = PhaseAt(&snap.Auction, now)

		strat, err := strategy.ForAuction(&snap.Auction)
		if err != nil {
			return nil, &EngineError{Op: "strategy", Err: err}
		}

		bid := &models.Bid{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			Seq:       snap.NextSeq,
			PlacedAt:  now,
		}
		if rej := validateBid(snap, strat, bid); rej != nil {
			return nil, rej
		}

		lead := store.LeaderState{
			Version:    snap.Version,
			LeadingBid: newLeader(snap.LeadingBid, bid),
			NextSeq:    snap.NextSeq + 1,
		}
		effect := strat.OnAccept(snap, bid, now)
		switch {
		case effect.CloseNow:
			// Force Open -> Closing: the deadline moves to the moment of
			// acceptance and the resolver picks the auction up.
			closeAt := now
			lead.EndsAt = &closeAt
		case effect.NewEndsAt != nil:
			lead.EndsAt = effect.NewEndsAt
		}

		err = e.store.AppendBidAndUpdateLeader(ctx, auctionID, bid, lead)
		if errors.Is(err, store.ErrConflict) {
			zap.L().Debug("bid_commit_conflict",
				zap.String("auction_id", auctionID),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, &EngineError{Op: "commit", Err: err}
		}

		deadline := snap.Auction.Deadline()
		if lead.EndsAt != nil {
			deadline = *lead.EndsAt
		}
		e.pub.BidAccepted(ctx, &snap.Auction, bid, deadline)
		zap.L().Info("bid_admitted",
			zap.String("auction_id", auctionID),
			zap.String("bidder_id", bidderID),
			zap.Int64("seq", bid.Seq),
			zap.Int64("amount", amount.Value))
		return bid, nil
	}
	return nil, &EngineError{Op: "commit", Err: ErrTooManyConflicts}
}

// newLeader keeps the standing leader unless the accepted bid strictly
// exceeds it; sequence order settles amount ties in favor of the earlier
// admission.
func newLeader(current, accepted *models.Bid) *models.Bid {
	if current == nil || accepted.Amount.Value > current.Amount.Value {
		return accepted
	}
	return current
}

// GetSnapshot is a read-only view of the auction's current state.
func (e *Engine) GetSnapshot(ctx context.Context, auctionID string) (*models.Snapshot, error) {
	snap, err := e.store.LoadSnapshot(ctx, auctionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &EngineError{Op: "load_snapshot", Err: err}
	}
	snap.Phase = PhaseAt(&snap.Auction, e.clock.Now())
	return snap, nil
}

// GetResult returns the resolved outcome, or nil while the auction is
// still unresolved.
func (e *Engine) GetResult(ctx context.Context, auctionID string) (*models.Result, error) {
	res, err := e.store.LoadResult(ctx, auctionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &EngineError{Op: "load_result", Err: err}
	}
	return res, nil
}

// ListAuctions is a read-only listing with an optional OPEN/CLOSED filter.
func (e *Engine) ListAuctions(ctx context.Context, status string, limit, offset int) ([]models.Auction, error) {
	list, err := e.store.ListAuctions(ctx, status, limit, offset)
	if err != nil {
		return nil, &EngineError{Op: "list", Err: err}
	}
	return list, nil
}
