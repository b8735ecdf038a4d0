package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"auctionengine/internal/models"
	"auctionengine/internal/store"
	"auctionengine/internal/strategy"
)

// ResolveIfDue computes the final outcome once an auction's deadline has
// passed and transitions it to Closed. Invoked by the deadline watcher (or
// any external scheduler); safe to call at any time:
//   - auction still Scheduled/Open: returns (nil, nil), nothing happens
//   - already Closed: returns the stored result (idempotent)
//   - Closing: resolves, commits, publishes, returns the result
func (e *Engine) ResolveIfDue(ctx context.Context, auctionID string) (*models.Result, error) {
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
		switch PhaseAt(&snap.Auction, now) {
		case models.PhaseClosed:
			res, err := e.store.LoadResult(ctx, auctionID)
			if err != nil {
				return nil, &EngineError{Op: "load_result", Err: err}
			}
			return res, nil
		case models.PhaseClosing:
		default:
			return nil, nil
		}

		strat, err := strategy.ForAuction(&snap.Auction)
		if err != nil {
			return nil, &EngineError{Op: "strategy", Err: err}
		}
		history, err := e.store.LoadBidHistory(ctx, auctionID)
		if err != nil {
			// Never silently converted to NoWinner: the scheduler retries.
			return nil, &EngineError{Op: "load_history", Err: err}
		}

		result := resolveWinner(auctionID, strat, history, now)
		err = e.store.MarkClosed(ctx, auctionID, result, snap.Version)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, &EngineError{Op: "mark_closed", Err: err}
		}

		e.pub.AuctionClosed(ctx, auctionID, result)
		if result.Winner != nil {
			zap.L().Info("auction_resolved",
				zap.String("auction_id", auctionID),
				zap.String("winner", result.Winner.BidderID),
				zap.Int64("price", result.Price.Value))
		} else {
			zap.L().Info("auction_resolved",
				zap.String("auction_id", auctionID),
				zap.String("winner", ""))
		}
		return result, nil
	}
	return nil, &EngineError{Op: "mark_closed", Err: ErrTooManyConflicts}
}

// resolveWinner selects, among eligible bids, the highest amount with the
// earliest admission sequence breaking ties. Pure function of the frozen
// history, so re-running it always yields the same result.
func resolveWinner(auctionID string, strat strategy.Strategy, history []models.Bid, now time.Time) *models.Result {
	var winner *models.Bid
	for i := range history {
		b := &history[i]
		if !strat.EligibleToWin(b) {
			continue
		}
		if winner == nil ||
			b.Amount.Value > winner.Amount.Value ||
			(b.Amount.Value == winner.Amount.Value && b.Seq < winner.Seq) {
			winner = b
		}
	}
	result := &models.Result{AuctionID: auctionID, ResolvedAt: now}
	if winner != nil {
		w := *winner
		result.Winner = &w
		price := strat.WinningPrice(winner, history)
		result.Price = &price
	}
	return result
}
