package watcher

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionengine/internal/engine"
	"auctionengine/internal/store"
)

const (
	lockPrefix = "auc_lock:"
	lockTTL    = 5 * time.Second
	batchSize  = 100
)

// Run polls the store for auctions whose deadline has passed and resolves
// them. Each id is guarded by a short distributed SetNX lock so multiple
// instances never finalise the same auction twice (resolution itself is
// idempotent; the lock only avoids duplicate work). Run must be started
// once at service boot.
func Run(ctx context.Context, every time.Duration, rdc *redis.Client, st store.Store, eng *engine.Engine) {
	tk := time.NewTicker(every)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				resolveDue(ctx, rdc, st, eng)
			}
		}
	}()
}

func resolveDue(ctx context.Context, rdc *redis.Client, st store.Store, eng *engine.Engine) {
	ids, err := st.ListDue(ctx, time.Now().UTC(), batchSize)
	if err != nil {
		zap.L().Warn("watcher.list_due", zap.Error(err))
		return
	}
	for _, id := range ids {
		if rdc != nil {
			ok, err := rdc.SetNX(ctx, lockPrefix+id, 1, lockTTL).Result()
			if err != nil {
				zap.L().Warn("watcher.lock", zap.String("auction_id", id), zap.Error(err))
				continue
			}
			if !ok {
				continue // another instance is already finalising it
			}
		}
		if _, err := eng.ResolveIfDue(ctx, id); err != nil {
			// EngineError: leave the auction due, next tick retries.
			zap.L().Warn("watcher.resolve", zap.String("auction_id", id), zap.Error(err))
		}
		if rdc != nil {
			_ = rdc.Del(ctx, lockPrefix+id).Err()
		}
	}
}
