package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"auctionengine/internal/models"
)

// MemStore is a concurrency-safe in-memory Store. It backs single-node
// deployments and the engine tests; the optimistic version check behaves
// exactly like the Postgres implementation.
type MemStore struct {
	mu   sync.RWMutex
	recs map[string]*record
}

type record struct {
	auction models.Auction
	bids    []models.Bid
	leader  *models.Bid
	result  *models.Result
	version int64
	nextSeq int64
}

func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[string]*record)}
}

func (m *MemStore) CreateAuction(_ context.Context, a *models.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[a.ID]; ok {
		return ErrExists
	}
	m.recs[a.ID] = &record{auction: *a, nextSeq: 1}
	return nil
}

func (m *MemStore) LoadSnapshot(_ context.Context, auctionID string) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[auctionID]
	if !ok {
		return nil, ErrNotFound
	}
	snap := &models.Snapshot{
		Auction:  rec.auction,
		BidCount: len(rec.bids),
		Version:  rec.version,
		NextSeq:  rec.nextSeq,
	}
	if rec.leader != nil {
		lead := *rec.leader
		snap.LeadingBid = &lead
	}
	seen := make(map[string]struct{}, len(rec.bids))
	for i := range rec.bids {
		if _, ok := seen[rec.bids[i].BidderID]; ok {
			continue
		}
		seen[rec.bids[i].BidderID] = struct{}{}
		snap.Bidders = append(snap.Bidders, rec.bids[i].BidderID)
	}
	return snap, nil
}

func (m *MemStore) AppendBidAndUpdateLeader(_ context.Context, auctionID string, bid *models.Bid, lead LeaderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[auctionID]
	if !ok {
		return ErrNotFound
	}
	if rec.version != lead.Version {
		return ErrConflict
	}
	rec.bids = append(rec.bids, *bid)
	if lead.LeadingBid != nil {
		leader := *lead.LeadingBid
		rec.leader = &leader
	}
	if lead.EndsAt != nil {
		endsAt := *lead.EndsAt
		rec.auction.EndsAt = &endsAt
	}
	rec.nextSeq = lead.NextSeq
	rec.version++
	rec.auction.UpdatedAt = bid.PlacedAt
	return nil
}

func (m *MemStore) LoadBidHistory(_ context.Context, auctionID string) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[auctionID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.Bid(nil), rec.bids...), nil
}

func (m *MemStore) MarkClosed(_ context.Context, auctionID string, res *models.Result, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[auctionID]
	if !ok {
		return ErrNotFound
	}
	if rec.version != version {
		return ErrConflict
	}
	result := *res
	rec.result = &result
	rec.auction.Closed = true
	rec.auction.UpdatedAt = res.ResolvedAt
	rec.version++
	return nil
}

func (m *MemStore) LoadResult(_ context.Context, auctionID string) (*models.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[auctionID]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.result == nil {
		return nil, nil
	}
	result := *rec.result
	return &result, nil
}

func (m *MemStore) ListAuctions(_ context.Context, status string, limit, offset int) ([]models.Auction, error) {
	if limit == 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]models.Auction, 0, len(m.recs))
	for _, rec := range m.recs {
		switch status {
		case "OPEN":
			if rec.auction.Closed {
				continue
			}
		case "CLOSED":
			if !rec.auction.Closed {
				continue
			}
		}
		all = append(all, rec.auction)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Deadline().After(all[j].Deadline()) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemStore) ListDue(_ context.Context, now time.Time, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []string
	for id, rec := range m.recs {
		if rec.auction.Closed {
			continue
		}
		if rec.auction.StartsAt.After(now) {
			continue
		}
		if rec.auction.Deadline().After(now) {
			continue
		}
		due = append(due, id)
		if limit > 0 && len(due) >= limit {
			break
		}
	}
	return due, nil
}
