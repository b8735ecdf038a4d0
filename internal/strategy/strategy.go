package strategy

import (
	"fmt"
	"time"

	"auctionengine/internal/models"
)

// Effect is the lifecycle side effect of accepting a bid: a deadline
// extension (anti-sniping), an immediate close (dutch), or neither.
type Effect struct {
	NewEndsAt *time.Time
	CloseNow  bool
}

// Strategy encapsulates the per-auction-type bidding semantics so the rest
// of the engine stays type-agnostic. Implementations are pure: they never
// touch storage and never mutate the snapshot.
type Strategy interface {
	Type() models.AuctionType

	// IsBidAcceptable decides whether candidate may be admitted given the
	// current snapshot. A nil return means acceptable; otherwise the
	// returned rejection carries the reason.
	IsBidAcceptable(snap *models.Snapshot, candidate *models.Bid) *models.RejectionError

	// CurrentPrice reports the standing price of the auction at now.
	CurrentPrice(snap *models.Snapshot, now time.Time) models.Amount

	// OnAccept reports the lifecycle side effect of admitting the bid.
	OnAccept(snap *models.Snapshot, accepted *models.Bid, now time.Time) Effect

	// EligibleToWin is the resolver's eligibility predicate (e.g. the
	// hidden reserve floor).
	EligibleToWin(bid *models.Bid) bool

	// WinningPrice is the amount the winner pays given the frozen history.
	WinningPrice(winner *models.Bid, history []models.Bid) models.Amount
}

// ForAuction selects and configures the strategy for an auction. The type
// tag and options were validated at creation, so a failure here means the
// stored row was corrupted out of band.
func ForAuction(a *models.Auction) (Strategy, error) {
	switch a.Type {
	case models.TypeEnglish:
		opts, err := parseEnglishOptions(a.Options)
		if err != nil {
			return nil, err
		}
		return &english{opts: opts}, nil
	case models.TypeReserve:
		opts, err := parseReserveOptions(a.Options)
		if err != nil {
			return nil, err
		}
		return &reserve{english: english{opts: opts.EnglishOptions}, opts: opts}, nil
	case models.TypeSealed:
		opts, err := parseSealedOptions(a.Options)
		if err != nil {
			return nil, err
		}
		return &sealed{opts: opts}, nil
	case models.TypeDutch:
		opts, err := parseDutchOptions(a.Options)
		if err != nil {
			return nil, err
		}
		return &dutch{opts: opts}, nil
	default:
		return nil, &models.ConfigurationError{
			Field: "type",
			Err:   fmt.Errorf("unknown auction type %q", a.Type),
		}
	}
}

// ValidateOptions parses the options payload for the given type, returning
// a ConfigurationError for malformed payloads. Called once at auction
// creation so malformed options are never a bid-time error.
func ValidateOptions(typ models.AuctionType, raw []byte) error {
	_, err := ForAuction(&models.Auction{Type: typ, Options: raw})
	return err
}
