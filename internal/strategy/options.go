package strategy

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"auctionengine/internal/models"
)

// Option payload shapes per auction type. Payloads are opaque to everything
// but the matching strategy and are validated once, at auction creation.

type EnglishOptions struct {
	// MinIncrement is the least amount (minor units) a bid must exceed the
	// current leader by.
	MinIncrement int64 `json:"min_increment" validate:"gte=0"`
	// SnipingWindowSecs / SnipingExtensionSecs configure the anti-sniping
	// deadline extension; zero disables it.
	SnipingWindowSecs    int64 `json:"sniping_window_secs" validate:"gte=0"`
	SnipingExtensionSecs int64 `json:"sniping_extension_secs" validate:"gte=0"`
}

type ReserveOptions struct {
	EnglishOptions
	// ReservePrice is the hidden floor below which no bid can win.
	ReservePrice int64 `json:"reserve_price" validate:"gt=0"`
}

const (
	PricingBlind   = "blind"
	PricingVickrey = "vickrey"
)

type SealedOptions struct {
	// Pricing selects first-price (blind) or second-price (vickrey) payout.
	Pricing string `json:"pricing" validate:"required,oneof=blind vickrey"`
}

type DutchOptions struct {
	StartPrice   int64 `json:"start_price" validate:"gt=0"`
	FloorPrice   int64 `json:"floor_price" validate:"gte=0,ltefield=StartPrice"`
	Decrement    int64 `json:"decrement" validate:"gt=0"`
	IntervalSecs int64 `json:"interval_secs" validate:"gt=0"`
}

var optionsValidator = validator.New()

func parseOptions(raw []byte, out any) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &models.ConfigurationError{Field: "options", Err: err}
		}
	}
	if err := optionsValidator.Struct(out); err != nil {
		return &models.ConfigurationError{Field: "options", Err: err}
	}
	return nil
}

func parseEnglishOptions(raw []byte) (EnglishOptions, error) {
	var opts EnglishOptions
	err := parseOptions(raw, &opts)
	return opts, err
}

func parseReserveOptions(raw []byte) (ReserveOptions, error) {
	var opts ReserveOptions
	err := parseOptions(raw, &opts)
	return opts, err
}

func parseSealedOptions(raw []byte) (SealedOptions, error) {
	// Default to first-price when no payload is given.
	opts := SealedOptions{Pricing: PricingBlind}
	err := parseOptions(raw, &opts)
	return opts, err
}

func parseDutchOptions(raw []byte) (DutchOptions, error) {
	var opts DutchOptions
	err := parseOptions(raw, &opts)
	return opts, err
}
