package models

import (
	"errors"
	"fmt"
)

// Currency is an ISO-4217-like 3-letter uppercase code.
type Currency string

var ErrInvalidCurrency = errors.New("invalid currency code")

// ParseCurrency checks the 3-letter uppercase shape.
func ParseCurrency(s string) (Currency, error) {
	if len(s) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
		}
	}
	return Currency(s), nil
}

// Amount is a monetary value in integer minor units of a fixed currency.
type Amount struct {
	Value    int64    `json:"value"`
	Currency Currency `json:"currency"`
}

func NewAmount(value int64, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

func (a Amount) String() string {
	return fmt.Sprintf("%s%d", a.Currency, a.Value)
}

// SameCurrency reports whether two amounts are comparable.
func (a Amount) SameCurrency(b Amount) bool {
	return a.Currency == b.Currency
}
