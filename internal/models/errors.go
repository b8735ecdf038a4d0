package models

import "fmt"

// RejectReason classifies why a bid was refused. Rejections are reported
// to the caller, never retried, and never change state.
type RejectReason string

const (
	RejectNotOpen          RejectReason = "NOT_OPEN"
	RejectCurrencyMismatch RejectReason = "CURRENCY_MISMATCH"
	RejectInvalidAmount    RejectReason = "INVALID_AMOUNT"
	RejectBelowThreshold   RejectReason = "BELOW_THRESHOLD"
	RejectSellerBid        RejectReason = "SELLER_BID"
	RejectAlreadyBid       RejectReason = "ALREADY_BID"
)

// RejectionError is a validation rejection of a single bid.
type RejectionError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Reject builds a RejectionError with a formatted detail.
func Reject(reason RejectReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports a malformed auction definition. It can only
// occur at creation time, never while bidding.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("auction configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
