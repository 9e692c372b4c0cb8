package registry

import "errors"

// Input rejections, detected before any state or funds move.
var (
	ErrSelfReport       = errors.New("cannot report yourself as a drainer")
	ErrDisallowedTarget = errors.New("cannot report a reserved system identity as a drainer")
	ErrInvalidRecipient = errors.New("fee recipient must differ from the reporter")
)

// Arithmetic limits, detected mid-transition. The record is left untouched.
var (
	ErrReportCountOverflow = errors.New("report count overflow - maximum reports reached")
	ErrAmountOverflow      = errors.New("amount overflow - total reported amount too large")
)

var (
	ErrRecordNotFound    = errors.New("drainer report not found")
	ErrInsufficientFunds = errors.New("insufficient funds for anti-spam fee")
	ErrCorruptRecord     = errors.New("corrupt drainer report")
	ErrUnauthorized      = errors.New("unauthorized")
)

// IsRejection reports whether err is an input rejection the caller can fix.
func IsRejection(err error) bool {
	return errors.Is(err, ErrSelfReport) ||
		errors.Is(err, ErrDisallowedTarget) ||
		errors.Is(err, ErrInvalidRecipient)
}

// IsLimit reports whether err is an arithmetic limit hit by the aggregator.
func IsLimit(err error) bool {
	return errors.Is(err, ErrReportCountOverflow) || errors.Is(err, ErrAmountOverflow)
}
