// Package apperrors holds the sentinel errors shared across packages.
package apperrors

import "errors"

var (
	// ErrNoHistory is returned when the price feed has no observations for a symbol.
	ErrNoHistory = errors.New("no price history available")
	// ErrFetchFailed wraps transport and decoding failures of the data providers.
	ErrFetchFailed = errors.New("data fetch failed")
	// ErrInsufficientHistory is returned when no observation exists at or before a window start.
	ErrInsufficientHistory = errors.New("insufficient history for window")
	// ErrInvalidBaseline is returned when a baseline close is zero, negative, or NaN.
	ErrInvalidBaseline = errors.New("invalid baseline price")
	// ErrBuyDateBeyondHistory is returned when no trading day exists on or after a buy date.
	ErrBuyDateBeyondHistory = errors.New("buy date is after the last available trading day")
	// ErrFxRateUnavailable is returned when an FX pair cannot be resolved.
	ErrFxRateUnavailable = errors.New("fx rate unavailable")
	// ErrNoSecurities is returned when every ticker failed.
	ErrNoSecurities = errors.New("no securities could be analyzed")
	// ErrNoTickers is returned when the tickers input has no valid entries.
	ErrNoTickers = errors.New("no tickers to analyze")
)
