package domain

import "errors"

var (
	// ErrNotFound is returned by stores when no row exists for the key.
	ErrNotFound = errors.New("not found")

	// ErrNoPriceData means no source could supply a price series for a
	// ticker. It surfaces as a per-ticker scan failure, never as a batch
	// abort.
	ErrNoPriceData = errors.New("no price data available")

	// ErrNoFundamentals means a source answered but had no fundamentals
	// record for the ticker. Fundamentals are best-effort, so callers
	// usually degrade instead of failing.
	ErrNoFundamentals = errors.New("no fundamentals available")

	// ErrSourceDisabled is returned by a data source that is not
	// configured (e.g. missing API key).
	ErrSourceDisabled = errors.New("data source disabled")
)
