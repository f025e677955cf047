package models

import "errors"

// Error kinds the pipeline surfaces to callers. Wrap with fmt.Errorf("%w", …)
// and discriminate with errors.Is.
//
// ErrInsufficientData and ErrNotTrained are expected at cold start and should
// be treated as "no data yet"; ErrNoData means the source series itself is
// unusable and the pipeline cannot proceed.
var (
	// ErrNoData means a source yielded zero valid rows.
	ErrNoData = errors.New("no valid data rows")

	// ErrInsufficientData means fewer rows exist than the lookback window needs.
	ErrInsufficientData = errors.New("insufficient data for window")

	// ErrNotTrained means inference was requested before a model was fitted.
	ErrNotTrained = errors.New("model not trained")

	// ErrWindowSizeMismatch means a persisted model state disagrees with the
	// configured window size.
	ErrWindowSizeMismatch = errors.New("window size mismatch")

	// ErrInvalidInput means a NaN or otherwise unusable value reached the
	// recommendation engine.
	ErrInvalidInput = errors.New("invalid input")
)
