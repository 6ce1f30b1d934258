package contracts

import "errors"

// Sentinel errors shared across pipeline stages. Stages wrap these with
// context via fmt.Errorf("...: %w", err); callers match with errors.Is.
var (
	// ErrInsufficientData means aggregation produced no usable aligned
	// return rows (no valid series, or the inner join came up empty).
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrEmptyMatrix means the returns matrix has zero rows or columns.
	ErrEmptyMatrix = errors.New("empty returns matrix")

	// ErrEmptyInput means the correlation matrix fed to the network
	// builder has zero rows/columns.
	ErrEmptyInput = errors.New("empty correlation matrix")
)
