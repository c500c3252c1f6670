package clearsky

import "errors"

// Validation errors returned by the scanner. They are wrapped with details,
// so callers should compare with errors.Is.
var (
	ErrLengthMismatch        = errors.New("observed and predicted series differ in length")
	ErrInvalidWindowLength   = errors.New("invalid window length")
	ErrInvalidThresholdCount = errors.New("thresholds must have exactly five entries")
)
