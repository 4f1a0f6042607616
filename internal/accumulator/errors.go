package accumulator

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid simulation input")

// InvalidInputError reports input rejected before simulation starts.
// Asset is empty for basket-wide or policy problems; Period is -1 when the
// problem is not tied to a single period.
type InvalidInputError struct {
	Asset  string
	Period int
	Reason string
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.Asset != "" && e.Period >= 0:
		return fmt.Sprintf("%v: asset %s, period %d: %s", ErrInvalidInput, e.Asset, e.Period, e.Reason)
	case e.Asset != "":
		return fmt.Sprintf("%v: asset %s: %s", ErrInvalidInput, e.Asset, e.Reason)
	case e.Period >= 0:
		return fmt.Sprintf("%v: period %d: %s", ErrInvalidInput, e.Period, e.Reason)
	default:
		return fmt.Sprintf("%v: %s", ErrInvalidInput, e.Reason)
	}
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(asset string, period int, format string, args ...any) error {
	return &InvalidInputError{Asset: asset, Period: period, Reason: fmt.Sprintf(format, args...)}
}
