package predict

import (
	"fmt"

	"github.com/mahmedddd/ezsell-sub001/internal/gate"
)

// ValidationError is the one error expected in normal operation: the
// request lacks the minimum category-required signal, or fails basic field
// validation. It carries structured hints so the caller can re-prompt the
// seller. Producing it is cheap and side-effect-free.
type ValidationError struct {
	Reason gate.Reason
}

func (e *ValidationError) Error() string {
	return "invalid prediction request: " + e.Reason.Message
}

// PredictionFailed is an internal contract violation detected at request
// time, such as a component regressor erroring on a well-formed request.
// The whole request fails rather than serving a partial ensemble, because a
// missing vote biases the combined price systematically.
type PredictionFailed struct {
	Category  string
	Component string
	Err       error
}

func (e *PredictionFailed) Error() string {
	return fmt.Sprintf("prediction failed for %s (component %s): %v", e.Category, e.Component, e.Err)
}

func (e *PredictionFailed) Unwrap() error { return e.Err }
