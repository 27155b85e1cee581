package driven

import "context"

// RequestSequence hands out RR tracing batch numbers.
type RequestSequence interface {
	// NextRequestNumber returns a fresh batch number.
	NextRequestNumber(ctx context.Context) (int64, error)
}
