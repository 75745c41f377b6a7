package ports

import (
	"context"
	"time"
)

// OperationRecorder records the outcome of calls to the data service.
type OperationRecorder interface {
	RecordOperation(ctx context.Context, op string, elapsed time.Duration, err error)
	// Close flushes pending measurements.
	Close(ctx context.Context) error
}
