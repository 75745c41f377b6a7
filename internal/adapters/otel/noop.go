package otel

import (
	"context"
	"time"
)

// NoOpExporter is an operation recorder that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordOperation(ctx context.Context, op string, elapsed time.Duration, err error) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
