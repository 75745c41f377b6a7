package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockTransport is a mock implementation of ports.Transport for testing.
type MockTransport struct {
	DoFunc func(ctx context.Context, method, path string, body any) (any, error)

	mu    sync.Mutex
	calls []string
}

// Do records the call and copies the value returned by DoFunc into out
// through a JSON round trip, as a real transport would.
func (m *MockTransport) Do(ctx context.Context, method, path string, body, out any) error {
	m.mu.Lock()
	m.calls = append(m.calls, method+" "+path)
	m.mu.Unlock()

	if m.DoFunc == nil {
		return nil
	}
	resp, err := m.DoFunc(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || resp == nil {
		return nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("mock: encoding response: %w", err)
	}
	return json.Unmarshal(raw, out)
}

func (m *MockTransport) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// recordingLogger keeps every message for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	debug  []string
	errors []string
}

func (l *recordingLogger) Debug(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, message)
}

func (l *recordingLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}
