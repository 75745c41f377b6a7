package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/tmaps/internal/domain"
	"github.com/emiliopalmerini/tmaps/internal/migrate"
)

// testDB creates a file-backed libsql database with all migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := migrate.RunAll(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func intPtr(i int) *int { return &i }

func testRecord(id, name string) domain.ExperimentRecord {
	return domain.ExperimentRecord{
		ID:                   id,
		Name:                 name,
		Status:               "RUNNING",
		PlateFormat:          384,
		MicroscopeType:       "cellvoyager",
		PlateAcquisitionMode: "basic",
		MapobjectTypes:       []domain.MapobjectTypeRecord{{ID: "m1", Name: "Cells"}},
		Channels: []domain.ChannelRecord{
			{Name: "DAPI", Layers: []domain.LayerRecord{{Zplane: intPtr(0), MaxZoom: intPtr(6)}, {Zplane: intPtr(2), MaxZoom: intPtr(6)}}},
			{Name: "GFP", Layers: []domain.LayerRecord{{Zplane: intPtr(-1), MaxZoom: intPtr(6)}}},
		},
	}
}

// mockService is a func-field implementation of ports.ExperimentService
// and ports.ExperimentRecordFetcher.
type mockService struct {
	GetAllFunc         func(ctx context.Context) ([]*domain.Experiment, error)
	GetFunc            func(ctx context.Context, id string) (*domain.Experiment, error)
	CreateFunc         func(ctx context.Context, input domain.CreateExperimentInput) (*domain.Experiment, error)
	DeleteFunc         func(ctx context.Context, id string) (domain.DeleteOutcome, error)
	SubmitWorkflowFunc func(ctx context.Context, id string, workflow json.RawMessage) (json.RawMessage, error)
	FeaturesFunc       func(ctx context.Context, id string) (map[string][]domain.Feature, error)
	FetchRecordFunc    func(ctx context.Context, id string) (domain.ExperimentRecord, error)
}

func (m *mockService) GetAll(ctx context.Context) ([]*domain.Experiment, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockService) Get(ctx context.Context, id string) (*domain.Experiment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockService) Create(ctx context.Context, input domain.CreateExperimentInput) (*domain.Experiment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input)
	}
	return nil, nil
}

func (m *mockService) Delete(ctx context.Context, id string) (domain.DeleteOutcome, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return domain.DeleteOutcome{Deleted: true}, nil
}

func (m *mockService) SubmitWorkflow(ctx context.Context, id string, workflow json.RawMessage) (json.RawMessage, error) {
	if m.SubmitWorkflowFunc != nil {
		return m.SubmitWorkflowFunc(ctx, id, workflow)
	}
	return nil, nil
}

func (m *mockService) Features(ctx context.Context, id string) (map[string][]domain.Feature, error) {
	if m.FeaturesFunc != nil {
		return m.FeaturesFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockService) FetchRecords(ctx context.Context) ([]domain.ExperimentRecord, error) {
	return nil, nil
}

func (m *mockService) FetchRecord(ctx context.Context, id string) (domain.ExperimentRecord, error) {
	if m.FetchRecordFunc != nil {
		return m.FetchRecordFunc(ctx, id)
	}
	return domain.ExperimentRecord{}, domain.ErrNotFound
}
