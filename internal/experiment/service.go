// Package experiment implements the experiment lifecycle against the data
// service: listing, fetching, creating, deleting and submitting workflows.
package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/emiliopalmerini/tmaps/internal/domain"
	"github.com/emiliopalmerini/tmaps/internal/ports"
)

const experimentsPath = "/api/experiments"

// Operation names reported to the recorder and used in error messages.
const (
	OpGetAll         = "get_all"
	OpGet            = "get"
	OpCreate         = "create"
	OpDelete         = "delete"
	OpSubmitWorkflow = "submit_workflow"
	OpFeatures       = "features"
)

// Service performs experiment lifecycle operations through a Transport.
// Each call is independent: nothing is cached and concurrent calls for the
// same id each produce their own Experiment.
type Service struct {
	transport    ports.Transport
	logger       ports.Logger
	recorder     ports.OperationRecorder
	legacyErrors bool
}

type Option func(*Service)

func WithLogger(l ports.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithRecorder(r ports.OperationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLegacyErrors restores the historical failure handling of Delete and
// SubmitWorkflow: a failed delete resolves with the error payload in
// DeleteOutcome.Failure, and a failed workflow submission is only logged.
func WithLegacyErrors() Option {
	return func(s *Service) { s.legacyErrors = true }
}

func NewService(transport ports.Transport, opts ...Option) *Service {
	s := &Service{
		transport: transport,
		logger:    discardLogger{},
		recorder:  discardRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type experimentsResponse struct {
	Experiments []domain.ExperimentRecord `json:"experiments"`
}

type experimentResponse struct {
	Experiment *domain.ExperimentRecord `json:"experiment"`
}

type featuresResponse struct {
	Data map[string][]domain.FeatureRecord `json:"data"`
}

type createRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	PlateFormat          int    `json:"plate_format"`
	MicroscopeType       string `json:"microscope_type"`
	PlateAcquisitionMode string `json:"plate_acquisition_mode"`
}

func experimentPath(id string) string {
	return experimentsPath + "/" + url.PathEscape(id)
}

// call is the single path through which every operation reaches the
// transport, so failures are reported the same way everywhere.
func (s *Service) call(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	err := s.transport.Do(ctx, method, path, body, out)
	s.recorder.RecordOperation(ctx, op, time.Since(start), err)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("%s %s %s failed: %v", op, method, path, err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

// FetchRecords returns the validated records of all experiments in the
// order the service lists them.
func (s *Service) FetchRecords(ctx context.Context) ([]domain.ExperimentRecord, error) {
	var resp experimentsResponse
	if err := s.call(ctx, OpGetAll, http.MethodGet, experimentsPath, nil, &resp); err != nil {
		return nil, err
	}
	for i, rec := range resp.Experiments {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("failed to %s: experiment %d: %w", OpGetAll, i, err)
		}
	}
	return resp.Experiments, nil
}

// FetchRecord returns the validated record of one experiment.
func (s *Service) FetchRecord(ctx context.Context, id string) (domain.ExperimentRecord, error) {
	var resp experimentResponse
	if err := s.call(ctx, OpGet, http.MethodGet, experimentPath(id), nil, &resp); err != nil {
		return domain.ExperimentRecord{}, err
	}
	return unwrapRecord(OpGet, resp)
}

func unwrapRecord(op string, resp experimentResponse) (domain.ExperimentRecord, error) {
	if resp.Experiment == nil {
		return domain.ExperimentRecord{}, fmt.Errorf("failed to %s: %w", op,
			&domain.MalformedRecordError{Field: "experiment", Reason: "missing from response"})
	}
	if err := resp.Experiment.Validate(); err != nil {
		return domain.ExperimentRecord{}, fmt.Errorf("failed to %s: %w", op, err)
	}
	return *resp.Experiment, nil
}

func (s *Service) GetAll(ctx context.Context) ([]*domain.Experiment, error) {
	records, err := s.FetchRecords(ctx)
	if err != nil {
		return nil, err
	}
	return buildAll(records), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Experiment, error) {
	rec, err := s.FetchRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewExperiment(rec), nil
}

func (s *Service) Create(ctx context.Context, input domain.CreateExperimentInput) (*domain.Experiment, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", OpCreate, err)
	}

	req := createRequest{
		Name:                 input.Name,
		Description:          input.Description,
		PlateFormat:          input.PlateFormat,
		MicroscopeType:       input.MicroscopeType,
		PlateAcquisitionMode: input.PlateAcquisitionMode,
	}
	var resp experimentResponse
	if err := s.call(ctx, OpCreate, http.MethodPost, experimentsPath, req, &resp); err != nil {
		return nil, err
	}
	rec, err := unwrapRecord(OpCreate, resp)
	if err != nil {
		return nil, err
	}
	return domain.NewExperiment(rec), nil
}

// Delete removes the remote experiment. Local Experiment values are left
// untouched.
func (s *Service) Delete(ctx context.Context, id string) (domain.DeleteOutcome, error) {
	err := s.call(ctx, OpDelete, http.MethodDelete, experimentPath(id), nil, nil)
	if err == nil {
		return domain.DeleteOutcome{Deleted: true}, nil
	}
	if !s.legacyErrors {
		return domain.DeleteOutcome{}, err
	}

	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = &domain.ServiceError{Message: err.Error()}
	}
	return domain.DeleteOutcome{Failure: svcErr}, nil
}

// SubmitWorkflow posts the workflow description for the experiment and
// returns the service response unchanged.
func (s *Service) SubmitWorkflow(ctx context.Context, id string, workflow json.RawMessage) (json.RawMessage, error) {
	if len(workflow) > 0 && !json.Valid(workflow) {
		return nil, fmt.Errorf("failed to %s: workflow description is not valid JSON", OpSubmitWorkflow)
	}

	var body any
	if len(workflow) > 0 {
		body = workflow
	}
	var resp json.RawMessage
	if err := s.call(ctx, OpSubmitWorkflow, http.MethodPost, experimentPath(id)+"/workflow", body, &resp); err != nil {
		if s.legacyErrors {
			s.logger.Error(fmt.Sprintf("workflow submission for experiment %s: %v", id, err))
			return nil, nil
		}
		return nil, err
	}
	return resp, nil
}

// SubmitWorkflowFor submits a workflow for a previously fetched experiment.
func (s *Service) SubmitWorkflowFor(ctx context.Context, exp *domain.Experiment, workflow json.RawMessage) (json.RawMessage, error) {
	return s.SubmitWorkflow(ctx, exp.ID(), workflow)
}

// Features lists the feature descriptors of each mapobject type.
func (s *Service) Features(ctx context.Context, id string) (map[string][]domain.Feature, error) {
	var resp featuresResponse
	if err := s.call(ctx, OpFeatures, http.MethodGet, experimentPath(id)+"/features", nil, &resp); err != nil {
		return nil, err
	}

	out := make(map[string][]domain.Feature, len(resp.Data))
	for typeName, records := range resp.Data {
		features := make([]domain.Feature, len(records))
		for i, r := range records {
			features[i] = domain.Feature{Name: r.Name}
		}
		out[typeName] = features
	}
	return out, nil
}

func buildAll(records []domain.ExperimentRecord) []*domain.Experiment {
	experiments := make([]*domain.Experiment, len(records))
	for i, rec := range records {
		experiments[i] = domain.NewExperiment(rec)
	}
	return experiments
}

type discardLogger struct{}

func (discardLogger) Debug(string) {}
func (discardLogger) Error(string) {}

type discardRecorder struct{}

func (discardRecorder) RecordOperation(context.Context, string, time.Duration, error) {}
func (discardRecorder) Close(context.Context) error { return nil }
