package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/tmaps/internal/adapters/httpapi"
	"github.com/emiliopalmerini/tmaps/internal/adapters/otel"
	"github.com/emiliopalmerini/tmaps/internal/adapters/stdlog"
	"github.com/emiliopalmerini/tmaps/internal/adapters/turso"
	"github.com/emiliopalmerini/tmaps/internal/experiment"
	"github.com/emiliopalmerini/tmaps/internal/infrastructure/config"
	"github.com/emiliopalmerini/tmaps/internal/migrate"
	"github.com/emiliopalmerini/tmaps/internal/ports"
	"github.com/emiliopalmerini/tmaps/internal/util"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config   *config.Config
	Service  ports.ExperimentService
	Records  ports.ExperimentRecordFetcher
	Recorder ports.OperationRecorder
	Logger   ports.Logger

	db        *sql.DB
	snapshots ports.SnapshotRepository
}

// NewAppContext loads the configuration and wires the service client.
// The snapshot database is opened on first use.
func NewAppContext(ctx context.Context, stderr io.Writer) (*AppContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if debugFlag {
		cfg.Debug = true
	}

	client, err := httpapi.NewClient(httpapi.Config{
		URL:     cfg.Service.URL,
		Token:   cfg.Service.Token,
		Timeout: cfg.Service.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}

	var recorder ports.OperationRecorder = otel.NewNoOpExporter()
	if cfg.Telemetry.Enabled {
		exporter, err := otel.NewExporter(ctx, otel.Config{
			Endpoint: cfg.Telemetry.Endpoint,
			Enabled:  cfg.Telemetry.Enabled,
			Insecure: cfg.Telemetry.Insecure,
		})
		if err != nil {
			fmt.Fprintf(stderr, "warning: metrics disabled: %v\n", err)
		} else {
			recorder = exporter
		}
	}

	logger := stdlog.New(stderr, cfg.Debug)
	opts := []experiment.Option{
		experiment.WithLogger(logger),
		experiment.WithRecorder(recorder),
	}
	if cfg.Service.LegacyErrors {
		opts = append(opts, experiment.WithLegacyErrors())
	}
	svc := experiment.NewService(client, opts...)

	app := &AppContext{
		Config:   cfg,
		Service:  svc,
		Records:  svc,
		Recorder: recorder,
		Logger:   logger,
	}
	if cfg.Service.Coalesce {
		app.Service = experiment.NewCoalescer(svc)
	}
	return app, nil
}

// Snapshots returns the local snapshot repository, opening and migrating
// the database on first call.
func (a *AppContext) Snapshots(ctx context.Context) (ports.SnapshotRepository, error) {
	if a.snapshots != nil {
		return a.snapshots, nil
	}

	db, err := openDB(a.Config.Database)
	if err != nil {
		return nil, err
	}
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a.db = db
	a.snapshots = turso.NewSnapshotRepository(db)
	return a.snapshots, nil
}

func openDB(cfg config.Database) (*sql.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		var err error
		if dbURL, err = util.DefaultDatabaseURL(); err != nil {
			return nil, err
		}
	}
	db, err := turso.NewDB(dbURL, cfg.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close(ctx context.Context) error {
	var errs []error
	if a.Recorder != nil {
		errs = append(errs, a.Recorder.Close(ctx))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// withApp runs fn with a fresh AppContext and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *AppContext) error) error {
	ctx := cmd.Context()
	app, err := NewAppContext(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}()
	return fn(ctx, app)
}
