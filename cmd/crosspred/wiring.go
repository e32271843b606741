package main

import (
	"context"

	"crosspred/adapters/connectivity"
	"crosspred/adapters/cv"
	"crosspred/adapters/db/postgres/migrations"
	"crosspred/adapters/estimator"
	"crosspred/adapters/filestore"
	"crosspred/adapters/postgres"
	"crosspred/adapters/rng"
	"crosspred/app"
	"crosspred/domain/wisc"
	"crosspred/internal"
	"crosspred/internal/config"
	"crosspred/internal/errors"
	"crosspred/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const resultsFile = "cross_prediction_results"

// environment holds the configuration and adapters shared by the commands
type environment struct {
	cfg    *config.Config
	logger *internal.Logger
	db     *sqlx.DB
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &environment{
		cfg:    cfg,
		logger: internal.NewLogger(internal.ParseLevel(cfg.LogLevel)),
	}, nil
}

func (e *environment) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// connect opens Postgres and applies pending migrations
func (e *environment) connect(ctx context.Context, migrate bool) (*sqlx.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	if e.cfg.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", e.cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("connect", err)
	}
	if migrate {
		if err := migrations.NewMigrator(db.DB, e.logger).Up(ctx); err != nil {
			db.Close()
			return nil, errors.DatabaseError("migrate", err)
		}
	}
	e.db = db
	return db, nil
}

// repository selects Postgres when DATABASE_URL is set, the CSV store otherwise
func (e *environment) repository(ctx context.Context, appendMode bool) (ports.ResultRepository, error) {
	if e.cfg.Database.URL != "" {
		db, err := e.connect(ctx, true)
		if err != nil {
			return nil, err
		}
		e.logger.Info("[Setup] storing results in postgres")
		return postgres.NewResultRepository(db), nil
	}
	store, err := filestore.New(e.cfg.Data.OutputDir, resultsFile, appendMode, e.logger)
	if err != nil {
		return nil, errors.Wrap(err, "open result store")
	}
	e.logger.Info("[Setup] storing results in %s", store.Path())
	return store, nil
}

// measures resolves the configured measures, defaulting to the WISC level
func (e *environment) measures() ([]string, error) {
	if len(e.cfg.Analysis.Measures) > 0 {
		return e.cfg.Analysis.Measures, nil
	}
	m, err := wisc.Level(e.cfg.Analysis.WISCLevel)
	if err != nil {
		return nil, errors.Wrap(err, "resolve WISC level")
	}
	return m, nil
}

func (e *environment) modelFactory() app.ModelFactory {
	opts := estimator.Options{
		RidgeAlpha:    e.cfg.Analysis.RidgeAlpha,
		PLSComponents: e.cfg.Analysis.PLSComponents,
	}
	return func(name string) (ports.Estimator, error) {
		return estimator.New(name, opts)
	}
}

// study wires the cross-prediction service over the connectivity loader
func (e *environment) study(repo ports.ResultRepository) (*app.CrossPredictionService, []string, error) {
	if err := e.cfg.RequireData(); err != nil {
		return nil, nil, err
	}
	measures, err := e.measures()
	if err != nil {
		return nil, nil, err
	}
	loader := connectivity.NewLoader(e.cfg.Data.LabelsFile, e.cfg.Data.FCDir, measures, e.logger)
	svc := app.NewCrossPredictionService(loader, repo, rng.New(), e.modelFactory(), e.logger)
	return svc, measures, nil
}

func (e *environment) request(measures []string) app.StudyRequest {
	a := e.cfg.Analysis
	return app.StudyRequest{
		Measures:        measures,
		Models:          a.Models,
		Scorer:          a.Scorer,
		Splitter:        cv.New(a.CVSplits, a.CVRepeats),
		NumPermutations: a.NumPermutations,
		Seed:            a.Seed,
		Workers:         a.Workers,
	}
}
