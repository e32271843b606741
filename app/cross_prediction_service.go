package app

import (
	"context"
	"fmt"
	"time"

	"crosspred/domain/binning"
	"crosspred/domain/cohort"
	"crosspred/domain/core"
	"crosspred/domain/result"
	"crosspred/domain/scoring"
	"crosspred/internal"
	"crosspred/internal/crosspred"
	"crosspred/internal/errors"
	"crosspred/ports"
)

const presplitStage = "presplit"

// ModelFactory builds an untrained estimator by model name
type ModelFactory func(name string) (ports.Estimator, error)

// CrossPredictionService runs age-binned cross-prediction studies end to end
type CrossPredictionService struct {
	loader   ports.CohortLoader
	repo     ports.ResultRepository
	rngPort  ports.RNGPort
	newModel ModelFactory
	logger   *internal.Logger
}

// StudyRequest defines the inputs of one study run
type StudyRequest struct {
	RunID           core.RunID // optional, generated if empty
	Measures        []string
	Models          []string
	Scorer          string
	Splitter        ports.Splitter
	NumPermutations int
	Seed            int64
	Workers         int
}

// StudyResult summarizes a finished (or cancelled) study
type StudyResult struct {
	RunID      core.RunID     `json:"run_id"`
	Population string         `json:"population"`
	Entries    []result.Entry `json:"entries"`
	Partial    bool           `json:"partial"`
	RuntimeMs  int64          `json:"runtime_ms"`
}

// BinInfo describes one age bin of the loaded cohort
type BinInfo struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	MinAge float64 `json:"min_age"`
	MaxAge float64 `json:"max_age"`
}

// NewCrossPredictionService wires the study runner
func NewCrossPredictionService(loader ports.CohortLoader, repo ports.ResultRepository, rngPort ports.RNGPort, newModel ModelFactory, logger *internal.Logger) *CrossPredictionService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CrossPredictionService{
		loader:   loader,
		repo:     repo,
		rngPort:  rngPort,
		newModel: newModel,
		logger:   logger,
	}
}

// Run loads the cohort and, for every measure and model, bins subjects into
// three age groups, presplits folds once, then runs the permutation test for
// each rotation. One entry per (train bin, test bin) pair is saved.
func (s *CrossPredictionService) Run(ctx context.Context, req StudyRequest) (*StudyResult, error) {
	start := time.Now()
	if err := s.validate(req); err != nil {
		return nil, err
	}
	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	logger := s.logger.With("run_id", runID.String())

	scorer, err := scoring.ForName(req.Scorer)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	c, err := s.loader.Load(ctx)
	if err != nil {
		return nil, errors.DataLoad("cohort", err)
	}

	res := &StudyResult{RunID: runID, Population: string(c.Population)}
	for _, measure := range req.Measures {
		rot, err := s.prepare(ctx, c, measure, req)
		if err != nil {
			return res, errors.Wrapf(err, "prepare %s", measure)
		}

		for _, modelName := range req.Models {
			model, err := s.newModel(modelName)
			if err != nil {
				return res, errors.Wrapf(err, "model %s", modelName)
			}
			logger.Info("[CrossPrediction] %s on %s: %d permutations", modelName, measure, req.NumPermutations)

			rotations, err := crosspred.RunRotations(ctx, model, rot, scorer, crosspred.Options{
				NumPermutations: req.NumPermutations,
				Seed:            req.Seed,
				Workers:         req.Workers,
				RNG:             s.rngPort,
				Key:             modelName + "/" + measure,
			})
			if err != nil {
				return res, errors.Wrapf(err, "%s on %s", modelName, measure)
			}

			entries, nulls := s.collect(runID, c.Population, modelName, measure, req.Seed, rotations)
			if err := s.save(ctx, entries, nulls); err != nil {
				return res, err
			}
			res.Entries = append(res.Entries, entries...)

			for _, r := range rotations {
				if r.Partial {
					res.Partial = true
				}
			}
			if res.Partial || len(rotations) < rot.Len() {
				res.Partial = true
				logger.Warn("[CrossPrediction] cancelled; kept %d entries", len(res.Entries))
				res.RuntimeMs = time.Since(start).Milliseconds()
				return res, nil
			}
		}
	}

	res.RuntimeMs = time.Since(start).Milliseconds()
	logger.Info("[CrossPrediction] finished %d entries in %dms", len(res.Entries), res.RuntimeMs)
	return res, nil
}

// Bins reports the size and age range of every bin of the loaded cohort
func (s *CrossPredictionService) Bins(ctx context.Context, numBins int) ([]BinInfo, error) {
	c, err := s.loader.Load(ctx)
	if err != nil {
		return nil, errors.DataLoad("cohort", err)
	}
	idx, err := binning.BinIndices(c.Ages, numBins)
	if err != nil {
		return nil, errors.Wrap(err, "bin cohort")
	}
	out := make([]BinInfo, len(idx))
	for i, rows := range idx {
		info := BinInfo{Label: binning.BinLabel(i), Count: len(rows)}
		for k, r := range rows {
			age := c.Ages[r]
			if k == 0 || age < info.MinAge {
				info.MinAge = age
			}
			if k == 0 || age > info.MaxAge {
				info.MaxAge = age
			}
		}
		out[i] = info
	}
	return out, nil
}

func (s *CrossPredictionService) validate(req StudyRequest) error {
	switch {
	case len(req.Measures) == 0:
		return errors.InvalidInput("at least one measure is required")
	case len(req.Models) == 0:
		return errors.InvalidInput("at least one model is required")
	case req.Splitter == nil:
		return errors.ConfigInvalid("a cross-validation splitter is required")
	case req.NumPermutations < 0:
		return errors.InvalidInput("permutation count must not be negative")
	}
	return nil
}

// prepare bins one measure into three groups and presplits their folds
func (s *CrossPredictionService) prepare(ctx context.Context, c *cohort.Cohort, measure string, req StudyRequest) (crosspred.Rotations, error) {
	group, err := c.Group(measure)
	if err != nil {
		return crosspred.Rotations{}, err
	}
	labeled, err := binning.BinData(group, c.Ages, false, 3)
	if err != nil {
		return crosspred.Rotations{}, err
	}
	if len(labeled) != 3 {
		return crosspred.Rotations{}, fmt.Errorf("%w: cohort yields %d groups", core.ErrGroupCount, len(labeled))
	}

	groups := make([]cohort.SampleGroup, len(labeled))
	labels := make([]string, len(labeled))
	for i, lg := range labeled {
		groups[i] = lg.Group
		labels[i] = lg.Label
		s.logger.Debug("[CrossPrediction] %s %s: %d subjects", measure, lg.Label, lg.Group.Len())
	}

	rng, err := s.rngPort.Stream(ctx, presplitStage, measure, req.Seed)
	if err != nil {
		return crosspred.Rotations{}, err
	}
	folds, err := crosspred.Presplit(groups, req.Splitter, rng)
	if err != nil {
		return crosspred.Rotations{}, err
	}
	return crosspred.Rotate(groups, folds, labels)
}

func (s *CrossPredictionService) collect(runID core.RunID, pop cohort.Population, model, measure string, seed int64, rotations []crosspred.RotationResult) ([]result.Entry, []result.NullDistribution) {
	var (
		entries []result.Entry
		nulls   []result.NullDistribution
	)
	for _, r := range rotations {
		for g := 0; g < 3; g++ {
			entries = append(entries, result.Entry{
				RunID:           runID,
				Model:           model,
				Target:          measure,
				Train:           r.Labels[0],
				Test:            r.Labels[g],
				Score:           r.TrueScores[g].Primary(),
				PValue:          r.PValues[g],
				Population:      string(pop),
				NumPermutations: r.Completed,
			})
			null := result.NullDistribution{
				RunID:  runID,
				Model:  model,
				Target: measure,
				Train:  r.Labels[0],
				Test:   r.Labels[g],
				Seed:   seed,
				Scores: r.Null[g],
			}
			if sum, err := result.Summarize(r.Null[g]); err == nil {
				null.Summary = &sum
				s.logger.Debug("[CrossPrediction] %s %s %s->%s: score %.4f p %.4f (null mean %.4f, p95 %.4f)",
					model, measure, r.Labels[0], r.Labels[g], r.TrueScores[g].Primary(), r.PValues[g], sum.Mean, sum.Percentile95)
			}
			nulls = append(nulls, null)
		}
	}
	return entries, nulls
}

// save persists completed work even when the study context was cancelled
func (s *CrossPredictionService) save(ctx context.Context, entries []result.Entry, nulls []result.NullDistribution) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.SaveEntries(ctx, entries); err != nil {
		return errors.DatabaseError("save results", err)
	}
	for _, n := range nulls {
		if err := s.repo.SaveNullDistribution(ctx, n); err != nil {
			return errors.DatabaseError("save null distribution", err)
		}
	}
	return nil
}
