package app

import (
	"context"
	"fmt"

	"crosspred/domain/binning"
	"crosspred/domain/core"
	"crosspred/domain/similarity"
	"crosspred/internal/errors"
	"crosspred/ports"

	"gonum.org/v1/gonum/mat"
)

// SimilarityRequest selects the model weights to compare across age groups
type SimilarityRequest struct {
	Measure string
	Model   string
	Metric  string // cosine or euclidean
	TopK    int    // strongest features reported per group, 0 for none
}

// SimilarityResult is the 4 x 4 comparison of the weights fitted on All and on each bin
type SimilarityResult struct {
	Measure     string      `json:"measure"`
	Model       string      `json:"model"`
	Metric      string      `json:"metric"`
	Labels      []string    `json:"labels"`
	Matrix      [][]float64 `json:"matrix"`
	TopFeatures [][]int     `json:"top_features,omitempty"`
}

// Similarity fits one model on the whole cohort and on each of the three age
// bins, then compares the fitted weight vectors pairwise.
func (s *CrossPredictionService) Similarity(ctx context.Context, req SimilarityRequest) (*SimilarityResult, error) {
	fn, err := similarity.ForName(req.Metric)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if req.Metric == "" {
		req.Metric = "cosine"
	}
	c, err := s.loader.Load(ctx)
	if err != nil {
		return nil, errors.DataLoad("cohort", err)
	}
	group, err := c.Group(req.Measure)
	if err != nil {
		return nil, errors.Wrapf(err, "similarity %s", req.Measure)
	}
	labeled, err := binning.BinData(group, c.Ages, true, 3)
	if err != nil {
		return nil, errors.Wrapf(err, "similarity %s", req.Measure)
	}
	if len(labeled) != similarity.NumGroups {
		return nil, errors.Wrapf(fmt.Errorf("%w: cohort yields %d groups", core.ErrGroupCount, len(labeled)), "similarity %s", req.Measure)
	}

	res := &SimilarityResult{Measure: req.Measure, Model: req.Model, Metric: req.Metric}
	weights := make([][]float64, len(labeled))
	for i, lg := range labeled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, err := s.fitWeights(req.Model, lg.Group.X, lg.Group.Y)
		if err != nil {
			return nil, errors.Wrapf(err, "fit %s on %s", req.Model, lg.Label)
		}
		weights[i] = w
		res.Labels = append(res.Labels, lg.Label)
		if req.TopK > 0 {
			top, err := similarity.TopK(w, min(req.TopK, len(w)))
			if err != nil {
				return nil, err
			}
			res.TopFeatures = append(res.TopFeatures, top)
		}
	}

	m, err := similarity.CompareAgeGroups(weights, fn)
	if err != nil {
		return nil, errors.Wrapf(err, "compare %s weights", req.Model)
	}
	for i := 0; i < similarity.NumGroups; i++ {
		res.Matrix = append(res.Matrix, mat.Row(nil, i, m))
	}
	s.logger.Info("[Similarity] %s on %s: %s compared over %d features", req.Model, req.Measure, req.Metric, len(weights[0]))
	return res, nil
}

// fitWeights trains a fresh model and returns its weights flattened row-major
func (s *CrossPredictionService) fitWeights(model string, X, Y *mat.Dense) ([]float64, error) {
	est, err := s.newModel(model)
	if err != nil {
		return nil, err
	}
	linear, ok := est.(ports.LinearEstimator)
	if !ok {
		return nil, fmt.Errorf("%w: %s exposes no coefficients", core.ErrUnknownModel, model)
	}
	if err := linear.Fit(X, Y); err != nil {
		return nil, err
	}
	coef, err := linear.Coefficients()
	if err != nil {
		return nil, err
	}
	r, c := coef.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, coef.RawRowView(i)...)
	}
	return out, nil
}
