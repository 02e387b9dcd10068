// Package model holds the per-category trained ensembles: the expected
// feature schema, the fitted scaler, and the component regressors with
// their fixed combination weights.
//
// Artifacts are opaque versioned JSON files, loaded once at registry
// construction and read-only afterwards. Swapping an artifact for a newer
// version is a coordinated restart, not a hot reload. Any number of
// concurrent requests may share one CategoryModel.
package model

import (
	"errors"
	"fmt"

	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// ErrModelNotLoaded reports that a category's artifacts were missing or
// corrupt. The registry fails fast at construction so this surfaces at
// process start, not on the first unlucky request.
var ErrModelNotLoaded = errors.New("category model not loaded")

// Regressor is one component model: scaled feature vector in, price out.
type Regressor interface {
	Predict(x []float64) (float64, error)
}

// Component pairs a regressor with its name and ensemble weight.
type Component struct {
	Name      string
	Weight    float64
	Regressor Regressor
}

// Scaler is a fitted standard scaler: z = (x - mean) / scale.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// Transform standardizes a feature vector. The input length must match the
// fitted dimensionality.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

// CategoryModel is one loaded ensemble. Read-only after load.
type CategoryModel struct {
	Category   vocab.Category
	Version    string
	Features   []string
	Scaler     *Scaler
	Components []Component
}
