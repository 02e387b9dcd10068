package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mahmedddd/ezsell-sub001/internal/feature"
	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// weightTolerance is how far component weights may drift from summing to 1
// before the artifact is rejected. Covers float formatting, nothing more.
const weightTolerance = 1e-6

// artifact is the on-disk JSON layout of one category's ensemble.
type artifact struct {
	Version  string   `json:"version"`
	Category string   `json:"category"`
	Features []string `json:"features"`
	Scaler   struct {
		Mean  []float64 `json:"mean"`
		Scale []float64 `json:"scale"`
	} `json:"scaler"`
	Models []componentArtifact `json:"models"`
}

type componentArtifact struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"` // linear, forest, boosted, onnx
	Weight float64 `json:"weight"`

	// linear
	Intercept float64   `json:"intercept,omitempty"`
	Coef      []float64 `json:"coef,omitempty"`

	// forest / boosted
	Base      float64        `json:"base,omitempty"`
	Shrinkage float64        `json:"shrinkage,omitempty"`
	Trees     []treeArtifact `json:"trees,omitempty"`

	// onnx
	Path   string `json:"path,omitempty"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

type treeArtifact struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []float64 `json:"value"`
}

// parseArtifact decodes and fully validates one artifact. Every contract
// violation (unknown category, schema drift against the feature engineer,
// weight sum, dimension mismatches) is caught here so a bad artifact can
// never serve a silently wrong price.
func parseArtifact(data []byte, source string) (*CategoryModel, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	cat, err := vocab.ParseCategory(a.Category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	if err := checkSchema(cat, a.Features); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	n := len(a.Features)

	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
		return nil, fmt.Errorf("%s: scaler dims (%d mean, %d scale) do not match %d features",
			source, len(a.Scaler.Mean), len(a.Scaler.Scale), n)
	}
	for i, s := range a.Scaler.Scale {
		if s == 0 {
			return nil, fmt.Errorf("%s: scaler scale[%d] is zero", source, i)
		}
	}

	if len(a.Models) == 0 {
		return nil, fmt.Errorf("%s: no component models", source)
	}
	sum := 0.0
	components := make([]Component, 0, len(a.Models))
	for _, ca := range a.Models {
		if ca.Weight < 0 {
			return nil, fmt.Errorf("%s: component %q has negative weight %v", source, ca.Name, ca.Weight)
		}
		sum += ca.Weight
		reg, err := buildRegressor(ca, n)
		if err != nil {
			return nil, fmt.Errorf("%s: component %q: %w", source, ca.Name, err)
		}
		components = append(components, Component{Name: ca.Name, Weight: ca.Weight, Regressor: reg})
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("%s: component weights sum to %v, want 1", source, sum)
	}

	return &CategoryModel{
		Category: cat,
		Version:  a.Version,
		Features: a.Features,
		Scaler:   &Scaler{Mean: a.Scaler.Mean, Scale: a.Scaler.Scale},
		Components: components,
	}, nil
}

// checkSchema enforces the versioned field-order contract with the feature
// engineer: exact names, exact order, exact count.
func checkSchema(cat vocab.Category, features []string) error {
	want := feature.Schema(cat)
	if len(features) != len(want) {
		return fmt.Errorf("schema has %d features, feature engineer emits %d for %s",
			len(features), len(want), cat)
	}
	for i := range want {
		if features[i] != want[i] {
			return fmt.Errorf("schema mismatch at position %d: artifact says %q, feature engineer emits %q",
				i, features[i], want[i])
		}
	}
	return nil
}

func buildRegressor(ca componentArtifact, n int) (Regressor, error) {
	switch ca.Kind {
	case "linear":
		if len(ca.Coef) != n {
			return nil, fmt.Errorf("has %d coefficients, want %d", len(ca.Coef), n)
		}
		return &linearModel{intercept: ca.Intercept, coef: ca.Coef}, nil

	case "forest", "boosted":
		trees, err := buildTrees(ca.Trees, n)
		if err != nil {
			return nil, err
		}
		if ca.Kind == "forest" {
			return &forestModel{trees: trees}, nil
		}
		shrinkage := ca.Shrinkage
		if shrinkage == 0 {
			shrinkage = 1
		}
		return &boostedModel{base: ca.Base, shrinkage: shrinkage, trees: trees}, nil

	case "onnx":
		if ca.Path == "" {
			return nil, fmt.Errorf("onnx component needs a path")
		}
		return newONNXRegressor(ca.Path, ca.Input, ca.Output, n)

	default:
		return nil, fmt.Errorf("unknown regressor kind %q", ca.Kind)
	}
}

func buildTrees(arts []treeArtifact, n int) ([]tree, error) {
	if len(arts) == 0 {
		return nil, fmt.Errorf("has no trees")
	}
	trees := make([]tree, 0, len(arts))
	for ti, ta := range arts {
		nodes := len(ta.Feature)
		if len(ta.Threshold) != nodes || len(ta.Left) != nodes ||
			len(ta.Right) != nodes || len(ta.Value) != nodes {
			return nil, fmt.Errorf("tree %d has ragged node arrays", ti)
		}
		for i := 0; i < nodes; i++ {
			if ta.Feature[i] >= n {
				return nil, fmt.Errorf("tree %d node %d references feature %d, schema has %d",
					ti, i, ta.Feature[i], n)
			}
			if ta.Feature[i] >= 0 {
				if ta.Left[i] < 0 || ta.Left[i] >= nodes || ta.Right[i] < 0 || ta.Right[i] >= nodes {
					return nil, fmt.Errorf("tree %d node %d has out-of-range children", ti, i)
				}
			}
		}
		trees = append(trees, tree{
			feature:   ta.Feature,
			threshold: ta.Threshold,
			left:      ta.Left,
			right:     ta.Right,
			value:     ta.Value,
		})
	}
	return trees, nil
}
