package model

import "fmt"

// linearModel is a fitted linear or ridge regressor: intercept + coef·x.
// Ridge differs from plain least squares only at fit time; at inference
// both are a dot product.
type linearModel struct {
	intercept float64
	coef      []float64
}

func (m *linearModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.coef) {
		return 0, fmt.Errorf("linear model expects %d features, got %d", len(m.coef), len(x))
	}
	out := m.intercept
	for i, c := range m.coef {
		out += c * x[i]
	}
	return out, nil
}

// tree is one decision tree in flattened-array form (the usual sklearn
// export layout): node i is a leaf when feature[i] < 0, otherwise the walk
// goes left when x[feature[i]] <= threshold[i].
type tree struct {
	feature   []int
	threshold []float64
	left      []int
	right     []int
	value     []float64
}

func (t *tree) eval(x []float64) (float64, error) {
	node := 0
	// Bounded by node count; a well-formed tree terminates long before.
	for steps := 0; steps <= len(t.feature); steps++ {
		f := t.feature[node]
		if f < 0 {
			return t.value[node], nil
		}
		if f >= len(x) {
			return 0, fmt.Errorf("tree node %d references feature %d, vector has %d", node, f, len(x))
		}
		if x[f] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
		if node < 0 || node >= len(t.feature) {
			return 0, fmt.Errorf("tree walk out of node range at %d", node)
		}
	}
	return 0, fmt.Errorf("tree walk did not terminate")
}

// forestModel averages its trees (random forest).
type forestModel struct {
	trees []tree
}

func (m *forestModel) Predict(x []float64) (float64, error) {
	if len(m.trees) == 0 {
		return 0, fmt.Errorf("forest has no trees")
	}
	sum := 0.0
	for i := range m.trees {
		v, err := m.trees[i].eval(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	return sum / float64(len(m.trees)), nil
}

// boostedModel sums shrunken tree outputs over a base score (gradient
// boosting).
type boostedModel struct {
	base      float64
	shrinkage float64
	trees     []tree
}

func (m *boostedModel) Predict(x []float64) (float64, error) {
	out := m.base
	for i := range m.trees {
		v, err := m.trees[i].eval(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		out += m.shrinkage * v
	}
	return out, nil
}
