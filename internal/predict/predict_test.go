package predict

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mahmedddd/ezsell-sub001/internal/model"
	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

type fixedRegressor struct{ v float64 }

func (r fixedRegressor) Predict(x []float64) (float64, error) { return r.v, nil }

type failingRegressor struct{}

func (failingRegressor) Predict(x []float64) (float64, error) {
	return 0, fmt.Errorf("numerical blowup")
}

func TestCombine_WeightedSum(t *testing.T) {
	components := []model.Component{
		{Name: "gradient_boosting", Weight: 0.35, Regressor: fixedRegressor{100}},
		{Name: "random_forest", Weight: 0.35, Regressor: fixedRegressor{200}},
		{Name: "ridge", Weight: 0.15, Regressor: fixedRegressor{150}},
		{Name: "linear", Weight: 0.15, Regressor: fixedRegressor{50}},
	}
	got, err := combine(components, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := 0.35*100 + 0.35*200 + 0.15*150 + 0.15*50
	if got != want {
		t.Errorf("combine = %v, want %v", got, want)
	}
}

func TestCombine_ClampsNegative(t *testing.T) {
	components := []model.Component{
		{Name: "linear", Weight: 1.0, Regressor: fixedRegressor{-5000}},
	}
	got, err := combine(components, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("combine = %v, want 0 (never negative)", got)
	}
}

func TestCombine_ComponentFailureNamed(t *testing.T) {
	components := []model.Component{
		{Name: "fine", Weight: 0.5, Regressor: fixedRegressor{100}},
		{Name: "broken", Weight: 0.5, Regressor: failingRegressor{}},
	}
	_, err := combine(components, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	var ce *componentError
	if !errors.As(err, &ce) || ce.name != "broken" {
		t.Errorf("error should name the failing component, got %v", err)
	}
}

func TestConfidenceFor(t *testing.T) {
	cases := []struct {
		completeness float64
		want         Confidence
	}{
		{0.0, ConfidenceLow},
		{0.49, ConfidenceLow},
		{0.5, ConfidenceMedium},
		{0.75, ConfidenceMedium},
		{0.76, ConfidenceHigh},
		{1.0, ConfidenceHigh},
	}
	for _, c := range cases {
		if got := confidenceFor(c.completeness); got != c.want {
			t.Errorf("confidenceFor(%v) = %s, want %s", c.completeness, got, c.want)
		}
	}
}

func TestRangeFor(t *testing.T) {
	for _, conf := range []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh} {
		r := rangeFor(100000, conf)
		if r.Min > 100000 || r.Max < 100000 {
			t.Errorf("%s: range [%v, %v] does not bracket the point estimate", conf, r.Min, r.Max)
		}
		if r.Min < 0 {
			t.Errorf("%s: range min %v below zero", conf, r.Min)
		}
	}
	// Higher confidence means a tighter band.
	if rangeFor(100000, ConfidenceHigh).Max >= rangeFor(100000, ConfidenceLow).Max {
		t.Error("high confidence band should be narrower than low")
	}
	if r := rangeFor(0, ConfidenceLow); r.Min != 0 || r.Max != 0 {
		t.Errorf("zero price should yield a zero range, got %+v", r)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	registry, err := model.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(registry, vocab.Default())
}

func validMobileRequest() Request {
	return Request{
		Category:    "mobile",
		Title:       "Samsung Galaxy S23 Ultra 12GB RAM 256GB storage",
		Description: "108MP camera, 5000mAh battery, 6.8 inch display, PTA approved, 1 year old.",
		Condition:   "used",
	}
}

func TestPredict_EndToEnd(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Predict(context.Background(), validMobileRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.PredictedPrice < 0 {
		t.Errorf("price %v is negative", res.PredictedPrice)
	}
	if res.PriceRange.Min > res.PredictedPrice || res.PriceRange.Max < res.PredictedPrice {
		t.Errorf("range [%v, %v] does not bracket price %v",
			res.PriceRange.Min, res.PriceRange.Max, res.PredictedPrice)
	}
	if res.Category != vocab.CategoryMobile {
		t.Errorf("category = %s", res.Category)
	}
	if res.ModelVersion == "" {
		t.Error("model version missing")
	}
	if res.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %s, want high for a fully specified listing", res.Confidence)
	}
	if _, ok := res.ExtractedFeatures["brand"]; !ok {
		t.Error("extracted features should surface the brand")
	}
}

func TestPredict_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	req := validMobileRequest()
	a, err := e.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if a.PredictedPrice != b.PredictedPrice || a.Confidence != b.Confidence {
		t.Errorf("identical requests diverged: %v/%s vs %v/%s",
			a.PredictedPrice, a.Confidence, b.PredictedPrice, b.Confidence)
	}
}

func TestPredict_GateRejection(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Predict(context.Background(), Request{
		Category:    "mobile",
		Title:       "Phone for sale cheap",
		Description: "Very good phone, urgent sale, priced to move.",
		Condition:   "used",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Reason.Required) == 0 {
		t.Error("rejection should carry actionable hints")
	}
}

func TestPredict_FieldValidation(t *testing.T) {
	e := newTestEngine(t)
	cases := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"unknown category", func(r *Request) { r.Category = "car" }},
		{"short title", func(r *Request) { r.Title = "S23" }},
		{"short description", func(r *Request) { r.Description = "nice phone" }},
		{"bad condition", func(r *Request) { r.Condition = "broken" }},
		{"negative ram hint", func(r *Request) { v := -4.0; r.Hints.RAMGB = &v }},
		{"age hint out of range", func(r *Request) { v := 500.0; r.Hints.AgeMonths = &v }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validMobileRequest()
			c.mutate(&req)
			_, err := e.Predict(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected *ValidationError, got %v", err)
			}
		})
	}
}

func TestPredict_ConfidenceTracksCompleteness(t *testing.T) {
	e := newTestEngine(t)

	sparse, err := e.Predict(context.Background(), Request{
		Category:    "mobile",
		Title:       "Samsung phone urgent sale",
		Description: "Good phone for daily use, serious buyers only.",
		Condition:   "used",
	})
	if err != nil {
		t.Fatal(err)
	}
	full, err := e.Predict(context.Background(), validMobileRequest())
	if err != nil {
		t.Fatal(err)
	}
	if sparse.Completeness >= full.Completeness {
		t.Errorf("sparse completeness %v should trail full %v", sparse.Completeness, full.Completeness)
	}
	if sparse.Confidence != ConfidenceLow {
		t.Errorf("sparse confidence = %s, want low", sparse.Confidence)
	}

	// Relative band width widens as confidence drops.
	sparseW := (sparse.PriceRange.Max - sparse.PriceRange.Min) / sparse.PredictedPrice
	fullW := (full.PriceRange.Max - full.PriceRange.Min) / full.PredictedPrice
	if sparseW <= fullW {
		t.Errorf("sparse band %v should be wider than full band %v", sparseW, fullW)
	}
}

func TestPredict_HintsSurfacedAndApplied(t *testing.T) {
	e := newTestEngine(t)

	base := Request{
		Category:    "mobile",
		Title:       "Samsung Galaxy A54 for sale",
		Description: "Lightly used, complete box, no scratches at all.",
		Condition:   "used",
	}
	plain, err := e.Predict(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}

	ram := 16.0
	hinted := base
	hinted.Hints.RAMGB = &ram
	rich, err := e.Predict(context.Background(), hinted)
	if err != nil {
		t.Fatal(err)
	}

	if got, ok := rich.ExtractedFeatures["ram_gb"]; !ok || got != 16.0 {
		t.Errorf("ram_gb hint not surfaced, got %v", rich.ExtractedFeatures["ram_gb"])
	}
	if rich.PredictedPrice == plain.PredictedPrice {
		t.Error("a 16GB RAM hint should move the price")
	}
	// Hints fill the feature vector but never count toward completeness.
	if rich.Completeness != plain.Completeness {
		t.Errorf("hint changed completeness: %v vs %v", rich.Completeness, plain.Completeness)
	}
}

func TestPredict_FurnitureMaterialHint(t *testing.T) {
	e := newTestEngine(t)
	req := Request{
		Category:    "furniture",
		Title:       "Modern 5 Seater Sofa Set",
		Description: "Comfortable and stylish, barely used at all.",
		Condition:   "used",
		Hints:       Hints{Material: "fabric"},
	}
	res, err := e.Predict(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != vocab.CategoryFurniture {
		t.Errorf("category = %s", res.Category)
	}

	req.Hints.Material = ""
	if _, err := e.Predict(context.Background(), req); err == nil {
		t.Error("expected rejection without material in text or hints")
	}
}

func TestPredict_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Predict(ctx, validMobileRequest()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
