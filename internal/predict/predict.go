// Package predict wires the price estimation pipeline end to end: the
// validation gate, the pattern extractor, the feature engineer, the fitted
// scaler, and the weighted ensemble.
//
// Inference is pure, synchronous, and stateless per request. The only
// shared resource is the read-only model registry, so an Engine serves any
// number of concurrent Predict calls without locking.
package predict

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mahmedddd/ezsell-sub001/internal/extract"
	"github.com/mahmedddd/ezsell-sub001/internal/feature"
	"github.com/mahmedddd/ezsell-sub001/internal/gate"
	"github.com/mahmedddd/ezsell-sub001/internal/model"
	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// Confidence is the prediction reliability tier, derived from how much of
// the expected signal was actually extracted from the text.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Band widths per confidence tier, as a fraction of the point estimate.
// More complete input earns a narrower band; that is the whole reason
// completeness is tracked through the pipeline.
var bandWidth = map[Confidence]float64{
	ConfidenceHigh:   0.05,
	ConfidenceMedium: 0.10,
	ConfidenceLow:    0.15,
}

// Request is one prediction request. Category is fixed at construction;
// structured hints always win over text extraction for the same field.
type Request struct {
	Category    string `json:"category" validate:"required"`
	Title       string `json:"title" validate:"required,min=10"`
	Description string `json:"description" validate:"required,min=20"`
	Condition   string `json:"condition" validate:"required,oneof=new used refurbished"`
	Hints       Hints  `json:"hints"`
}

// Hints are the optional category-specific structured fields. Pointer
// numerics distinguish "not supplied" from zero. Material is required for
// furniture unless the text itself names one.
type Hints struct {
	Brand           string   `json:"brand,omitempty"`
	RAMGB           *float64 `json:"ram_gb,omitempty" validate:"omitempty,gt=0"`
	StorageGB       *float64 `json:"storage_gb,omitempty" validate:"omitempty,gt=0"`
	CameraMP        *float64 `json:"camera_mp,omitempty" validate:"omitempty,gt=0"`
	BatteryMAH      *float64 `json:"battery_mah,omitempty" validate:"omitempty,gt=0"`
	ScreenSizeIn    *float64 `json:"screen_size_in,omitempty" validate:"omitempty,gt=0"`
	Processor       string   `json:"processor,omitempty"`
	Generation      *float64 `json:"generation,omitempty" validate:"omitempty,gte=1,lte=14"`
	GPU             string   `json:"gpu,omitempty"`
	Material        string   `json:"material,omitempty"`
	FurnitureType   string   `json:"furniture_type,omitempty"`
	SeatingCapacity *float64 `json:"seating_capacity,omitempty" validate:"omitempty,gte=1,lte=12"`
	AgeMonths       *float64 `json:"age_months,omitempty" validate:"omitempty,gte=0,lte=240"`
	Flags           map[string]bool `json:"flags,omitempty"`
}

// PriceRange is the confidence-scaled interval around the point estimate.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Result is a served prediction. Invariants: PredictedPrice >= 0 and
// PriceRange.Min <= PredictedPrice <= PriceRange.Max.
type Result struct {
	PredictedPrice    float64        `json:"predicted_price"`
	Confidence        Confidence     `json:"confidence"`
	PriceRange        PriceRange     `json:"price_range"`
	ExtractedFeatures map[string]any `json:"extracted_features"`
	Completeness      float64        `json:"completeness"`
	Category          vocab.Category `json:"category"`
	ModelVersion      string         `json:"model_version"`
}

// Engine runs predictions against a loaded registry. Immutable after
// construction; safe for concurrent use.
type Engine struct {
	registry  *model.Registry
	tables    *vocab.Table
	extractor *extract.Extractor
	engineer  *feature.Engineer
	validate  *validator.Validate
	logger    zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger attaches an operational logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an engine over a loaded registry and vocabulary table.
func NewEngine(registry *model.Registry, tables *vocab.Table, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:  registry,
		tables:    tables,
		extractor: extract.New(tables),
		engineer:  feature.NewEngineer(tables),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Predict runs the full pipeline for one request. Errors are one of
// *ValidationError, model.ErrModelNotLoaded (wrapped), or *PredictionFailed.
func (e *Engine) Predict(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cat, verr := e.checkRequest(req)
	if verr != nil {
		return nil, verr
	}
	cond, _ := vocab.ParseCondition(req.Condition)

	if reason := gate.Check(gate.Input{
		Category:    cat,
		Title:       req.Title,
		Description: req.Description,
		Material:    req.Hints.Material,
	}, e.tables); reason != nil {
		return nil, &ValidationError{Reason: *reason}
	}

	raw := e.extractor.Run(cat, req.Title, req.Description, cond)

	vec, err := e.engineer.Build(cat, raw, overridesFrom(req.Hints))
	if err != nil {
		e.logger.Error().Err(err).Str("category", string(cat)).Msg("feature build failed")
		return nil, &PredictionFailed{Category: string(cat), Component: "feature_engineer", Err: err}
	}

	m, err := e.registry.Model(cat)
	if err != nil {
		return nil, err
	}

	scaled, err := m.Scaler.Transform(vec.Values)
	if err != nil {
		e.logger.Error().Err(err).Str("category", string(cat)).Msg("scaling failed")
		return nil, &PredictionFailed{Category: string(cat), Component: "scaler", Err: err}
	}

	price, err := combine(m.Components, scaled)
	if err != nil {
		pf := &PredictionFailed{Category: string(cat), Err: err}
		if ce, ok := err.(*componentError); ok {
			pf.Component = ce.name
			pf.Err = ce.err
		}
		e.logger.Error().Err(pf.Err).
			Str("category", string(cat)).
			Str("component", pf.Component).
			Msg("ensemble prediction failed")
		return nil, pf
	}

	conf := confidenceFor(raw.Completeness)
	res := &Result{
		PredictedPrice:    price,
		Confidence:        conf,
		PriceRange:        rangeFor(price, conf),
		ExtractedFeatures: surfacedFeatures(raw, req.Hints),
		Completeness:      raw.Completeness,
		Category:          cat,
		ModelVersion:      m.Version,
	}

	e.logger.Debug().
		Str("category", string(cat)).
		Float64("price", res.PredictedPrice).
		Str("confidence", string(res.Confidence)).
		Float64("completeness", res.Completeness).
		Msg("served prediction")

	return res, nil
}

// checkRequest runs struct validation and category parsing, translating
// failures into the same structured shape the gate produces.
func (e *Engine) checkRequest(req Request) (vocab.Category, *ValidationError) {
	cat, err := vocab.ParseCategory(req.Category)
	if err != nil {
		return "", &ValidationError{Reason: gate.Reason{
			Message:  err.Error(),
			Required: []string{"category must be one of: mobile, laptop, furniture"},
		}}
	}
	if err := e.validate.Struct(req); err != nil {
		reason := gate.Reason{Message: "request failed field validation"}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				reason.Required = append(reason.Required, fieldHint(fe))
			}
		} else {
			reason.Required = append(reason.Required, err.Error())
		}
		return "", &ValidationError{Reason: reason}
	}
	return cat, nil
}

func fieldHint(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		return "title must be at least 10 characters"
	case "Description":
		return "description must be at least 20 characters"
	case "Condition":
		return "condition must be one of: new, used, refurbished"
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}

// componentError tags a regressor failure with the component name so the
// operator log can say which model raised without re-running the request.
type componentError struct {
	name string
	err  error
}

func (c *componentError) Error() string { return c.name + ": " + c.err.Error() }
func (c *componentError) Unwrap() error { return c.err }

// combine applies each component regressor and mixes the votes with the
// artifact's fixed weights. Result is clamped to zero: a price is never
// negative. Any component failure fails the whole combination.
func combine(components []model.Component, x []float64) (float64, error) {
	price := 0.0
	for _, c := range components {
		v, err := c.Regressor.Predict(x)
		if err != nil {
			return 0, &componentError{name: c.Name, err: err}
		}
		price += c.Weight * v
	}
	if price < 0 {
		price = 0
	}
	return price, nil
}

// confidenceFor maps completeness onto the confidence tier.
func confidenceFor(completeness float64) Confidence {
	switch {
	case completeness > 0.75:
		return ConfidenceHigh
	case completeness >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// rangeFor derives the price interval; min never drops below zero.
func rangeFor(price float64, conf Confidence) PriceRange {
	w := bandWidth[conf]
	lo := price * (1 - w)
	if lo < 0 {
		lo = 0
	}
	return PriceRange{Min: lo, Max: price * (1 + w)}
}

// overridesFrom converts request hints into feature-engineer overrides.
func overridesFrom(h Hints) feature.Overrides {
	return feature.Overrides{
		Brand:           h.Brand,
		RAMGB:           h.RAMGB,
		StorageGB:       h.StorageGB,
		CameraMP:        h.CameraMP,
		BatteryMAH:      h.BatteryMAH,
		ScreenSizeIn:    h.ScreenSizeIn,
		Processor:       h.Processor,
		Generation:      h.Generation,
		GPU:             h.GPU,
		Material:        h.Material,
		FurnitureType:   h.FurnitureType,
		SeatingCapacity: h.SeatingCapacity,
		AgeMonths:       h.AgeMonths,
		Flags:           h.Flags,
	}
}

// surfacedFeatures is the transparency subset returned to the caller:
// vocabulary labels, text-matched numerics, set flags, and any hints that
// overrode them.
func surfacedFeatures(raw *extract.RawFeatures, h Hints) map[string]any {
	out := make(map[string]any)
	for k, v := range raw.Labels {
		out[k] = v
	}
	for k := range raw.Matched {
		if v, ok := raw.Numeric[k]; ok {
			out[k] = v
		}
	}
	if v, ok := raw.Numeric["condition_score"]; ok {
		out["condition_score"] = v
	}
	for k, on := range raw.Flags {
		if on {
			out[k] = true
		}
	}

	put := func(k string, p *float64) {
		if p != nil {
			out[k] = *p
		}
	}
	if h.Brand != "" {
		out["brand"] = h.Brand
	}
	if h.Processor != "" {
		out["processor"] = h.Processor
	}
	if h.GPU != "" {
		out["gpu"] = h.GPU
	}
	if h.Material != "" {
		out["material"] = h.Material
	}
	if h.FurnitureType != "" {
		out["furniture_type"] = h.FurnitureType
	}
	put("ram_gb", h.RAMGB)
	put("storage_gb", h.StorageGB)
	put("camera_mp", h.CameraMP)
	put("battery_mah", h.BatteryMAH)
	put("screen_size_in", h.ScreenSizeIn)
	put("generation", h.Generation)
	put("seating_capacity", h.SeatingCapacity)
	put("age_months", h.AgeMonths)
	return out
}
