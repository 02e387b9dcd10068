// Package feature converts raw extracted values into the full ordered
// feature vector a category model expects.
//
// Three rules govern the build:
//   - structured hint overrides always replace text-derived values;
//   - missing fields fall back to an explicit per-field default table,
//     never to an implicit zero (zero RAM is nonsense; a zero 5G flag is
//     fine, so flags do default to 0);
//   - the emitted field order and count must exactly match the schema the
//     category model was fit on. That mapping is a versioned contract with
//     the model artifacts and is checked at artifact load time.
package feature

import (
	"fmt"
	"math"
	"strings"

	"github.com/mahmedddd/ezsell-sub001/internal/extract"
	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// Vector is an ordered feature vector ready for scaling. Immutable after
// construction.
type Vector struct {
	Names  []string
	Values []float64
}

// Get returns the value of a named feature.
func (v *Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Overrides carries the structured hints from the request. Pointer fields
// distinguish "not supplied" from a genuine zero. A non-nil override always
// wins over whatever the text said for the same field.
type Overrides struct {
	Brand           string
	RAMGB           *float64
	StorageGB       *float64
	CameraMP        *float64
	BatteryMAH      *float64
	ScreenSizeIn    *float64
	Processor       string
	Generation      *float64
	GPU             string
	Material        string
	FurnitureType   string
	SeatingCapacity *float64
	AgeMonths       *float64
	Flags           map[string]bool
}

// schemas fixes the field order per category. Changing an entry here
// without refitting the corresponding model artifact is a correctness bug;
// the registry refuses to load artifacts whose declared schema differs.
var schemas = map[vocab.Category][]string{
	vocab.CategoryMobile: {
		"brand_premium", "ram_gb", "storage_gb", "camera_mp", "battery_mah",
		"screen_size_in", "condition_score", "age_factor", "is_5g",
		"is_pta_approved", "ram_storage_ratio", "capacity_score",
		"brand_ram_interaction",
	},
	vocab.CategoryLaptop: {
		"brand_premium", "ram_gb", "storage_gb", "screen_size_in",
		"processor_tier", "generation", "gpu_tier", "condition_score",
		"age_factor", "is_ssd", "is_gaming", "is_touchscreen",
		"ram_storage_ratio", "processor_score", "brand_ram_interaction",
	},
	vocab.CategoryFurniture: {
		"material_tier", "type_tier", "seating_capacity", "condition_score",
		"age_factor", "is_imported", "is_handmade", "quality_score",
		"material_seating_interaction",
	},
}

// Schema returns the fixed feature order for a category.
func Schema(cat vocab.Category) []string {
	return schemas[cat]
}

// defaults is the reviewed per-field neutral value table. Values are chosen
// per category: an unhinted mobile defaults to a mid-market 4/64 handset,
// a laptop to an office-grade 8/256 machine, furniture to a mid-tier item.
var defaults = map[vocab.Category]map[string]float64{
	vocab.CategoryMobile: {
		"brand_premium":   0.50,
		"ram_gb":          4,
		"storage_gb":      64,
		"camera_mp":       13,
		"battery_mah":     4000,
		"screen_size_in":  6.1,
		"condition_score": 0.55,
		"age_months":      12,
	},
	vocab.CategoryLaptop: {
		"brand_premium":   0.50,
		"ram_gb":          8,
		"storage_gb":      256,
		"screen_size_in":  15.6,
		"processor_tier":  0.50,
		"generation":      8,
		"gpu_tier":        0,
		"condition_score": 0.55,
		"age_months":      18,
	},
	vocab.CategoryFurniture: {
		"material_tier":    0.50,
		"type_tier":        0.50,
		"seating_capacity": 3,
		"condition_score":  0.55,
		"age_months":       36,
	},
}

// ageDecay is the per-month exponential depreciation constant. Phones lose
// value fastest, furniture slowest.
var ageDecay = map[vocab.Category]float64{
	vocab.CategoryMobile:    0.040,
	vocab.CategoryLaptop:    0.030,
	vocab.CategoryFurniture: 0.010,
}

// Engineer builds feature vectors. Immutable, safe for concurrent use.
type Engineer struct {
	tables *vocab.Table
}

// NewEngineer creates an engineer over the shared vocabulary table (needed
// to resolve string hints like brand and material into tiers).
func NewEngineer(tables *vocab.Table) *Engineer {
	return &Engineer{tables: tables}
}

// Build assembles the full ordered vector: defaults, then text-derived
// values, then hint overrides, then derived features.
func (e *Engineer) Build(cat vocab.Category, raw *extract.RawFeatures, ov Overrides) (*Vector, error) {
	schema := schemas[cat]
	if schema == nil {
		return nil, fmt.Errorf("no feature schema for category %q", cat)
	}

	base := make(map[string]float64, len(schema))
	for k, v := range defaults[cat] {
		base[k] = v
	}
	if raw != nil {
		for k, v := range raw.Numeric {
			base[k] = v
		}
		for k, on := range raw.Flags {
			if on {
				base[k] = 1
			}
		}
	}
	e.applyOverrides(cat, base, ov)
	derive(cat, base)

	vec := &Vector{
		Names:  schema,
		Values: make([]float64, len(schema)),
	}
	for i, name := range schema {
		vec.Values[i] = base[name]
	}
	return vec, nil
}

func (e *Engineer) applyOverrides(cat vocab.Category, base map[string]float64, ov Overrides) {
	applyTier := func(field, hint string, table map[string]float64) {
		if strings.TrimSpace(hint) == "" {
			return
		}
		if m, ok := vocab.MatchLongest(hint, table); ok {
			base[field] = m.Tier
		}
	}
	applyNum := func(field string, p *float64) {
		if p != nil {
			base[field] = *p
		}
	}

	applyTier("brand_premium", ov.Brand, e.tables.BrandTable(cat))
	applyTier("processor_tier", ov.Processor, e.tables.ProcessorFamilies)
	applyTier("gpu_tier", ov.GPU, e.tables.GPUFamilies)
	applyTier("material_tier", ov.Material, e.tables.Materials)
	applyTier("type_tier", ov.FurnitureType, e.tables.FurnitureTypes)

	applyNum("ram_gb", ov.RAMGB)
	applyNum("storage_gb", ov.StorageGB)
	applyNum("camera_mp", ov.CameraMP)
	applyNum("battery_mah", ov.BatteryMAH)
	applyNum("screen_size_in", ov.ScreenSizeIn)
	applyNum("generation", ov.Generation)
	applyNum("seating_capacity", ov.SeatingCapacity)
	applyNum("age_months", ov.AgeMonths)

	for name, on := range ov.Flags {
		if on {
			base[name] = 1
		} else {
			base[name] = 0
		}
	}
}

// derive computes ratio, depreciation, composite, and interaction features
// from the resolved base fields. Weights are fixed; see each formula.
func derive(cat vocab.Category, base map[string]float64) {
	// age_factor = exp(-k * age_months); 1.0 means factory-fresh.
	base["age_factor"] = math.Exp(-ageDecay[cat] * base["age_months"])

	switch cat {
	case vocab.CategoryMobile:
		// +1 in the denominator avoids division by zero.
		base["ram_storage_ratio"] = base["ram_gb"] / (base["storage_gb"] + 1)
		base["capacity_score"] = 0.40*capped(base["ram_gb"]/16) +
			0.30*capped(base["storage_gb"]/512) +
			0.20*capped(base["battery_mah"]/6000) +
			0.10*capped(base["camera_mp"]/108)
		base["brand_ram_interaction"] = base["brand_premium"] * base["ram_gb"]

	case vocab.CategoryLaptop:
		base["ram_storage_ratio"] = base["ram_gb"] / (base["storage_gb"] + 1)
		base["processor_score"] = 0.50*base["processor_tier"] +
			0.30*capped(base["generation"]/14) +
			0.20*base["gpu_tier"]
		base["brand_ram_interaction"] = base["brand_premium"] * base["ram_gb"]

	case vocab.CategoryFurniture:
		base["quality_score"] = 0.50*base["material_tier"] +
			0.30*base["condition_score"] +
			0.20*base["type_tier"]
		base["material_seating_interaction"] = base["material_tier"] * base["seating_capacity"]
	}
}

// capped clamps a normalized component to [0, 1] so one oversized spec
// cannot dominate a composite score.
func capped(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
