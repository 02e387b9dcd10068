// Package extract turns unstructured listing text into a raw feature
// dictionary for one category.
//
// Every numeric field carries an ordered list of regex variants (to tolerate
// spacing and ordering differences like "8gb ram" vs "ram: 8gb"); the first
// pattern that matches wins. Matched values then pass a per-field
// plausibility check; an out-of-range match is noise and is dropped back to
// "unmatched", not reported as an error. Brand, processor, furniture type,
// and material come from longest-match-first vocabulary lookup; boolean
// flags from keyword presence anywhere in the combined text.
//
// Fields with no match are simply absent from the result. Defaulting is the
// feature engineer's job, not ours.
package extract

import (
	"strings"

	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// RawFeatures is the output of one extraction run.
type RawFeatures struct {
	// Numeric holds matched numeric values and vocabulary tiers, keyed by
	// feature name (ram_gb, brand_premium, material_tier, ...).
	Numeric map[string]float64
	// Flags holds boolean keyword detections (is_5g, is_ssd, ...).
	Flags map[string]bool
	// Labels holds the human-readable tokens behind tier values
	// (brand, processor, material, furniture_type), for transparency.
	Labels map[string]string
	// Matched records which expected fields were resolved from the text.
	Matched map[string]bool
	// Completeness is matched expected fields over total expected fields.
	Completeness float64
}

// Extractor runs category-specific extraction against a vocabulary table.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	tables *vocab.Table
	fields map[vocab.Category][]fieldSpec
	flags  map[vocab.Category][]flagSpec
}

// New builds an extractor over the given vocabulary table.
func New(tables *vocab.Table) *Extractor {
	return &Extractor{
		tables: tables,
		fields: buildFieldSpecs(),
		flags:  buildFlagSpecs(),
	}
}

// expectedFields lists the fields that count toward the completeness score,
// per category. Boolean flags are excluded: the absence of "5G" in a title
// is a legitimate reading, not missing information.
var expectedFields = map[vocab.Category][]string{
	vocab.CategoryMobile: {
		"brand", "ram_gb", "storage_gb", "camera_mp", "battery_mah",
		"screen_size_in", "condition", "age_months",
	},
	vocab.CategoryLaptop: {
		"brand", "processor", "generation", "gpu", "ram_gb", "storage_gb",
		"screen_size_in", "condition", "age_months",
	},
	vocab.CategoryFurniture: {
		"furniture_type", "material", "seating_capacity", "condition", "age_months",
	},
}

// ExpectedFieldCount returns how many fields feed the completeness score
// for a category.
func ExpectedFieldCount(cat vocab.Category) int {
	return len(expectedFields[cat])
}

// Run extracts raw features from the combined title and description.
// Condition may be empty, in which case a qualitative keyword scan fills in
// the condition score; an explicit enum always wins.
func (e *Extractor) Run(cat vocab.Category, title, description string, cond vocab.Condition) *RawFeatures {
	combined := strings.ToLower(title + " " + description)

	raw := &RawFeatures{
		Numeric: make(map[string]float64),
		Flags:   make(map[string]bool),
		Labels:  make(map[string]string),
		Matched: make(map[string]bool),
	}

	// Ordered regex fields, first match wins, plausibility-checked.
	for _, f := range e.fields[cat] {
		for _, p := range f.patterns {
			m := p.re.FindStringSubmatch(combined)
			if m == nil {
				continue
			}
			v, ok := p.value(m)
			if !ok {
				continue
			}
			if f.valid != nil && !f.valid(v) {
				// Plausibility rejection: discard and keep trying later
				// patterns. A noisy match must not shadow a sane one.
				continue
			}
			raw.Numeric[f.name] = v
			raw.Matched[f.name] = true
			break
		}
	}

	// Vocabulary-backed fields, longest match first.
	e.matchVocabulary(cat, title, combined, raw)

	// Boolean keyword flags.
	for _, f := range e.flags[cat] {
		raw.Flags[f.name] = f.re.MatchString(combined)
	}

	// Condition: explicit enum first, keyword inference second.
	if score, matched := conditionScore(cond, combined); matched {
		raw.Numeric["condition_score"] = score
		raw.Matched["condition"] = true
	}

	raw.Completeness = e.completeness(cat, raw)
	return raw
}

// matchVocabulary resolves brand/processor/gpu/type/material tiers.
// Brand and furniture type are matched against the title only. The gate
// requires them there, and descriptions routinely name-drop other brands
// ("better than iPhone") that must not win.
func (e *Extractor) matchVocabulary(cat vocab.Category, title, combined string, raw *RawFeatures) {
	switch cat {
	case vocab.CategoryMobile:
		if m, ok := vocab.MatchLongest(title, e.tables.MobileBrands); ok {
			raw.Numeric["brand_premium"] = m.Tier
			raw.Labels["brand"] = m.Token
			raw.Matched["brand"] = true
		}
	case vocab.CategoryLaptop:
		if m, ok := vocab.MatchLongest(title, e.tables.LaptopBrands); ok {
			raw.Numeric["brand_premium"] = m.Tier
			raw.Labels["brand"] = m.Token
			raw.Matched["brand"] = true
		}
		if m, ok := vocab.MatchLongest(combined, e.tables.ProcessorFamilies); ok {
			raw.Numeric["processor_tier"] = m.Tier
			raw.Labels["processor"] = m.Token
			raw.Matched["processor"] = true
		}
		if m, ok := vocab.MatchLongest(combined, e.tables.GPUFamilies); ok {
			raw.Numeric["gpu_tier"] = m.Tier
			raw.Labels["gpu"] = m.Token
			raw.Matched["gpu"] = true
		}
	case vocab.CategoryFurniture:
		if m, ok := vocab.MatchLongest(title, e.tables.FurnitureTypes); ok {
			raw.Numeric["type_tier"] = m.Tier
			raw.Labels["furniture_type"] = m.Token
			raw.Matched["furniture_type"] = true
		}
		if m, ok := vocab.MatchLongest(combined, e.tables.Materials); ok {
			raw.Numeric["material_tier"] = m.Tier
			raw.Labels["material"] = m.Token
			raw.Matched["material"] = true
		}
	}
}

func (e *Extractor) completeness(cat vocab.Category, raw *RawFeatures) float64 {
	expected := expectedFields[cat]
	if len(expected) == 0 {
		return 0
	}
	matched := 0
	for _, f := range expected {
		if raw.Matched[f] {
			matched++
		}
	}
	return float64(matched) / float64(len(expected))
}

// conditionScore maps the condition enum, or failing that qualitative
// keywords, onto a [0, 1] score. The keyword table is ordered
// most-specific-first: "brand new but box open" should read as new-ish,
// not trip over "used" appearing elsewhere.
func conditionScore(cond vocab.Condition, combined string) (float64, bool) {
	switch cond {
	case vocab.ConditionNew:
		return 1.0, true
	case vocab.ConditionRefurbished:
		return 0.75, true
	case vocab.ConditionUsed:
		return 0.55, true
	}

	for _, kw := range conditionKeywords {
		for _, token := range kw.tokens {
			if strings.Contains(combined, token) {
				return kw.score, true
			}
		}
	}
	return 0, false
}

var conditionKeywords = []struct {
	tokens []string
	score  float64
}{
	{[]string{"for parts", "not working", "dead", "panel issue", "board issue"}, 0.2},
	{[]string{"10/10", "mint", "brand new", "box pack", "scratchless", "excellent"}, 0.9},
	{[]string{"good condition", "well maintained", "neat and clean", "lush"}, 0.7},
	{[]string{"fair condition", "average condition", "used"}, 0.5},
}
