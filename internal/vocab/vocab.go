// Package vocab holds the shared vocabulary tables for the price estimation
// pipeline: brand names with premium tiers, furniture types, materials, and
// processor families, plus the category and condition enums.
//
// Both the validation gate and the pattern extractor read from the same Table
// so the two can never drift apart on what counts as a recognized token.
// Built-in tables are compiled in; a YAML file can override or extend them.
package vocab

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category selects which feature schema, vocabulary, and model apply.
type Category string

const (
	CategoryMobile    Category = "mobile"
	CategoryLaptop    Category = "laptop"
	CategoryFurniture Category = "furniture"
)

// Categories lists every supported category in a stable order.
func Categories() []Category {
	return []Category{CategoryMobile, CategoryLaptop, CategoryFurniture}
}

// ParseCategory parses a category string, case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mobile", "phone", "mobiles":
		return CategoryMobile, nil
	case "laptop", "laptops":
		return CategoryLaptop, nil
	case "furniture":
		return CategoryFurniture, nil
	default:
		return "", fmt.Errorf("unknown category %q (expected mobile, laptop, or furniture)", s)
	}
}

// Condition is the listing condition supplied by the seller.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

// ParseCondition parses a condition string, case-insensitively.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return ConditionNew, nil
	case "used":
		return ConditionUsed, nil
	case "refurbished", "refurb":
		return ConditionRefurbished, nil
	default:
		return "", fmt.Errorf("unknown condition %q (expected new, used, or refurbished)", s)
	}
}

// Table is one versioned set of vocabulary data. Tier values are in [0, 1]
// and feed directly into the feature engineer (brand_premium, material_tier,
// and so on). Keys are lowercase; multi-word keys are allowed and win over
// shorter keys via longest-match-first lookup.
type Table struct {
	Version string `yaml:"version"`

	MobileBrands      map[string]float64 `yaml:"mobile_brands"`
	LaptopBrands      map[string]float64 `yaml:"laptop_brands"`
	ProcessorFamilies map[string]float64 `yaml:"processor_families"`
	GPUFamilies       map[string]float64 `yaml:"gpu_families"`
	FurnitureTypes    map[string]float64 `yaml:"furniture_types"`
	Materials         map[string]float64 `yaml:"materials"`
}

// Match is the result of a vocabulary lookup.
type Match struct {
	Token string  // the vocabulary key that matched
	Tier  float64 // the tier value associated with the key
}

// MatchLongest finds the longest vocabulary key present in text as a
// case-insensitive substring. Longer keys are tried first so "macbook pro"
// beats a looser "apple" match when both appear.
func MatchLongest(text string, table map[string]float64) (Match, bool) {
	lower := strings.ToLower(text)
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(lower, k) {
			return Match{Token: k, Tier: table[k]}, true
		}
	}
	return Match{}, false
}

// ContainsAny reports whether any vocabulary key appears in text.
func ContainsAny(text string, table map[string]float64) bool {
	_, ok := MatchLongest(text, table)
	return ok
}

// BrandTable returns the brand table for a category, or nil for furniture.
func (t *Table) BrandTable(cat Category) map[string]float64 {
	switch cat {
	case CategoryMobile:
		return t.MobileBrands
	case CategoryLaptop:
		return t.LaptopBrands
	default:
		return nil
	}
}

// Default returns the built-in vocabulary table.
func Default() *Table {
	return &Table{
		Version: "2025.08",

		// Tier values are the brand premium the feature engineer consumes.
		// Aliases (model lines like "galaxy", "macbook pro") carry the tier
		// of their parent brand so longest-match lookup lands on the right
		// premium even when the brand name itself is absent.
		MobileBrands: map[string]float64{
			"apple":    1.00,
			"iphone":   1.00,
			"samsung":  0.90,
			"galaxy":   0.90,
			"google":   0.85,
			"pixel":    0.85,
			"oneplus":  0.80,
			"huawei":   0.70,
			"xiaomi":   0.65,
			"redmi":    0.60,
			"poco":     0.60,
			"oppo":     0.55,
			"vivo":     0.55,
			"realme":   0.50,
			"motorola": 0.50,
			"nokia":    0.45,
			"infinix":  0.40,
			"tecno":    0.35,
			"itel":     0.30,
		},
		LaptopBrands: map[string]float64{
			"macbook pro": 1.00,
			"macbook air": 0.95,
			"macbook":     0.95,
			"apple":       0.95,
			"razer":       0.90,
			"microsoft":   0.85,
			"surface":     0.85,
			"msi":         0.80,
			"asus":        0.75,
			"dell":        0.75,
			"lenovo":      0.70,
			"thinkpad":    0.75,
			"hp":          0.65,
			"acer":        0.55,
			"toshiba":     0.45,
			"haier":       0.35,
		},
		ProcessorFamilies: map[string]float64{
			"core i9":  1.00,
			"core i7":  0.85,
			"core i5":  0.65,
			"core i3":  0.45,
			"i9":       1.00,
			"i7":       0.85,
			"i5":       0.65,
			"i3":       0.45,
			"ryzen 9":  1.00,
			"ryzen 7":  0.85,
			"ryzen 5":  0.65,
			"ryzen 3":  0.45,
			"m3":       1.00,
			"m2":       0.90,
			"m1":       0.80,
			"celeron":  0.25,
			"pentium":  0.30,
			"athlon":   0.30,
			"snapdragon": 0.70,
		},
		GPUFamilies: map[string]float64{
			"rtx 40": 1.00,
			"rtx 30": 0.85,
			"rtx 20": 0.70,
			"rtx":    0.80,
			"gtx 16": 0.60,
			"gtx 10": 0.50,
			"gtx":    0.55,
			"radeon": 0.50,
			"arc":    0.45,
			"mx":     0.30,
			"iris":   0.20,
		},
		FurnitureTypes: map[string]float64{
			"dining table":   0.85,
			"dressing table": 0.70,
			"sofa set":       0.90,
			"sofa cum bed":   0.80,
			"sofa":           0.80,
			"bed set":        0.85,
			"bed":            0.75,
			"wardrobe":       0.70,
			"almirah":        0.60,
			"cupboard":       0.55,
			"table":          0.50,
			"office chair":   0.55,
			"chair":          0.40,
			"desk":           0.50,
			"bookshelf":      0.45,
			"shelf":          0.35,
			"stool":          0.25,
			"bench":          0.30,
			"swing":          0.40,
		},
		Materials: map[string]float64{
			"sheesham":       0.95,
			"rosewood":       0.95,
			"teak":           0.90,
			"walnut":         0.85,
			"oak":            0.85,
			"solid wood":     0.85,
			"marble":         0.80,
			"leather":        0.80,
			"wood":           0.70,
			"metal":          0.55,
			"steel":          0.55,
			"iron":           0.50,
			"glass":          0.50,
			"velvet":         0.55,
			"rattan":         0.50,
			"cane":           0.45,
			"fabric":         0.45,
			"mdf":            0.35,
			"particle board": 0.25,
			"plastic":        0.15,
		},
	}
}

// Load returns the built-in table merged with an optional YAML override
// file. A missing file is not an error; the defaults are returned as-is.
// Override entries are merged key-by-key so a file can adjust a single
// brand tier without restating the whole table.
func Load(path string) (*Table, error) {
	t := Default()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	var override Table
	if err := yaml.Unmarshal(b, &override); err != nil {
		return nil, fmt.Errorf("parsing vocabulary %s: %w", path, err)
	}
	t.merge(&override)
	return t, nil
}

func (t *Table) merge(o *Table) {
	if strings.TrimSpace(o.Version) != "" {
		t.Version = o.Version
	}
	mergeTiers(t.MobileBrands, o.MobileBrands)
	mergeTiers(t.LaptopBrands, o.LaptopBrands)
	mergeTiers(t.ProcessorFamilies, o.ProcessorFamilies)
	mergeTiers(t.GPUFamilies, o.GPUFamilies)
	mergeTiers(t.FurnitureTypes, o.FurnitureTypes)
	mergeTiers(t.Materials, o.Materials)
}

func mergeTiers(dst, src map[string]float64) {
	for k, v := range src {
		dst[strings.ToLower(strings.TrimSpace(k))] = v
	}
}
