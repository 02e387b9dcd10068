package extract

import (
	"regexp"
	"strconv"

	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// fieldSpec declares one extractable numeric field: an ordered list of
// pattern variants (most-specific-first) and a single plausibility check
// shared by all of them.
type fieldSpec struct {
	name     string
	patterns []patternSpec
	valid    func(float64) bool
}

// patternSpec is one regex variant plus the conversion from its capture
// groups to a numeric value.
type patternSpec struct {
	re    *regexp.Regexp
	value func(m []string) (float64, bool)
}

// flagSpec declares one boolean keyword flag.
type flagSpec struct {
	name string
	re   *regexp.Regexp
}

// group1 parses capture group 1 as a float. It is the conversion used by
// almost every pattern.
func group1(m []string) (float64, bool) {
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// group1TB parses capture group 1 as terabytes and converts to gigabytes.
func group1TB(m []string) (float64, bool) {
	v, ok := group1(m)
	if !ok {
		return 0, false
	}
	return v * 1024, true
}

func pattern(expr string) patternSpec {
	return patternSpec{re: regexp.MustCompile(expr), value: group1}
}

func patternTB(expr string) patternSpec {
	return patternSpec{re: regexp.MustCompile(expr), value: group1TB}
}

// oneOf builds a plausibility check over a discrete value set.
func oneOf(values ...float64) func(float64) bool {
	set := make(map[float64]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(v float64) bool { return set[v] }
}

// between builds an inclusive-range plausibility check.
func between(lo, hi float64) func(float64) bool {
	return func(v float64) bool { return v >= lo && v <= hi }
}

// ageSpec is shared by all three categories: "2 years old", "18 months old",
// "3 yrs used". Years convert to months.
func ageSpec() fieldSpec {
	years := func(m []string) (float64, bool) {
		v, ok := group1(m)
		if !ok {
			return 0, false
		}
		return v * 12, true
	}
	return fieldSpec{
		name: "age_months",
		patterns: []patternSpec{
			{re: regexp.MustCompile(`(\d{1,3})\s*months?\s*(?:old|use|used)`), value: group1},
			{re: regexp.MustCompile(`(\d{1,2})\s*(?:years?|yrs?)\s*(?:old|use|used)`), value: years},
			{re: regexp.MustCompile(`age\s*:?\s*(\d{1,3})\s*months?`), value: group1},
			{re: regexp.MustCompile(`age\s*:?\s*(\d{1,2})\s*(?:years?|yrs?)`), value: years},
		},
		valid: between(0, 240),
	}
}

// All text is lowercased before matching, so patterns are written lowercase
// without (?i).
func buildFieldSpecs() map[vocab.Category][]fieldSpec {
	ramMobile := fieldSpec{
		name: "ram_gb",
		patterns: []patternSpec{
			pattern(`(\d{1,3})\s*gb\s*ram`),
			pattern(`ram\s*:?\s*(\d{1,3})\s*gb`),
			pattern(`(\d{1,2})\s*[/+]\s*\d{2,4}\s*gb`), // "12/256GB" combo
		},
		valid: oneOf(2, 3, 4, 6, 8, 12, 16, 24, 32, 48, 64, 128),
	}

	storageMobile := fieldSpec{
		name: "storage_gb",
		patterns: []patternSpec{
			patternTB(`(\d(?:\.\d)?)\s*tb(?:\s*(?:rom|storage))?`),
			pattern(`(\d{2,4})\s*gb\s*(?:rom|storage|internal|memory)`),
			pattern(`\d{1,2}\s*[/+]\s*(\d{2,4})\s*gb`), // "12/256GB" combo
			pattern(`storage\s*:?\s*(\d{2,4})\s*gb`),
		},
		valid: between(16, 8192),
	}

	camera := fieldSpec{
		name: "camera_mp",
		patterns: []patternSpec{
			pattern(`(\d{1,3})\s*mp\b`),
			pattern(`(\d{1,3})\s*megapixels?`),
			pattern(`camera\s*:?\s*(\d{1,3})\b`),
		},
		valid: between(2, 200),
	}

	battery := fieldSpec{
		name: "battery_mah",
		patterns: []patternSpec{
			pattern(`(\d{3,5})\s*mah`),
			pattern(`battery\s*:?\s*(\d{3,5})\b`),
		},
		valid: between(1000, 10000),
	}

	screenMobile := fieldSpec{
		name: "screen_size_in",
		patterns: []patternSpec{
			pattern(`(\d(?:\.\d{1,2})?)\s*(?:inch(?:es)?|")`),
			pattern(`(?:display|screen)\s*:?\s*(\d(?:\.\d{1,2})?)\b`),
		},
		valid: between(3.0, 8.0),
	}

	ramLaptop := fieldSpec{
		name:     "ram_gb",
		patterns: ramMobile.patterns,
		valid:    oneOf(4, 6, 8, 12, 16, 24, 32, 48, 64, 128),
	}

	storageLaptop := fieldSpec{
		name: "storage_gb",
		patterns: []patternSpec{
			patternTB(`(\d(?:\.\d)?)\s*tb(?:\s*(?:ssd|hdd|nvme|storage))?`),
			pattern(`(\d{3,4})\s*gb\s*(?:ssd|hdd|nvme|storage)`),
			pattern(`(?:ssd|hdd|storage)\s*:?\s*(\d{3,4})\s*gb`),
			pattern(`\d{1,2}\s*[/+]\s*(\d{3,4})\s*gb`), // "16/512GB" combo
		},
		valid: between(64, 8192),
	}

	screenLaptop := fieldSpec{
		name: "screen_size_in",
		patterns: []patternSpec{
			pattern(`(\d{2}(?:\.\d{1,2})?)\s*(?:inch(?:es)?|")`),
			pattern(`(?:display|screen)\s*:?\s*(\d{2}(?:\.\d{1,2})?)\b`),
		},
		valid: between(10.0, 18.4),
	}

	generation := fieldSpec{
		name: "generation",
		patterns: []patternSpec{
			pattern(`(\d{1,2})\s*(?:th|st|nd|rd)\s*gen(?:eration)?`),
			pattern(`(\d{1,2})\s*gen(?:eration)?\b`),
			pattern(`gen(?:eration)?\s*:?\s*(\d{1,2})\b`),
		},
		valid: between(1, 14),
	}

	seating := fieldSpec{
		name: "seating_capacity",
		patterns: []patternSpec{
			pattern(`(\d{1,2})\s*seater`),
			pattern(`(\d{1,2})\s*seats?\b`),
			pattern(`seat(?:ing)?\s*(?:capacity)?\s*:?\s*(\d{1,2})\b`),
		},
		valid: between(1, 12),
	}

	return map[vocab.Category][]fieldSpec{
		vocab.CategoryMobile: {
			ramMobile, storageMobile, camera, battery, screenMobile, ageSpec(),
		},
		vocab.CategoryLaptop: {
			ramLaptop, storageLaptop, screenLaptop, generation, ageSpec(),
		},
		vocab.CategoryFurniture: {
			seating, ageSpec(),
		},
	}
}

func flag(name, expr string) flagSpec {
	return flagSpec{name: name, re: regexp.MustCompile(expr)}
}

func buildFlagSpecs() map[vocab.Category][]flagSpec {
	return map[vocab.Category][]flagSpec{
		vocab.CategoryMobile: {
			flag("is_5g", `\b5g\b`),
			flag("is_pta_approved", `\bpta[ -]?approved\b|\bofficially approved\b`),
			flag("is_dual_sim", `\bdual[ -]?sim\b`),
		},
		vocab.CategoryLaptop: {
			flag("is_ssd", `\bssd\b|\bnvme\b`),
			flag("is_gaming", `\bgaming\b`),
			flag("is_touchscreen", `\btouch\s*screen\b|\bx360\b|\b2[ -]?in[ -]?1\b`),
		},
		vocab.CategoryFurniture: {
			flag("is_imported", `\bimported\b`),
			flag("is_handmade", `\bhand\s*made\b|\bhand\s*crafted\b`),
			flag("has_storage", `\bwith\s*storage\b|\bstorage\s*box\b`),
		},
	}
}
