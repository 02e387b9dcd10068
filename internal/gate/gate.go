// Package gate implements the pre-extraction validation check for price
// prediction requests.
//
// The gate exists to stop low-information listings before any extraction
// runs: a title with no recognized brand or type token cannot produce a
// usable feature vector, and serving a prediction for it would just be a
// guess dressed up as a number. The check is pure (no I/O, no side effects)
// so rejecting a request is cheap.
package gate

import (
	"strings"

	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

// Reason explains why a request was rejected, with enough structure for the
// caller to re-prompt the seller.
type Reason struct {
	Message     string   `json:"message"`
	Required    []string `json:"required"`
	Recommended []string `json:"recommended,omitempty"`
	Example     string   `json:"example"`
}

// Input is the subset of a prediction request the gate inspects.
type Input struct {
	Category    vocab.Category
	Title       string
	Description string
	// Material is the structured material hint, if any. Furniture requires
	// a material either here or somewhere in the text.
	Material string
}

// Examples of valid titles, surfaced in rejection hints.
const (
	exampleMobile    = "Samsung Galaxy S23 Ultra 12GB RAM 256GB PTA Approved"
	exampleLaptop    = "Dell Latitude 7490 Core i7 8th Gen 16GB RAM 512GB SSD"
	exampleFurniture = "5 Seater Sheesham Wood Sofa Set"
)

// Check reports whether the request carries the minimum category-required
// signal. A nil Reason means the request may proceed to extraction.
func Check(in Input, tables *vocab.Table) *Reason {
	switch in.Category {
	case vocab.CategoryMobile:
		return checkMobile(in, tables)
	case vocab.CategoryLaptop:
		return checkLaptop(in, tables)
	case vocab.CategoryFurniture:
		return checkFurniture(in, tables)
	default:
		return &Reason{
			Message:  "unknown category",
			Required: []string{"category must be one of: mobile, laptop, furniture"},
			Example:  exampleMobile,
		}
	}
}

// checkMobile requires a recognized brand token in the title. A model or
// number token is recommended but not required.
func checkMobile(in Input, tables *vocab.Table) *Reason {
	if vocab.ContainsAny(in.Title, tables.MobileBrands) {
		return nil
	}
	return &Reason{
		Message:     "title does not mention a recognized phone brand",
		Required:    []string{"brand name in title (e.g. Samsung, Apple, Xiaomi, Infinix)"},
		Recommended: []string{"model name or number", "RAM and storage (e.g. 8GB/128GB)"},
		Example:     exampleMobile,
	}
}

// checkLaptop requires a brand token in the title plus at least one spec
// signal anywhere in the text: a processor family, a generation number, or
// an explicit RAM figure.
func checkLaptop(in Input, tables *vocab.Table) *Reason {
	combined := in.Title + " " + in.Description
	hasBrand := vocab.ContainsAny(in.Title, tables.LaptopBrands)
	hasSpec := vocab.ContainsAny(combined, tables.ProcessorFamilies) ||
		generationRE.MatchString(combined) ||
		ramRE.MatchString(combined)

	if hasBrand && hasSpec {
		return nil
	}

	r := &Reason{
		Message: "title needs a laptop brand plus at least one spec (processor, generation, or RAM)",
		Example: exampleLaptop,
	}
	if !hasBrand {
		r.Required = append(r.Required, "brand name in title (e.g. Dell, HP, Lenovo, Apple)")
	}
	if !hasSpec {
		r.Required = append(r.Required, "processor family, generation, or RAM (e.g. Core i5, 8th Gen, 16GB RAM)")
	}
	r.Recommended = []string{"storage size and type (e.g. 512GB SSD)", "screen size"}
	return r
}

// checkFurniture requires a recognized furniture-type token plus a material,
// which may come from the text or from the structured hint. Material is the
// one field required as structured input for this category.
func checkFurniture(in Input, tables *vocab.Table) *Reason {
	combined := in.Title + " " + in.Description
	hasType := vocab.ContainsAny(in.Title, tables.FurnitureTypes)
	hasMaterial := strings.TrimSpace(in.Material) != "" ||
		vocab.ContainsAny(combined, tables.Materials)

	if hasType && hasMaterial {
		return nil
	}

	r := &Reason{
		Message: "furniture listings need a furniture type in the title and a material",
		Example: exampleFurniture,
	}
	if !hasType {
		r.Required = append(r.Required, "furniture type in title (e.g. sofa, bed, dining table, wardrobe)")
	}
	if !hasMaterial {
		r.Required = append(r.Required, "material, either in the text or as the material field (e.g. Sheesham, MDF, Fabric)")
	}
	r.Recommended = []string{"seating capacity or dimensions", "age of the item"}
	return r
}
