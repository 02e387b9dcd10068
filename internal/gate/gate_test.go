package gate

import (
	"strings"
	"testing"

	"github.com/mahmedddd/ezsell-sub001/internal/vocab"
)

func check(t *testing.T, in Input) *Reason {
	t.Helper()
	return Check(in, vocab.Default())
}

func TestCheck_MobileWithBrand(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryMobile,
		Title:       "Samsung Galaxy S23 Ultra 12GB RAM 256GB",
		Description: "Slightly used, complete box, PTA approved.",
	})
	if r != nil {
		t.Fatalf("expected valid, got rejection: %+v", r)
	}
}

func TestCheck_MobileWithoutBrand(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryMobile,
		Title:       "Phone for sale",
		Description: "Very good phone, urgent sale needed.",
	})
	if r == nil {
		t.Fatal("expected rejection for brandless title")
	}
	if len(r.Required) == 0 || !strings.Contains(strings.ToLower(r.Required[0]), "brand") {
		t.Errorf("rejection should reference the missing brand, got %+v", r.Required)
	}
	if r.Example == "" {
		t.Error("rejection should carry an example title")
	}
}

func TestCheck_LaptopBrandButNoSpec(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryLaptop,
		Title:       "Dell laptop good condition",
		Description: "Nice laptop, barely used, urgent sale.",
	})
	if r == nil {
		t.Fatal("expected rejection: brand present but no processor/generation/RAM signal")
	}
	found := false
	for _, req := range r.Required {
		if strings.Contains(strings.ToLower(req), "processor") {
			found = true
		}
	}
	if !found {
		t.Errorf("rejection should name the missing spec signal, got %+v", r.Required)
	}
}

func TestCheck_LaptopWithSpecSignals(t *testing.T) {
	cases := []struct {
		name  string
		title string
	}{
		{"processor", "Dell Latitude Core i7 for sale"},
		{"generation", "Dell Latitude 8th Gen for sale"},
		{"ram", "Dell Latitude 16GB RAM for sale"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := check(t, Input{
				Category:    vocab.CategoryLaptop,
				Title:       c.title,
				Description: "Working condition, minor wear.",
			})
			if r != nil {
				t.Errorf("expected valid, got rejection: %+v", r)
			}
		})
	}
}

func TestCheck_LaptopSpecSignalInDescription(t *testing.T) {
	// The brand must be in the title, but a spec signal in the description
	// is enough: sellers routinely put "Core i5 8th Gen 8GB" in the body.
	r := check(t, Input{
		Category:    vocab.CategoryLaptop,
		Title:       "HP EliteBook for sale",
		Description: "Core i5 8th Gen, 8GB RAM, 256GB SSD, great battery.",
	})
	if r != nil {
		t.Fatalf("expected valid with spec signal in description, got rejection: %+v", r)
	}
}

func TestCheck_FurnitureWithoutMaterial(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryFurniture,
		Title:       "Modern 5 Seater Sofa",
		Description: "Comfortable and stylish, barely used.",
	})
	if r == nil {
		t.Fatal("expected rejection: no material in text or hints")
	}
	found := false
	for _, req := range r.Required {
		if strings.Contains(strings.ToLower(req), "material") {
			found = true
		}
	}
	if !found {
		t.Errorf("rejection should reference the missing material, got %+v", r.Required)
	}
}

func TestCheck_FurnitureWithMaterialHint(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryFurniture,
		Title:       "Modern 5 Seater Sofa",
		Description: "Comfortable and stylish, barely used.",
		Material:    "Fabric",
	})
	if r != nil {
		t.Fatalf("expected valid with material hint, got rejection: %+v", r)
	}
}

func TestCheck_FurnitureWithMaterialInText(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryFurniture,
		Title:       "Sheesham wood dining table",
		Description: "Solid wood, seats six comfortably.",
	})
	if r != nil {
		t.Fatalf("expected valid with material in text, got rejection: %+v", r)
	}
}

func TestCheck_FurnitureWithoutType(t *testing.T) {
	r := check(t, Input{
		Category:    vocab.CategoryFurniture,
		Title:       "Beautiful item for drawing room",
		Description: "Made of pure sheesham wood.",
	})
	if r == nil {
		t.Fatal("expected rejection: no furniture type token in title")
	}
}

func TestCheck_UnknownCategory(t *testing.T) {
	r := check(t, Input{Category: "boat", Title: "Yamaha boat", Description: "Fast boat for lake use."})
	if r == nil {
		t.Fatal("expected rejection for unknown category")
	}
}

func TestCheck_IsPure(t *testing.T) {
	in := Input{
		Category:    vocab.CategoryMobile,
		Title:       "Phone for sale",
		Description: "No brand mentioned anywhere here.",
	}
	first := check(t, in)
	second := check(t, in)
	if first == nil || second == nil {
		t.Fatal("expected rejections")
	}
	if first.Message != second.Message {
		t.Error("gate must be deterministic")
	}
}
