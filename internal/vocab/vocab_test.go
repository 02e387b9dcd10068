package vocab

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"mobile", CategoryMobile, false},
		{"Laptop", CategoryLaptop, false},
		{"FURNITURE", CategoryFurniture, false},
		{"phone", CategoryMobile, false},
		{"car", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ParseCategory(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseCategory(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseCondition(t *testing.T) {
	if _, err := ParseCondition("broken"); err == nil {
		t.Error("expected error for unknown condition")
	}
	got, err := ParseCondition("Refurbished")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ConditionRefurbished {
		t.Errorf("got %q, want refurbished", got)
	}
}

func TestMatchLongest_PrefersLongerKey(t *testing.T) {
	tables := Default()

	// The title contains both "apple" and "macbook pro"; the longer key
	// must win.
	m, ok := MatchLongest("Apple MacBook Pro 2021 excellent condition", tables.LaptopBrands)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Token != "macbook pro" {
		t.Errorf("matched %q, want %q", m.Token, "macbook pro")
	}
	if m.Tier != 1.0 {
		t.Errorf("tier = %v, want 1.0", m.Tier)
	}
}

func TestMatchLongest_CaseInsensitive(t *testing.T) {
	tables := Default()
	m, ok := MatchLongest("SAMSUNG galaxy s23", tables.MobileBrands)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Token != "samsung" {
		t.Errorf("matched %q, want samsung", m.Token)
	}
}

func TestMatchLongest_NoMatch(t *testing.T) {
	tables := Default()
	if _, ok := MatchLongest("generic phone for sale", tables.MobileBrands); ok {
		t.Error("expected no match for unbranded text")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	tables, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.Version != Default().Version {
		t.Errorf("version = %q, want default", tables.Version)
	}
}

func TestLoad_MergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := `version: "2025.09-custom"
mobile_brands:
  samsung: 0.95
  newbrand: 0.42
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables.Version != "2025.09-custom" {
		t.Errorf("version = %q, want override", tables.Version)
	}
	if tables.MobileBrands["samsung"] != 0.95 {
		t.Errorf("samsung tier = %v, want 0.95", tables.MobileBrands["samsung"])
	}
	if tables.MobileBrands["newbrand"] != 0.42 {
		t.Errorf("newbrand tier = %v, want 0.42", tables.MobileBrands["newbrand"])
	}
	// Untouched entries survive the merge.
	if tables.MobileBrands["apple"] != 1.0 {
		t.Errorf("apple tier = %v, want 1.0", tables.MobileBrands["apple"])
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
