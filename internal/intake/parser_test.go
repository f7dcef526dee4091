package intake

import (
	"reflect"
	"testing"

	"garasiku/pkg/domain"
)

func TestParseListingFull(t *testing.T) {
	draft := ParseListing("Honda Jazz 2019 hitam matic harga 187jt km 88000 tangan pertama")

	if draft.Brand != "Honda" {
		t.Fatalf("brand: expected Honda, got %q", draft.Brand)
	}
	if draft.Model != "Jazz" {
		t.Fatalf("model: expected Jazz, got %q", draft.Model)
	}
	if draft.Year != 2019 {
		t.Fatalf("year: expected 2019, got %d", draft.Year)
	}
	if draft.Color != "Hitam" {
		t.Fatalf("color: expected Hitam, got %q", draft.Color)
	}
	if draft.Transmission != domain.TransmissionMatic {
		t.Fatalf("transmission: expected Matic, got %q", draft.Transmission)
	}
	if draft.Odometer != 88000 {
		t.Fatalf("odometer: expected 88000, got %d", draft.Odometer)
	}
	if draft.Price != 187000000 {
		t.Fatalf("price: expected 187000000, got %d", draft.Price)
	}
	if !reflect.DeepEqual(draft.Features, []string{"Tangan Pertama"}) {
		t.Fatalf("features: expected [Tangan Pertama], got %v", draft.Features)
	}
	if draft.Plate != "" {
		t.Fatalf("plate: expected none, got %q", draft.Plate)
	}
}

func TestParseListingPriceWithoutMarker(t *testing.T) {
	draft := ParseListing("Honda Jazz 2019 hitam matic 187jt km 88000")
	if draft.Price != 187000000 {
		t.Fatalf("price: expected 187000000, got %d", draft.Price)
	}
	if draft.Odometer != 88000 {
		t.Fatalf("odometer: expected 88000, got %d", draft.Odometer)
	}

	draft = ParseListing("Daihatsu Xenia 2016 70rb km, 95jt")
	if draft.Odometer != 70000 {
		t.Fatalf("odometer: expected 70000, got %d", draft.Odometer)
	}
	if draft.Price != 95000000 {
		t.Fatalf("price must skip the odometer figure, got %d", draft.Price)
	}
}

func TestParseListingDefaults(t *testing.T) {
	draft := ParseListing("Toyota Avanza 2015 harga 95jt")

	if draft.Color != domain.DefaultColor {
		t.Fatalf("expected default color %q, got %q", domain.DefaultColor, draft.Color)
	}
	if draft.Transmission != domain.TransmissionManual {
		t.Fatalf("expected default transmission Manual, got %q", draft.Transmission)
	}
	if draft.FuelType != domain.DefaultFuelType {
		t.Fatalf("expected default fuel %q, got %q", domain.DefaultFuelType, draft.FuelType)
	}
	if draft.Features == nil || draft.Photos == nil {
		t.Fatalf("features and photos must be empty slices, got %v / %v", draft.Features, draft.Photos)
	}
}

func TestParseListingBrandFallback(t *testing.T) {
	draft := ParseListing("mobil Esemka Bima 2020 harga 95jt")
	if draft.Brand != "Esemka" {
		t.Fatalf("expected fallback brand Esemka, got %q", draft.Brand)
	}
	if draft.Model != "Bima" {
		t.Fatalf("expected model Bima, got %q", draft.Model)
	}
}

func TestParseListingPlate(t *testing.T) {
	draft := ParseListing("Toyota Avanza 2018 harga 130jt nopol B 1234 XYZ")
	if draft.Plate != "B 1234 XYZ" {
		t.Fatalf("plate: expected raw form, got %q", draft.Plate)
	}
	if draft.PlateClean != "B1234XYZ" {
		t.Fatalf("plate clean: expected B1234XYZ, got %q", draft.PlateClean)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"185jt", 185000000},
		{"185 juta", 185000000},
		{"185", 185000000},
		{"185000000", 185000000},
		{"Rp 185.000.000", 185000000},
		{"1,5jt", 1500000},
		{"500rb", 500000},
		{"mahal banget", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParsePrice(tc.in); got != tc.want {
			t.Errorf("ParsePrice(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseOdometerReply(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"km 88000", 88000},
		{"88000 km", 88000},
		{"88rb", 88000},
		{"88.000", 88000},
		{"12 ribu km", 12000},
		{"belum tau", 0},
	}
	for _, tc := range cases {
		if got := ParseOdometerReply(tc.in); got != tc.want {
			t.Errorf("ParseOdometerReply(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseYearBounds(t *testing.T) {
	if y := parseYear("toyota avanza 1999"); y != 0 {
		t.Fatalf("year below range must not parse, got %d", y)
	}
	if y := parseYear("toyota avanza 2026"); y != 0 {
		t.Fatalf("year above range must not parse, got %d", y)
	}
	if y := parseYear("toyota avanza 2000"); y != 2000 {
		t.Fatalf("expected 2000, got %d", y)
	}
}

func TestParseFeaturesDeduplicated(t *testing.T) {
	features := parseFeatures("full original ac dingin, dijamin full original")
	want := []string{"Full Orisinil", "AC Dingin"}
	if !reflect.DeepEqual(features, want) {
		t.Fatalf("expected %v, got %v", want, features)
	}
}
