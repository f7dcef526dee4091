package intake

import (
	"context"
	"errors"
	"testing"

	"garasiku/pkg/domain"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) GenerateText(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestExtractLLMPath(t *testing.T) {
	gen := &fakeGenerator{response: "Berikut hasilnya:\n```json\n" +
		`{"brand":"Honda","model":"Jazz","year":2019,"color":"Hitam","transmission":"Matic",` +
		`"km":88000,"price":187000000,"keyFeatures":["Tangan Pertama"]}` + "\n```"}
	e := NewExtractor(gen)

	result := e.Extract(context.Background(), "jual cepat jazz 2019")
	if !result.Success {
		t.Fatalf("expected success, got errors %v", result.Errors)
	}
	if result.Method != MethodLLM {
		t.Fatalf("expected llm method, got %q", result.Method)
	}
	if result.Data.Brand != "Honda" || result.Data.Model != "Jazz" {
		t.Fatalf("unexpected brand/model: %q %q", result.Data.Brand, result.Data.Model)
	}
	if result.Data.Price != 187000000 {
		t.Fatalf("expected price 187000000, got %d", result.Data.Price)
	}
	if result.Data.Transmission != domain.TransmissionMatic {
		t.Fatalf("expected Matic, got %q", result.Data.Transmission)
	}
	if result.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence, got %q", result.Confidence)
	}
}

func TestExtractLenientNumbers(t *testing.T) {
	gen := &fakeGenerator{response: `{"brand":"Toyota","model":"Avanza","year":"2015","price":"95000000"}`}
	e := NewExtractor(gen)

	result := e.Extract(context.Background(), "apapun")
	if !result.Success {
		t.Fatalf("expected success, got errors %v", result.Errors)
	}
	if result.Data.Year != 2015 || result.Data.Price != 95000000 {
		t.Fatalf("string numbers must coerce, got year=%d price=%d", result.Data.Year, result.Data.Price)
	}
	if result.Data.Color != domain.DefaultColor {
		t.Fatalf("normalization must apply defaults, got color %q", result.Data.Color)
	}
}

func TestExtractFallsBackToParser(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	e := NewExtractor(gen)

	result := e.Extract(context.Background(), "Honda Jazz 2019 hitam matic harga 187jt km 88000")
	if !result.Success {
		t.Fatalf("parser fallback should succeed, got errors %v", result.Errors)
	}
	if result.Method != MethodParser {
		t.Fatalf("expected parser method, got %q", result.Method)
	}
	if gen.calls != extractAttempts {
		t.Fatalf("expected %d llm attempts before fallback, got %d", extractAttempts, gen.calls)
	}
	if result.Data.Price != 187000000 {
		t.Fatalf("expected parsed price, got %d", result.Data.Price)
	}
}

func TestExtractReportsMissingFields(t *testing.T) {
	e := NewExtractor(nil)

	result := e.Extract(context.Background(), "Toyota Avanza tangan pertama")
	if result.Success {
		t.Fatal("expected failure when year and price are missing")
	}
	if result.Method != MethodFailed {
		t.Fatalf("expected failed method, got %q", result.Method)
	}
	want := map[string]bool{"year": true, "price": true}
	if len(result.Errors) != len(want) {
		t.Fatalf("expected missing %v, got %v", want, result.Errors)
	}
	for _, field := range result.Errors {
		if !want[field] {
			t.Fatalf("unexpected missing field %q in %v", field, result.Errors)
		}
	}
}

func TestExtractInvalidLLMOutputDegrades(t *testing.T) {
	gen := &fakeGenerator{response: "maaf, saya tidak bisa membantu"}
	e := NewExtractor(gen)

	result := e.Extract(context.Background(), "Toyota Avanza 2015 harga 95jt")
	if !result.Success || result.Method != MethodParser {
		t.Fatalf("prose-only llm output must degrade to parser, got %+v", result)
	}
}

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{`prefix {"a":"tutup }"} suffix`, `{"a":"tutup }"}`, true},
		{"no json here", "", false},
		{`{"never":"closed"`, "", false},
	}
	for _, tc := range cases {
		got, ok := firstJSONObject(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("firstJSONObject(%q) = %q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	draft := domain.VehicleDraft{Brand: "Toyota", Year: 2015, Price: 95000000}
	base := confidenceScore(draft)
	if confidenceFor(draft) != ConfidenceLow {
		t.Fatalf("required fields only should be low, score %d", base)
	}

	draft.Model = "Avanza"
	draft.Odometer = 60000
	afterImportant := confidenceScore(draft)
	if afterImportant <= base {
		t.Fatalf("adding fields must raise the score: %d -> %d", base, afterImportant)
	}
	if confidenceFor(draft) != ConfidenceMedium {
		t.Fatalf("expected medium at score %d", afterImportant)
	}

	draft.Transmission = domain.TransmissionMatic
	draft.Features = []string{"Tangan Pertama"}
	draft.Color = "Putih"
	full := confidenceScore(draft)
	if full <= afterImportant {
		t.Fatalf("adding fields must raise the score: %d -> %d", afterImportant, full)
	}
	if confidenceFor(draft) != ConfidenceHigh {
		t.Fatalf("expected high at score %d", full)
	}
}
