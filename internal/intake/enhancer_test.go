package intake

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"garasiku/pkg/domain"
)

func TestVariationDeterministic(t *testing.T) {
	s1, a1 := variationFor("Honda", "Jazz", 2019, 187000000)
	s2, a2 := variationFor("Honda", "Jazz", 2019, 187000000)
	if s1 != s2 || a1 != a2 {
		t.Fatalf("same input must pick the same variation: (%d,%d) vs (%d,%d)", s1, a1, s2, a2)
	}
	if s1 < 0 || s1 >= len(copyStyles) {
		t.Fatalf("style index out of range: %d", s1)
	}
	if a1 < 0 || a1 >= len(copyAngles) {
		t.Fatalf("angle index out of range: %d", a1)
	}
}

func TestVariationSpread(t *testing.T) {
	seen := make(map[[2]int]bool)
	for i := 0; i < 20; i++ {
		s, a := variationFor("Toyota", fmt.Sprintf("Model%d", i), 2010+i%10, int64(100000000+i*1000000))
		seen[[2]int{s, a}] = true
	}
	if len(seen) < 2 {
		t.Fatalf("20 distinct vehicles should spread over at least 2 variations, got %d", len(seen))
	}
}

func TestEnhanceTemplateFallbackWithoutGenerator(t *testing.T) {
	e := NewEnhancer(nil, nil, nil)
	draft := domain.VehicleDraft{
		Brand: "Honda", Model: "Jazz", Year: 2019,
		Color: "Hitam", Transmission: domain.TransmissionMatic,
		Odometer: 88000, Price: 187000000,
		Features: []string{"Tangan Pertama"},
	}

	got := e.Enhance(context.Background(), draft)
	if got.PublicName != "Honda Jazz 2019" {
		t.Fatalf("template name: got %q", got.PublicName)
	}
	if !strings.Contains(got.Description, "Kilometer 88000") {
		t.Fatalf("template description must mention the odometer, got %q", got.Description)
	}
	if got.ConditionNotes == "" {
		t.Fatal("template must fill condition notes")
	}
}

func TestEnhanceUsesGeneratorJSON(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" +
		`{"publicName":"Honda Jazz RS 2019 Istimewa","description":"Unit simpanan.","conditionNotes":"Mulus."}` +
		"\n```"}
	e := NewEnhancer(gen, nil, nil)

	got := e.Enhance(context.Background(), domain.VehicleDraft{Brand: "Honda", Model: "Jazz", Year: 2019, Price: 187000000})
	if got.PublicName != "Honda Jazz RS 2019 Istimewa" {
		t.Fatalf("expected generated name, got %q", got.PublicName)
	}
	if got.Description != "Unit simpanan." || got.ConditionNotes != "Mulus." {
		t.Fatalf("unexpected copy: %+v", got)
	}
}

func TestEnhanceBadOutputFallsBack(t *testing.T) {
	for _, response := range []string{
		"tidak bisa",
		`{"publicName":"","description":""}`,
		`{"publicName":"x","description":`,
	} {
		gen := &fakeGenerator{response: response}
		e := NewEnhancer(gen, nil, nil)
		got := e.Enhance(context.Background(), domain.VehicleDraft{Brand: "Toyota", Model: "Avanza", Year: 2015})
		if got.PublicName != "Toyota Avanza 2015" {
			t.Fatalf("response %q must fall back to template, got %+v", response, got)
		}
	}
}

type fakeMediaFetcher struct {
	data []byte
	mime string
	err  error
}

func (f *fakeMediaFetcher) Fetch(context.Context, string) ([]byte, string, error) {
	return f.data, f.mime, f.err
}

type fakeVision struct {
	response string
	err      error
	prompted bool
}

func (f *fakeVision) AnalyzeImage(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	f.prompted = true
	return f.response, f.err
}

func TestEnhanceVisionGroundsPrompt(t *testing.T) {
	var captured string
	gen := &promptCapturingGenerator{capture: &captured,
		response: `{"publicName":"Honda Jazz RS 2019","description":"ok","conditionNotes":"ok"}`}
	vision := &fakeVision{response: `{"actualColor":"Kuning Lemon","overallCondition":"sangat baik"}`}
	media := &fakeMediaFetcher{data: []byte("jpg"), mime: "image/jpeg"}
	e := NewEnhancer(gen, vision, media)

	e.Enhance(context.Background(), domain.VehicleDraft{
		Brand: "Honda", Model: "Jazz", Year: 2019, Price: 187000000,
		Photos: []string{"photos/t1/abc.jpg"},
	})
	if !vision.prompted {
		t.Fatal("vision must run when a photo is stored")
	}
	if !strings.Contains(captured, "Kuning Lemon") {
		t.Fatalf("copy prompt must carry the vision report, got:\n%s", captured)
	}
}

type promptCapturingGenerator struct {
	capture  *string
	response string
}

func (g *promptCapturingGenerator) GenerateText(_ context.Context, _, userPrompt string) (string, error) {
	*g.capture = userPrompt
	return g.response, nil
}
