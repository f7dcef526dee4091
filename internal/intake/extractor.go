package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"garasiku/pkg/ai"
	"garasiku/pkg/domain"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type ExtractionMethod string

const (
	MethodLLM    ExtractionMethod = "llm"
	MethodParser ExtractionMethod = "parser"
	MethodFailed ExtractionMethod = "failed"
)

// ExtractionResult is what the pipeline receives for a listing message.
// Success reports whether the minimum required fields are present; Errors
// names the missing ones when it is false.
type ExtractionResult struct {
	Success    bool
	Data       domain.VehicleDraft
	Method     ExtractionMethod
	Confidence Confidence
	Errors     []string
}

const (
	extractAttempts = 2
	extractTimeout  = 20 * time.Second
)

// Extractor turns a free-text listing into a draft, preferring the language
// model and degrading to the rule parser when it is unavailable.
type Extractor struct {
	generator ai.TextGenerator
	timeout   time.Duration
}

// NewExtractor builds an extractor. A nil generator skips straight to the
// parser path.
func NewExtractor(generator ai.TextGenerator) *Extractor {
	return &Extractor{generator: generator, timeout: extractTimeout}
}

const extractorSystemPrompt = `Kamu adalah asisten input inventaris showroom mobil bekas.
Balas HANYA dengan satu objek JSON, tanpa penjelasan, dengan field:
brand, model, year, color, transmission, km, price, plate, fuelType, keyFeatures, notes.
Aturan konversi harga: angka dengan "jt"/"juta" dikali 1.000.000 (contoh: "145jt" -> 145000000),
"rb" dikali 1.000, angka polos di bawah 1000 dibaca sebagai juta.
transmission hanya "Manual" atau "Matic". year berupa angka 4 digit.
km berupa angka kilometer. keyFeatures berupa array string.
Jika brand tidak disebut tetapi model dikenal, isi brand dari model:
Avanza/Innova/Fortuner/Rush/Agya/Calya -> Toyota; Jazz/Brio/CR-V/HR-V/Mobilio -> Honda;
Xenia/Terios/Sigra/Ayla -> Daihatsu; Ertiga/Baleno/Ignis -> Suzuki;
Pajero/Xpander -> Mitsubishi; Livina -> Nissan.
Field yang tidak disebut diisi null.`

// Extract runs the dual-path extraction. It never returns an error: transport
// failures, malformed responses, and validation misses all degrade to the
// parser, and a result with Success=false reports what is still missing.
func (e *Extractor) Extract(ctx context.Context, rawText string) ExtractionResult {
	if draft, ok := e.extractLLM(ctx, rawText); ok {
		if errs := validateDraft(draft); len(errs) == 0 {
			normalizeDraft(&draft)
			return ExtractionResult{
				Success:    true,
				Data:       draft,
				Method:     MethodLLM,
				Confidence: confidenceFor(draft),
			}
		}
	}

	draft := ParseListing(rawText)
	errs := validateDraft(draft)
	normalizeDraft(&draft)
	if len(errs) > 0 {
		return ExtractionResult{
			Success:    false,
			Data:       draft,
			Method:     MethodFailed,
			Confidence: ConfidenceLow,
			Errors:     errs,
		}
	}
	return ExtractionResult{
		Success:    true,
		Data:       draft,
		Method:     MethodParser,
		Confidence: confidenceFor(draft),
	}
}

func (e *Extractor) extractLLM(ctx context.Context, rawText string) (domain.VehicleDraft, bool) {
	if e.generator == nil {
		return domain.VehicleDraft{}, false
	}
	userPrompt := "Pesan listing:\n" + strings.TrimSpace(rawText)
	for attempt := 1; attempt <= extractAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		response, err := e.generator.GenerateText(callCtx, extractorSystemPrompt, userPrompt)
		cancel()
		if err != nil {
			slog.Warn("llm extraction attempt failed", "attempt", attempt, "err", err)
			continue
		}
		raw, ok := firstJSONObject(response)
		if !ok {
			slog.Warn("llm extraction returned no json", "attempt", attempt)
			continue
		}
		draft, err := decodeListing(raw)
		if err != nil {
			slog.Warn("llm extraction returned bad json", "attempt", attempt, "err", err)
			continue
		}
		return draft, true
	}
	return domain.VehicleDraft{}, false
}

// firstJSONObject returns the first balanced {...} in s, tolerating markdown
// code fences and any prose around it.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeListing reads the model's JSON leniently: numbers may arrive as
// strings, features as a single string or a list.
func decodeListing(raw string) (domain.VehicleDraft, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.VehicleDraft{}, fmt.Errorf("decode listing: %w", err)
	}
	draft := domain.VehicleDraft{
		Brand:    asString(fields["brand"]),
		Model:    asString(fields["model"]),
		Year:     int(asInt(fields["year"])),
		Color:    asString(fields["color"]),
		Odometer: int(asInt(fields["km"])),
		Price:    asInt(fields["price"]),
		Plate:    asString(fields["plate"]),
		FuelType: asString(fields["fuelType"]),
		Notes:    asString(fields["notes"]),
	}
	switch strings.ToLower(asString(fields["transmission"])) {
	case "matic", "automatic", "at":
		draft.Transmission = domain.TransmissionMatic
	case "manual", "mt":
		draft.Transmission = domain.TransmissionManual
	}
	draft.Features = asStringList(fields["keyFeatures"])
	return draft, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}

func asStringList(v any) []string {
	var out []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(list, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// validateDraft reports which required fields are absent or out of range.
func validateDraft(d domain.VehicleDraft) []string {
	var errs []string
	if strings.TrimSpace(d.Brand) == "" {
		errs = append(errs, "brand")
	}
	if d.Year < minYear || d.Year > maxYear {
		errs = append(errs, "year")
	}
	if d.Price <= 0 {
		errs = append(errs, "price")
	}
	return errs
}

// normalizeDraft trims strings, derives the clean plate variant, and applies
// the fixed defaults.
func normalizeDraft(d *domain.VehicleDraft) {
	d.Brand = strings.TrimSpace(d.Brand)
	d.Model = strings.TrimSpace(d.Model)
	d.Color = strings.TrimSpace(d.Color)
	d.Plate = strings.TrimSpace(d.Plate)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.Plate != "" {
		d.PlateClean = strings.ReplaceAll(strings.ToUpper(d.Plate), " ", "")
	}
	applyDraftDefaults(d)
}

// Confidence weights: required fields 3, important fields 2, enrichment 1.
const (
	confidenceHighMin   = 15
	confidenceMediumMin = 10
)

func confidenceScore(d domain.VehicleDraft) int {
	score := 0
	if strings.TrimSpace(d.Brand) != "" {
		score += 3
	}
	if d.Year >= minYear && d.Year <= maxYear {
		score += 3
	}
	if d.Price > 0 {
		score += 3
	}
	if strings.TrimSpace(d.Model) != "" {
		score += 2
	}
	if d.Odometer > 0 {
		score += 2
	}
	if d.Transmission != "" {
		score += 2
	}
	if d.Color != "" && d.Color != domain.DefaultColor {
		score++
	}
	if len(d.Features) > 0 {
		score++
	}
	if strings.TrimSpace(d.Notes) != "" {
		score++
	}
	return score
}

// confidenceFor buckets the weighted score. It depends only on the
// normalized draft, so both extraction paths score identically.
func confidenceFor(d domain.VehicleDraft) Confidence {
	score := confidenceScore(d)
	switch {
	case score >= confidenceHighMin:
		return ConfidenceHigh
	case score >= confidenceMediumMin:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
