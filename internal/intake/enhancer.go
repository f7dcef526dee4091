package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"garasiku/pkg/ai"
	"garasiku/pkg/domain"
)

// Enhanced is the marketing copy produced for a draft.
type Enhanced struct {
	PublicName     string `json:"publicName"`
	Description    string `json:"description"`
	ConditionNotes string `json:"conditionNotes"`
}

// MediaFetcher reads a stored photo back for analysis.
type MediaFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

// Narrative styles and benefit angles. The deterministic pick below spreads
// listings across the 20 combinations while keeping any one vehicle stable.
var copyStyles = []string{
	"profesional dan lugas",
	"ramah dan hangat",
	"enerjik dan persuasif",
	"elegan dan premium",
}

var copyAngles = []string{
	"harga kompetitif di kelasnya",
	"kondisi terawat dan siap pakai",
	"cocok untuk mobilitas keluarga",
	"irit dan murah perawatan",
	"nilai jual kembali yang kuat",
}

const enhanceTimeout = 25 * time.Second

// Enhancer produces the public listing copy: optional vision grounding on
// the first photo plus one generation call, with a template fallback so the
// confirm step can never be blocked by the AI path.
type Enhancer struct {
	generator ai.TextGenerator
	vision    ai.VisionAnalyzer
	media     MediaFetcher
	timeout   time.Duration
}

// NewEnhancer builds an enhancer. Any dependency may be nil; missing pieces
// just narrow the path toward the template fallback.
func NewEnhancer(generator ai.TextGenerator, vision ai.VisionAnalyzer, media MediaFetcher) *Enhancer {
	return &Enhancer{generator: generator, vision: vision, media: media, timeout: enhanceTimeout}
}

// variationFor hashes the identifying fields with FNV-1a and picks one of 4
// styles and one of 5 angles. Same input bytes, same pair, on every run.
func variationFor(brand, model string, year int, price int64) (int, int) {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%d|%d", brand, model, year, price)
	sum := h.Sum32()
	return int(sum % 4), int((sum / 4) % 5)
}

type visionReport struct {
	ActualColor      string   `json:"actualColor"`
	Variant          string   `json:"variant"`
	PaintCondition   string   `json:"paintCondition"`
	Modifications    []string `json:"modifications"`
	FeatureHighlight []string `json:"featureHighlights"`
	OverallCondition string   `json:"overallCondition"`
	SellingPoints    []string `json:"sellingPoints"`
}

const visionPrompt = `Analisa foto mobil ini dan balas HANYA dengan satu objek JSON:
{"actualColor": warna sebenarnya, "variant": varian/trim yang terlihat,
"paintCondition": kondisi cat, "modifications": [modifikasi yang terlihat],
"featureHighlights": [fitur yang terlihat], "overallCondition": kondisi umum,
"sellingPoints": [poin jual yang menonjol]}`

// Enhance computes the public name, description, and condition notes for the
// draft. It never fails: every error path lands on the template fallback.
func (e *Enhancer) Enhance(ctx context.Context, draft domain.VehicleDraft) Enhanced {
	report := e.analyzeFirstPhoto(ctx, draft)
	styleIdx, angleIdx := variationFor(draft.Brand, draft.Model, draft.Year, draft.Price)

	if e.generator == nil {
		return templateCopy(draft)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	response, err := e.generator.GenerateText(callCtx, copywriterSystemPrompt, buildCopyPrompt(draft, report, styleIdx, angleIdx))
	if err != nil {
		slog.Warn("copy generation failed, using template", "err", err)
		return templateCopy(draft)
	}
	raw, ok := firstJSONObject(response)
	if !ok {
		slog.Warn("copy generation returned no json, using template")
		return templateCopy(draft)
	}
	var enhanced Enhanced
	if err := json.Unmarshal([]byte(raw), &enhanced); err != nil {
		slog.Warn("copy generation returned bad json, using template", "err", err)
		return templateCopy(draft)
	}
	if strings.TrimSpace(enhanced.PublicName) == "" || strings.TrimSpace(enhanced.Description) == "" {
		return templateCopy(draft)
	}
	return enhanced
}

// analyzeFirstPhoto is best-effort; a nil report just means the copy prompt
// goes out without visual grounding.
func (e *Enhancer) analyzeFirstPhoto(ctx context.Context, draft domain.VehicleDraft) *visionReport {
	if len(draft.Photos) == 0 || e.vision == nil || e.media == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	image, mimeType, err := e.media.Fetch(callCtx, draft.Photos[0])
	if err != nil {
		slog.Warn("photo fetch for vision failed", "ref", draft.Photos[0], "err", err)
		return nil
	}
	response, err := e.vision.AnalyzeImage(callCtx, visionPrompt, image, mimeType)
	if err != nil {
		slog.Warn("vision analysis failed", "err", err)
		return nil
	}
	raw, ok := firstJSONObject(response)
	if !ok {
		return nil
	}
	var report visionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil
	}
	return &report
}

const copywriterSystemPrompt = `Kamu adalah copywriter iklan mobil bekas untuk katalog online.
Balas HANYA dengan satu objek JSON:
{"publicName": judul listing maksimal 60 karakter,
"description": deskripsi 2-3 paragraf,
"conditionNotes": catatan kondisi singkat dan jujur}`

func buildCopyPrompt(draft domain.VehicleDraft, report *visionReport, styleIdx, angleIdx int) string {
	var sb strings.Builder
	sb.WriteString("Data kendaraan:\n")
	fmt.Fprintf(&sb, "- Merek: %s\n- Model: %s\n- Tahun: %d\n", draft.Brand, draft.Model, draft.Year)
	fmt.Fprintf(&sb, "- Warna: %s\n- Transmisi: %s\n", draft.Color, draft.Transmission)
	if draft.Odometer > 0 {
		fmt.Fprintf(&sb, "- Kilometer: %d\n", draft.Odometer)
	}
	fmt.Fprintf(&sb, "- Harga: Rp %d\n", draft.Price)
	if len(draft.Features) > 0 {
		fmt.Fprintf(&sb, "- Fitur: %s\n", strings.Join(draft.Features, ", "))
	}
	if draft.Notes != "" {
		fmt.Fprintf(&sb, "- Catatan penjual: %s\n", draft.Notes)
	}
	if report != nil {
		sb.WriteString("\nHasil analisa foto:\n")
		if report.ActualColor != "" {
			fmt.Fprintf(&sb, "- Warna terlihat: %s\n", report.ActualColor)
		}
		if report.Variant != "" {
			fmt.Fprintf(&sb, "- Varian: %s\n", report.Variant)
		}
		if report.PaintCondition != "" {
			fmt.Fprintf(&sb, "- Kondisi cat: %s\n", report.PaintCondition)
		}
		if len(report.Modifications) > 0 {
			fmt.Fprintf(&sb, "- Modifikasi: %s\n", strings.Join(report.Modifications, ", "))
		}
		if len(report.FeatureHighlight) > 0 {
			fmt.Fprintf(&sb, "- Fitur terlihat: %s\n", strings.Join(report.FeatureHighlight, ", "))
		}
		if report.OverallCondition != "" {
			fmt.Fprintf(&sb, "- Kondisi umum: %s\n", report.OverallCondition)
		}
		if len(report.SellingPoints) > 0 {
			fmt.Fprintf(&sb, "- Poin jual: %s\n", strings.Join(report.SellingPoints, ", "))
		}
	}
	fmt.Fprintf(&sb, "\nGaya penulisan: %s.\n", copyStyles[styleIdx])
	fmt.Fprintf(&sb, "Sudut penawaran: %s.\n", copyAngles[angleIdx])
	return sb.String()
}

// templateCopy assembles fixed copy straight from the draft, no external
// calls.
func templateCopy(draft domain.VehicleDraft) Enhanced {
	name := strings.TrimSpace(fmt.Sprintf("%s %s %d", draft.Brand, draft.Model, draft.Year))
	name = strings.Join(strings.Fields(name), " ")

	var desc strings.Builder
	fmt.Fprintf(&desc, "%s warna %s, transmisi %s, tahun %d.", name, draft.Color, draft.Transmission, draft.Year)
	if draft.Odometer > 0 {
		fmt.Fprintf(&desc, " Kilometer %d.", draft.Odometer)
	}
	if len(draft.Features) > 0 {
		fmt.Fprintf(&desc, " %s.", strings.Join(draft.Features, ", "))
	}
	desc.WriteString(" Hubungi kami untuk jadwal lihat unit.")

	notes := "Kondisi sesuai foto, dokumen lengkap."
	if draft.Notes != "" {
		notes = draft.Notes
	}
	return Enhanced{
		PublicName:     name,
		Description:    desc.String(),
		ConditionNotes: notes,
	}
}
