package intake

import (
	"regexp"
	"strconv"
	"strings"

	"garasiku/pkg/domain"
)

// knownBrands is the priority-ordered brand keyword list. The first match in
// this order wins when a message names more than one brand.
var knownBrands = []string{
	"Toyota", "Honda", "Daihatsu", "Suzuki", "Mitsubishi", "Nissan",
	"Mazda", "Hyundai", "Kia", "Wuling", "BMW", "Mercedes", "Audi",
	"Lexus", "Isuzu", "Chery", "Datsun", "Peugeot", "Renault", "Ford",
	"Chevrolet", "Subaru",
}

// carKeywords precede an inferred brand when no known brand matches
// ("jual mobil Esemka ..." picks up "Esemka").
var carKeywords = []string{"mobil", "unit"}

var knownColors = []string{
	"hitam", "putih", "silver", "abu-abu", "abu", "merah", "biru",
	"hijau", "kuning", "coklat", "emas", "orange", "oranye", "maroon",
	"cream", "krem",
}

// featureKeywords map recognized phrases to their canonical display form.
var featureKeywords = []struct {
	match   string
	display string
}{
	{"tangan pertama", "Tangan Pertama"},
	{"pajak panjang", "Pajak Panjang"},
	{"pajak hidup", "Pajak Hidup"},
	{"service record", "Service Record"},
	{"servis record", "Service Record"},
	{"km rendah", "KM Rendah"},
	{"full orisinil", "Full Orisinil"},
	{"full original", "Full Orisinil"},
	{"orisinil", "Orisinil"},
	{"velg racing", "Velg Racing"},
	{"kamera mundur", "Kamera Mundur"},
	{"sunroof", "Sunroof"},
	{"keyless", "Keyless"},
	{"ac dingin", "AC Dingin"},
	{"interior rapi", "Interior Rapi"},
	{"mesin kering", "Mesin Kering"},
}

const (
	minYear = 2000
	maxYear = 2025
)

var (
	yearPattern       = regexp.MustCompile(`\b(20[0-2][0-9])\b`)
	pricePattern      = regexp.MustCompile(`(?i)\bharga\s*(?:rp\.?\s*)?([\d.,]+)\s*(jt|juta|rb|k)?\b`)
	priceUnitPattern  = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(jt|juta|rb|k)\b`)
	kmBeforePattern   = regexp.MustCompile(`(?i)\bkm\.?\s*([\d.,]+)\s*(rb|ribu)?\b`)
	kmAfterPattern    = regexp.MustCompile(`(?i)\b([\d.,]+)\s*(rb|ribu)?\s*km\b`)
	platePattern      = regexp.MustCompile(`\b([A-Z]{1,2})\s?(\d{1,4})\s?([A-Z]{1,3})\b`)
	bareNumberPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	thousandsPattern  = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseListing extracts whatever vehicle fields it can recognize from a
// free-text listing message. Deterministic, no I/O, never fails; missing
// fields stay zero except color and transmission, which default.
func ParseListing(text string) domain.VehicleDraft {
	draft := domain.VehicleDraft{}
	lower := strings.ToLower(text)

	draft.Brand, draft.Model = parseBrandModel(text, lower)
	draft.Year = parseYear(lower)
	draft.Color = parseColor(lower)
	draft.Transmission = parseTransmission(lower)
	draft.Odometer = parseOdometer(lower)
	draft.Price = parseListingPrice(lower)
	draft.Plate, draft.PlateClean = parsePlate(text)
	draft.Features = parseFeatures(lower)

	applyDraftDefaults(&draft)
	return draft
}

// applyDraftDefaults fills the fixed defaults for absent optional fields.
func applyDraftDefaults(draft *domain.VehicleDraft) {
	if draft.Color == "" {
		draft.Color = domain.DefaultColor
	}
	if draft.Transmission == "" {
		draft.Transmission = domain.TransmissionManual
	}
	if draft.FuelType == "" {
		draft.FuelType = domain.DefaultFuelType
	}
	if draft.Features == nil {
		draft.Features = []string{}
	}
	if draft.Photos == nil {
		draft.Photos = []string{}
	}
}

func parseBrandModel(text, lower string) (string, string) {
	words := strings.Fields(text)
	for _, brand := range knownBrands {
		idx := wordIndex(lower, strings.ToLower(brand))
		if idx < 0 {
			continue
		}
		return brand, modelAfter(words, idx)
	}
	// No known brand: take the word after a generic car keyword as the brand.
	for _, kw := range carKeywords {
		idx := wordIndex(lower, kw)
		if idx >= 0 && idx+1 < len(words) {
			candidate := strings.Trim(words[idx+1], ".,")
			if candidate != "" && !bareNumberPattern.MatchString(candidate) {
				return titleCase(candidate), modelAfter(words, idx+1)
			}
		}
	}
	return "", ""
}

// wordIndex returns the token position of the keyword, or -1.
func wordIndex(lower, keyword string) int {
	for i, w := range strings.Fields(lower) {
		if strings.Trim(w, ".,") == keyword {
			return i
		}
	}
	return -1
}

// modelAfter picks the token following the brand, skipping anything that
// reads as a year, number, or known keyword.
func modelAfter(words []string, brandIdx int) string {
	if brandIdx+1 >= len(words) {
		return ""
	}
	candidate := strings.Trim(words[brandIdx+1], ".,")
	lower := strings.ToLower(candidate)
	if candidate == "" || bareNumberPattern.MatchString(candidate) {
		return ""
	}
	for _, c := range knownColors {
		if lower == c {
			return ""
		}
	}
	switch lower {
	case "matic", "manual", "at", "mt", "harga", "km", "tahun", "warna":
		return ""
	}
	return titleCase(lower)
}

func parseYear(lower string) int {
	for _, m := range yearPattern.FindAllString(lower, -1) {
		year, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if year >= minYear && year <= maxYear {
			return year
		}
	}
	return 0
}

func parseColor(lower string) string {
	for _, color := range knownColors {
		if wordIndex(lower, color) >= 0 {
			if color == "abu" {
				color = "abu-abu"
			}
			return titleCase(color)
		}
	}
	return ""
}

func parseTransmission(lower string) domain.Transmission {
	for _, kw := range []string{"matic", "automatic", "otomatis", "a/t", "triptonic", "cvt"} {
		if strings.Contains(lower, kw) {
			return domain.TransmissionMatic
		}
	}
	if strings.Contains(lower, "manual") || wordIndex(lower, "mt") >= 0 {
		return domain.TransmissionManual
	}
	return ""
}

func parseOdometer(lower string) int {
	for _, pattern := range []*regexp.Regexp{kmBeforePattern, kmAfterPattern} {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		value, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		if m[2] != "" {
			value *= 1000
		}
		return int(value)
	}
	return 0
}

func parseListingPrice(lower string) int64 {
	if m := pricePattern.FindStringSubmatch(lower); m != nil {
		return priceFromParts(m[1], m[2])
	}
	// No "harga" marker: a number with an explicit unit suffix still reads as
	// a price, unless it was the odometer ("88rb km"). Only thousand-scale
	// units can be an odometer; "187jt km 88000" is a price followed by a
	// separate km figure.
	for _, m := range priceUnitPattern.FindAllStringSubmatchIndex(lower, -1) {
		value := lower[m[2]:m[3]]
		unit := lower[m[4]:m[5]]
		if unit == "rb" || unit == "k" {
			if strings.HasPrefix(strings.TrimSpace(lower[m[1]:]), "km") {
				continue
			}
		}
		return priceFromParts(value, unit)
	}
	return 0
}

func priceFromParts(value, unit string) int64 {
	n, ok := parseNumber(value)
	if !ok {
		return 0
	}
	switch strings.ToLower(unit) {
	case "jt", "juta":
		return int64(n * 1_000_000)
	case "rb", "k":
		return int64(n * 1_000)
	}
	// Bare numbers under 1000 are shorthand for millions.
	if n < 1000 {
		return int64(n * 1_000_000)
	}
	return int64(n)
}

// ParsePrice converts a price reply to integer rupiah. "185jt" and "185" both
// mean 185 million; full figures pass through unchanged. Returns 0 when the
// text holds no usable number.
func ParsePrice(text string) int64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if m := priceUnitPattern.FindStringSubmatch(text); m != nil {
		return priceFromParts(m[1], m[2])
	}
	cleaned := strings.NewReplacer("rp", "", ".", "", ",", ".", " ", "").Replace(text)
	n, ok := parseNumber(cleaned)
	if !ok {
		return 0
	}
	if n < 1000 {
		return int64(n * 1_000_000)
	}
	return int64(n)
}

// ParseOdometerReply converts an odometer reply to kilometers, accepting
// "88rb", "88.000", or "88000 km" forms.
func ParseOdometerReply(text string) int {
	lower := strings.ToLower(strings.TrimSpace(text))
	if v := parseOdometer(lower); v > 0 {
		return v
	}
	if m := priceUnitPattern.FindStringSubmatch(lower); m != nil && (m[2] == "rb" || m[2] == "ribu") {
		if n, ok := parseNumber(m[1]); ok {
			return int(n * 1000)
		}
	}
	cleaned := strings.NewReplacer(".", "", ",", "", " ", "").Replace(lower)
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n
	}
	return 0
}

func parsePlate(text string) (string, string) {
	upper := strings.ToUpper(text)
	if m := platePattern.FindStringSubmatch(upper); m != nil {
		raw := strings.TrimSpace(m[0])
		clean := m[1] + m[2] + m[3]
		return raw, clean
	}
	return "", ""
}

func parseFeatures(lower string) []string {
	var features []string
	seen := make(map[string]bool)
	for _, fk := range featureKeywords {
		if strings.Contains(lower, fk.match) && !seen[fk.display] {
			seen[fk.display] = true
			features = append(features, fk.display)
		}
	}
	return features
}

// parseNumber reads a number that may carry either a thousands separator or a
// decimal comma. "88.000" is 88000; "1,5" is 1.5.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// A dot followed by exactly three digits is a thousands separator.
	if thousandsPattern.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
