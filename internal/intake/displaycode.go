package intake

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"garasiku/pkg/store"
)

// ErrCodeExhausted reports that allocation kept colliding past the retry
// budget. Pathological, but better surfaced than recursing forever.
var ErrCodeExhausted = errors.New("display code allocation exhausted")

const (
	maxCodeAttempts = 10
	otherPrefix     = "O"
)

// prefixRules is the ordered brand rule table. Within a brand, the first
// model substring match wins; an empty model entry is the brand default.
var prefixRules = []struct {
	brand  string
	models []struct{ substr, letter string }
}{
	{"toyota", []struct{ substr, letter string }{
		{"avanza", "A"},
		{"innova", "I"},
		{"fortuner", "F"},
		{"rush", "R"},
		{"", "T"},
	}},
	{"honda", []struct{ substr, letter string }{
		{"jazz", "J"},
		{"brio", "B"},
		{"", "H"},
	}},
	{"daihatsu", []struct{ substr, letter string }{
		{"xenia", "X"},
		{"", "D"},
	}},
	{"suzuki", []struct{ substr, letter string }{
		{"ertiga", "E"},
		{"", "S"},
	}},
	{"mitsubishi", []struct{ substr, letter string }{
		{"pajero", "P"},
		{"", "M"},
	}},
	{"nissan", []struct{ substr, letter string }{
		{"", "N"},
	}},
	{"wuling", []struct{ substr, letter string }{
		{"", "W"},
	}},
	{"kia", []struct{ substr, letter string }{
		{"", "K"},
	}},
}

// PrefixFor maps (brand, model) to the one-letter taxonomy prefix.
func PrefixFor(brand, model string) string {
	brand = strings.ToLower(strings.TrimSpace(brand))
	model = strings.ToLower(strings.TrimSpace(model))
	for _, rule := range prefixRules {
		if rule.brand != brand {
			continue
		}
		for _, m := range rule.models {
			if m.substr == "" || strings.Contains(model, m.substr) {
				return m.letter
			}
		}
	}
	return otherPrefix
}

// CodeGenerator allocates short human-readable display codes, unique per
// tenant.
type CodeGenerator struct {
	vehicles store.VehicleStore
}

// NewCodeGenerator builds a generator over the vehicle store.
func NewCodeGenerator(vehicles store.VehicleStore) *CodeGenerator {
	return &CodeGenerator{vehicles: vehicles}
}

// Generate returns the next free code for the tenant and taxonomy prefix,
// e.g. "#A01". Each attempt re-reads the highest existing code so concurrent
// allocations converge instead of fighting over a stale candidate.
func (g *CodeGenerator) Generate(ctx context.Context, tenantID, brand, model string) (string, error) {
	prefix := PrefixFor(brand, model)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		highest, found, err := g.vehicles.FindHighestCode(ctx, tenantID, prefix)
		if err != nil {
			return "", fmt.Errorf("find highest code: %w", err)
		}
		next := 1
		if found {
			suffix := strings.TrimPrefix(highest, "#"+prefix)
			n, err := strconv.Atoi(suffix)
			if err != nil {
				return "", fmt.Errorf("malformed existing code %q", highest)
			}
			next = n + 1
		}
		candidate := fmt.Sprintf("#%s%02d", prefix, next)
		exists, err := g.vehicles.CodeExists(ctx, tenantID, candidate)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrCodeExhausted
}
