package intake

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"garasiku/pkg/domain"
	"garasiku/pkg/store"
)

func TestPrefixFor(t *testing.T) {
	cases := []struct {
		brand, model, want string
	}{
		{"Toyota", "Avanza", "A"},
		{"Toyota", "Kijang Innova", "I"},
		{"Toyota", "Fortuner", "F"},
		{"Toyota", "Agya", "T"},
		{"toyota", "AVANZA", "A"},
		{"Honda", "Jazz", "J"},
		{"Honda", "Brio Satya", "B"},
		{"Honda", "CR-V", "H"},
		{"Daihatsu", "Xenia", "X"},
		{"Daihatsu", "Terios", "D"},
		{"Suzuki", "Ertiga", "E"},
		{"Mitsubishi", "Pajero Sport", "P"},
		{"Nissan", "Livina", "N"},
		{"Wuling", "Confero", "W"},
		{"Kia", "Picanto", "K"},
		{"Esemka", "Bima", "O"},
		{"", "", "O"},
	}
	for _, tc := range cases {
		if got := PrefixFor(tc.brand, tc.model); got != tc.want {
			t.Errorf("PrefixFor(%q, %q) = %q, want %q", tc.brand, tc.model, got, tc.want)
		}
	}
}

func TestGenerateSequence(t *testing.T) {
	vehicles := store.NewMemoryVehicleStore()
	gen := NewCodeGenerator(vehicles)
	ctx := context.Background()

	code, err := gen.Generate(ctx, "t1", "Toyota", "Avanza")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "#A01" {
		t.Fatalf("first code: expected #A01, got %q", code)
	}
	mustCreate(t, vehicles, "t1", code)

	code, err = gen.Generate(ctx, "t1", "Toyota", "Avanza")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "#A02" {
		t.Fatalf("second code: expected #A02, got %q", code)
	}
}

func TestGenerateScopedPerTenantAndPrefix(t *testing.T) {
	vehicles := store.NewMemoryVehicleStore()
	gen := NewCodeGenerator(vehicles)
	ctx := context.Background()

	mustCreate(t, vehicles, "t1", "#A07")

	code, err := gen.Generate(ctx, "t1", "Honda", "Jazz")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "#J01" {
		t.Fatalf("other prefix must start fresh, got %q", code)
	}

	code, err = gen.Generate(ctx, "t2", "Toyota", "Avanza")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "#A01" {
		t.Fatalf("other tenant must start fresh, got %q", code)
	}
}

func TestGenerateConcurrentNoGaps(t *testing.T) {
	vehicles := store.NewMemoryVehicleStore()
	gen := NewCodeGenerator(vehicles)
	ctx := context.Background()
	const n = 8

	var wg sync.WaitGroup
	codes := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				code, err := gen.Generate(ctx, "t1", "Toyota", "Avanza")
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				err = vehicles.Create(ctx, domain.Vehicle{TenantID: "t1", DisplayCode: code})
				if err == nil {
					codes <- code
					return
				}
				if !errors.Is(err, store.ErrCodeTaken) {
					t.Errorf("create: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(codes)

	var got []string
	for code := range codes {
		got = append(got, code)
	}
	sort.Strings(got)
	for i, code := range got {
		want := fmt.Sprintf("#A%02d", i+1)
		if code != want {
			t.Fatalf("expected dense sequence, position %d is %q (all: %v)", i, code, got)
		}
	}
}

type alwaysTakenStore struct {
	store.VehicleStore
}

func (alwaysTakenStore) FindHighestCode(context.Context, string, string) (string, bool, error) {
	return "#A05", true, nil
}

func (alwaysTakenStore) CodeExists(context.Context, string, string) (bool, error) {
	return true, nil
}

func TestGenerateExhausted(t *testing.T) {
	gen := NewCodeGenerator(alwaysTakenStore{})
	_, err := gen.Generate(context.Background(), "t1", "Toyota", "Avanza")
	if !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}
}

func mustCreate(t *testing.T, vehicles *store.MemoryVehicleStore, tenantID, code string) {
	t.Helper()
	if err := vehicles.Create(context.Background(), domain.Vehicle{TenantID: tenantID, DisplayCode: code}); err != nil {
		t.Fatalf("seed vehicle %s: %v", code, err)
	}
}
