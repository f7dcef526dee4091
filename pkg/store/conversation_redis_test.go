package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"garasiku/pkg/domain"
)

func newTestConversationStore(t *testing.T, ttl time.Duration) (*RedisConversationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisConversationStore(mr.Addr(), "", ttl), mr
}

func TestConversationRoundTrip(t *testing.T) {
	s, _ := newTestConversationStore(t, time.Hour)
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "t1", "628111"); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	state := domain.ConversationState{
		TenantID: "t1",
		User:     "628111",
		Flow:     domain.FlowVehicleIntake,
		Step:     domain.StepPhotos,
		Draft: domain.VehicleDraft{
			Brand: "Honda", Model: "Jazz", Year: 2019,
			Price: 187000000, Photos: []string{"photos/t1/a.jpg"},
		},
		Scope: domain.ScopeAdmin,
	}
	if err := s.Start(ctx, state); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, found, err := s.Get(ctx, "t1", "628111")
	if err != nil || !found {
		t.Fatalf("get after start: found=%v err=%v", found, err)
	}
	if got.Step != domain.StepPhotos || got.Draft.Brand != "Honda" || len(got.Draft.Photos) != 1 {
		t.Fatalf("state lost fields: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt must be stamped on write")
	}

	got.Step = domain.StepConfirm
	if err := s.Advance(ctx, got); err != nil {
		t.Fatalf("advance: %v", err)
	}
	got, _, _ = s.Get(ctx, "t1", "628111")
	if got.Step != domain.StepConfirm {
		t.Fatalf("advance not persisted, step %q", got.Step)
	}

	if err := s.Clear(ctx, "t1", "628111"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := s.Get(ctx, "t1", "628111"); found {
		t.Fatal("state must be gone after clear")
	}
	if err := s.Clear(ctx, "t1", "628111"); err != nil {
		t.Fatalf("clearing an absent key must not error: %v", err)
	}
}

func TestConversationTTLSet(t *testing.T) {
	s, mr := newTestConversationStore(t, 30*time.Minute)
	ctx := context.Background()

	state := domain.ConversationState{TenantID: "t1", User: "628111", Flow: domain.FlowVehicleIntake, Step: domain.StepPhotos}
	if err := s.Start(ctx, state); err != nil {
		t.Fatalf("start: %v", err)
	}
	ttl := mr.TTL(conversationKey("t1", "628111"))
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Fatalf("expected ttl in (0, 30m], got %v", ttl)
	}

	mr.FastForward(31 * time.Minute)
	if _, found, _ := s.Get(ctx, "t1", "628111"); found {
		t.Fatal("state must expire after the ttl")
	}
}

func TestConversationKeysIsolated(t *testing.T) {
	s, _ := newTestConversationStore(t, time.Hour)
	ctx := context.Background()

	for _, key := range []struct{ tenant, user string }{{"t1", "a"}, {"t1", "b"}, {"t2", "a"}} {
		state := domain.ConversationState{TenantID: key.tenant, User: key.user, Flow: domain.FlowVehicleIntake, Step: domain.StepPhotos}
		if err := s.Start(ctx, state); err != nil {
			t.Fatalf("start %s/%s: %v", key.tenant, key.user, err)
		}
	}
	if err := s.Clear(ctx, "t1", "a"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := s.Get(ctx, "t1", "b"); !found {
		t.Fatal("t1/b must survive clearing t1/a")
	}
	if _, found, _ := s.Get(ctx, "t2", "a"); !found {
		t.Fatal("t2/a must survive clearing t1/a")
	}
}
