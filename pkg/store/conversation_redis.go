package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"garasiku/pkg/domain"
)

// RedisConversationStore keeps conversation state in Redis with TTL. A flow
// abandoned mid-way expires on its own instead of pinning the user forever.
type RedisConversationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisConversationStore builds a Redis-backed conversation store.
func NewRedisConversationStore(addr, password string, ttl time.Duration) *RedisConversationStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisConversationStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

func conversationKey(tenantID, user string) string {
	return fmt.Sprintf("conv:%s:%s", tenantID, user)
}

// Get loads the active state for the key, if any.
func (s *RedisConversationStore) Get(ctx context.Context, tenantID, user string) (domain.ConversationState, bool, error) {
	raw, err := s.client.Get(ctx, conversationKey(tenantID, user)).Result()
	if err == redis.Nil {
		return domain.ConversationState{}, false, nil
	}
	if err != nil {
		return domain.ConversationState{}, false, fmt.Errorf("get conversation: %w", err)
	}
	var state domain.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.ConversationState{}, false, fmt.Errorf("decode conversation: %w", err)
	}
	return state, true, nil
}

// Start writes a fresh state, replacing any previous flow for the key.
func (s *RedisConversationStore) Start(ctx context.Context, state domain.ConversationState) error {
	return s.write(ctx, state)
}

// Advance overwrites the state with the step handler's result.
func (s *RedisConversationStore) Advance(ctx context.Context, state domain.ConversationState) error {
	return s.write(ctx, state)
}

// Clear removes the state. Clearing an absent key is not an error.
func (s *RedisConversationStore) Clear(ctx context.Context, tenantID, user string) error {
	if err := s.client.Del(ctx, conversationKey(tenantID, user)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

func (s *RedisConversationStore) write(ctx context.Context, state domain.ConversationState) error {
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	key := conversationKey(state.TenantID, state.User)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}
	return nil
}
