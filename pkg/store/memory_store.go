package store

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"garasiku/pkg/domain"
)

// MemoryVehicleStore keeps vehicles in-process. Used in tests and local runs
// without Postgres.
type MemoryVehicleStore struct {
	mu       sync.RWMutex
	vehicles map[string]domain.Vehicle // key: tenantID + "/" + displayCode
	order    []string

	// CreateErr, when set, is returned by Create. Tests use it to simulate a
	// failing persistence layer.
	CreateErr error
}

// NewMemoryVehicleStore initializes an empty in-memory store.
func NewMemoryVehicleStore() *MemoryVehicleStore {
	return &MemoryVehicleStore{vehicles: make(map[string]domain.Vehicle)}
}

func vehicleKey(tenantID, code string) string { return tenantID + "/" + code }

func (m *MemoryVehicleStore) FindHighestCode(_ context.Context, tenantID, prefix string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best, bestNum := "", -1
	for _, v := range m.vehicles {
		if v.TenantID != tenantID || !strings.HasPrefix(v.DisplayCode, "#"+prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(v.DisplayCode, "#"+prefix))
		if err != nil {
			continue
		}
		if n > bestNum {
			best, bestNum = v.DisplayCode, n
		}
	}
	if bestNum < 0 {
		return "", false, nil
	}
	return best, true, nil
}

func (m *MemoryVehicleStore) CodeExists(_ context.Context, tenantID, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vehicles[vehicleKey(tenantID, code)]
	return ok, nil
}

func (m *MemoryVehicleStore) Create(_ context.Context, v domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	key := vehicleKey(v.TenantID, v.DisplayCode)
	if _, exists := m.vehicles[key]; exists {
		return ErrCodeTaken
	}
	m.vehicles[key] = v
	m.order = append(m.order, key)
	return nil
}

func (m *MemoryVehicleStore) GetBySlug(_ context.Context, tenantID, slug string) (domain.Vehicle, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.vehicles {
		if v.TenantID == tenantID && v.Slug == slug {
			return v, true, nil
		}
	}
	return domain.Vehicle{}, false, nil
}

// List returns vehicles in insertion order.
func (m *MemoryVehicleStore) List() []domain.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Vehicle, 0, len(m.order))
	for _, key := range m.order {
		res = append(res, m.vehicles[key])
	}
	return res
}

// MemoryConversationStore keeps conversation state in-process.
type MemoryConversationStore struct {
	mu     sync.RWMutex
	states map[string]domain.ConversationState
}

// NewMemoryConversationStore initializes an empty in-memory store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{states: make(map[string]domain.ConversationState)}
}

func (m *MemoryConversationStore) Get(_ context.Context, tenantID, user string) (domain.ConversationState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[conversationKey(tenantID, user)]
	return state, ok, nil
}

func (m *MemoryConversationStore) Start(_ context.Context, state domain.ConversationState) error {
	return m.put(state)
}

func (m *MemoryConversationStore) Advance(_ context.Context, state domain.ConversationState) error {
	return m.put(state)
}

func (m *MemoryConversationStore) Clear(_ context.Context, tenantID, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationKey(tenantID, user))
	return nil
}

func (m *MemoryConversationStore) put(state domain.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.UpdatedAt = time.Now().UTC()
	m.states[conversationKey(state.TenantID, state.User)] = state
	return nil
}
