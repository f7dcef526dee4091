package store

import (
	"context"
	"errors"

	"garasiku/pkg/domain"
)

// ErrCodeTaken reports a display-code uniqueness violation on insert. The
// allocator treats it as a lost race and retries.
var ErrCodeTaken = errors.New("display code already taken")

// VehicleStore persists inventory records and answers the display-code
// queries the allocator needs.
type VehicleStore interface {
	// FindHighestCode returns the numerically highest existing code for a
	// tenant and one-letter prefix. Soft-deleted vehicles count: their codes
	// are never reused.
	FindHighestCode(ctx context.Context, tenantID, prefix string) (string, bool, error)
	// CodeExists reports whether the exact code exists for the tenant in any
	// status.
	CodeExists(ctx context.Context, tenantID, code string) (bool, error)
	Create(ctx context.Context, v domain.Vehicle) error
	// GetBySlug looks up a vehicle by its catalog slug.
	GetBySlug(ctx context.Context, tenantID, slug string) (domain.Vehicle, bool, error)
}

// ConversationStore is the durable per-(tenant,user) flow record store.
// Callers serialize access per key; the store itself only needs last-write-wins
// semantics.
type ConversationStore interface {
	Get(ctx context.Context, tenantID, user string) (domain.ConversationState, bool, error)
	Start(ctx context.Context, state domain.ConversationState) error
	Advance(ctx context.Context, state domain.ConversationState) error
	Clear(ctx context.Context, tenantID, user string) error
}
