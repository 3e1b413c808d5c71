package session

import (
	"context"

	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/observability/logctx"
)

// Store persists the guest session id across requests. Load returns an empty
// string when no id is stored.
type Store interface {
	Load() (string, error)
	Save(id string) error
}

// Generator mints new guest session ids.
type Generator interface {
	NewGuestID() string
}

// Resolver hands back a stable guest identity, minting one on first contact.
// Storage failures are never fatal: a broken store degrades to a fresh guest
// id per request, which costs cart continuity but keeps the shop usable.
type Resolver struct {
	store Store
	gen   Generator
	log   observability.Logger
}

func NewResolver(store Store, gen Generator, log observability.Logger) *Resolver {
	return &Resolver{store: store, gen: gen, log: log}
}

func (r *Resolver) GetOrCreate(ctx context.Context) string {
	logger := logctx.FromOr(ctx, r.log)

	id, err := r.store.Load()
	if err != nil {
		logger.Warn("guest_session_load_failed", observability.F("error", err))
	}
	if id != "" {
		return id
	}

	id = r.gen.NewGuestID()
	if err := r.store.Save(id); err != nil {
		logger.Warn("guest_session_save_failed", observability.F("error", err))
	}
	return id
}
