package service

import (
	"context"

	"github.com/mmynk/settleup/internal/guest"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage"
)

// Stores picks the backing store for a request: guest sessions get their
// private in-memory store, everyone else shares the primary store.
type Stores struct {
	primary storage.Store
	guests  *guest.Registry
}

// NewStores creates a resolver over the primary store and the guest registry.
func NewStores(primary storage.Store, guests *guest.Registry) *Stores {
	return &Stores{primary: primary, guests: guests}
}

// For returns the store serving the caller identified in ctx.
func (s *Stores) For(ctx context.Context) storage.Store {
	if middleware.IsGuest(ctx) && s.guests != nil {
		return s.guests.Store(middleware.GetUserID(ctx))
	}
	return s.primary
}

// Primary returns the shared store of registered users.
func (s *Stores) Primary() storage.Store {
	return s.primary
}
