package server

import (
	"context"
	"errors"

	"github.com/priyanka/formpilot/backend/internal/store"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// StoreHealthService verifies storage reachability as part of health checks.
type StoreHealthService struct {
	Store store.Store
}

// Probe implements the HealthService interface. A missing probe key is a
// healthy outcome; only transport or engine failures degrade the service.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	_, err := s.Store.Get(ctx, "healthcheck")
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
