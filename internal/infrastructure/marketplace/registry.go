package marketplace

import (
	"fmt"

	"github.com/crosslist/backend/internal/domain/integration"
)

// Registry is the ordered set of configured marketplace adapters.
// Registration order is the fixed processing order for every
// multi-platform operation, so wiring code registers adapters in the
// canonical platform order.
type Registry struct {
	adapters map[integration.PlatformCode]integration.MarketplaceAdapter
	order    []integration.PlatformCode
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[integration.PlatformCode]integration.MarketplaceAdapter),
	}
}

// Register adds an adapter. Registering the same platform twice is a
// wiring bug and returns an error.
func (r *Registry) Register(adapter integration.MarketplaceAdapter) error {
	code := adapter.PlatformCode()
	if !code.IsValid() {
		return fmt.Errorf("%w: %s", integration.ErrInvalidPlatformCode, code)
	}
	if _, exists := r.adapters[code]; exists {
		return fmt.Errorf("marketplace: adapter for %s already registered", code)
	}

	r.adapters[code] = adapter
	r.order = append(r.order, code)
	return nil
}

// Get returns the adapter for the given platform code
func (r *Registry) Get(code integration.PlatformCode) (integration.MarketplaceAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotRegistered, code)
	}
	return adapter, nil
}

// List returns all registered adapters in registration order
func (r *Registry) List() []integration.MarketplaceAdapter {
	result := make([]integration.MarketplaceAdapter, 0, len(r.order))
	for _, code := range r.order {
		result = append(result, r.adapters[code])
	}
	return result
}

// Codes returns the registered platform codes in registration order
func (r *Registry) Codes() []integration.PlatformCode {
	codes := make([]integration.PlatformCode, len(r.order))
	copy(codes, r.order)
	return codes
}

// Ensure Registry implements integration.AdapterRegistry
var _ integration.AdapterRegistry = (*Registry)(nil)
