package adapters

import (
	"strings"

	"github.com/admitworks/matricula/internal/payment/domain"
)

// Entry pairs an adapter with its startup flags.
type Entry struct {
	Adapter domain.Adapter
	Enabled bool
	Primary bool
}

// ProviderStatus is the externally visible view of one configured adapter.
type ProviderStatus struct {
	Enabled   bool `json:"enabled"`
	IsPrimary bool `json:"is_primary"`
}

// Registry holds the adapters configured at startup. It is read-only after
// construction and safe for unsynchronized concurrent reads.
type Registry struct {
	entries map[string]Entry
	primary string
}

func NewRegistry(entries ...Entry) *Registry {
	registry := &Registry{entries: map[string]Entry{}}
	for _, entry := range entries {
		if entry.Adapter == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(entry.Adapter.Name()))
		if name == "" {
			continue
		}
		registry.entries[name] = entry
		if entry.Primary && entry.Enabled && registry.primary == "" {
			registry.primary = name
		}
	}
	if registry.primary == "" {
		// No explicit primary configured; fall back to any enabled adapter.
		for name, entry := range registry.entries {
			if entry.Enabled {
				registry.primary = name
				break
			}
		}
	}
	return registry
}

// Get returns the named adapter regardless of enablement.
func (r *Registry) Get(name string) (domain.Adapter, bool) {
	if r == nil {
		return nil, false
	}
	entry, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return entry.Adapter, true
}

// Primary returns the adapter new initiations default to.
func (r *Registry) Primary() (domain.Adapter, error) {
	if r == nil || r.primary == "" {
		return nil, domain.ErrProviderUnavailable
	}
	return r.entries[r.primary].Adapter, nil
}

// Resolve picks the adapter for an initiation: the explicit preference when
// supplied and enabled, otherwise the configured primary.
func (r *Registry) Resolve(preferred string) (domain.Adapter, error) {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred != "" {
		entry, ok := r.entries[preferred]
		if !ok {
			return nil, domain.ErrUnknownProvider
		}
		if !entry.Enabled {
			return nil, domain.ErrProviderUnavailable
		}
		return entry.Adapter, nil
	}
	return r.Primary()
}

// Status reports every configured adapter and its flags.
func (r *Registry) Status() map[string]ProviderStatus {
	out := make(map[string]ProviderStatus, len(r.entries))
	for name, entry := range r.entries {
		out[name] = ProviderStatus{
			Enabled:   entry.Enabled,
			IsPrimary: name == r.primary,
		}
	}
	return out
}
