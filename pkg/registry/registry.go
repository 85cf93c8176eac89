package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"parrot-hq/parrot/pkg/client"
	"parrot-hq/parrot/pkg/config"
)

// DefaultModels is the model list used when a provider configures none.
var DefaultModels = []string{"default"}

// Entry describes one registered provider: its display name, the models
// it serves, and a factory producing a client bound to one of them.
type Entry struct {
	// Name is the display name shown in menus and logs.
	Name string

	// Models lists the selectable model identifiers.
	Models []string

	// Configured reports whether the provider has the credentials it
	// needs; unconfigured providers stay listed but cannot be opened.
	Configured bool

	// New builds a client for the given model.
	New func(model string) (*client.Client, error)
}

// Registry holds the registered providers and resolves model names to
// the entry that serves them. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a provider entry. Registering an existing name replaces
// the previous entry, which is how configuration reloads swap in fresh
// credentials.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if e.New == nil {
		return fmt.Errorf("provider %q has no client factory", e.Name)
	}
	if len(e.Models) == 0 {
		e.Models = DefaultModels
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; !exists {
		r.order = append(r.order, e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Providers returns the registered display names in registration order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Lookup returns the entry registered under the given display name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e, ok
}

// Resolve finds the entry serving the given model, searching providers
// in registration order.
func (r *Registry) Resolve(model string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		e := r.entries[name]
		for _, m := range e.Models {
			if m == model {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Models returns every selectable model across all providers, sorted
// and de-duplicated.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var models []string
	for _, name := range r.order {
		for _, m := range r.entries[name].Models {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			models = append(models, m)
		}
	}
	sort.Strings(models)
	return models
}

// FromProvider builds an entry from a provider configuration section.
// The extra client options (executor, observer, recorder) are applied
// to every client the entry creates.
func FromProvider(cfg config.ProviderConfig, opts ...client.Option) Entry {
	return Entry{
		Name:       cfg.Name,
		Models:     ParseModelList(cfg.Models),
		Configured: cfg.APIKey != "",
		New: func(model string) (*client.Client, error) {
			return client.New(client.Config{
				Model:    model,
				APIKey:   cfg.APIKey,
				BaseURL:  cfg.BaseURL,
				ProxyURL: cfg.ProxyURL,
				Timeout:  cfg.Timeout,
			}, opts...)
		},
	}
}

// ParseModelList parses the configured model list. The value is either
// a JSON array of strings or a comma-separated list; blank entries are
// dropped. An empty value yields DefaultModels.
func ParseModelList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultModels
	}

	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}

	var models []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return DefaultModels
	}
	return models
}
