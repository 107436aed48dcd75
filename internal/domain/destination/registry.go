// Package destination describes the cloud accounting endpoints batches
// can be pushed to.
package destination

import (
	"fmt"
	"sort"
)

// Known destination names.
const (
	IndiaSales    = "india_sales"
	IndiaReturn   = "india_return"
	NepalSales    = "nepal_sales"
	NepalPurchase = "nepal_purchase"
)

// Config holds one destination's wire contract and numbering behavior.
type Config struct {
	// Name is the route identifier (e.g., "nepal_sales").
	Name string

	// URL is the submission endpoint.
	URL string

	// AuthHeader is the header name carrying the auth token.
	AuthHeader string

	// AuthToken is sourced from configuration, never hardcoded.
	AuthToken string

	// SuccessCode is the per-destination sentinel status meaning
	// created/accepted. Observed values differ across endpoints
	// ("101", "200"), so it is contract configuration, not a constant.
	SuccessCode string

	// Numbered enables the gapless sequential numbering pathway.
	// Only Nepal Sales allocates from the counter.
	Numbered bool

	// NumberPrefix is the display prefix for allocated numbers.
	NumberPrefix string

	// VoucherType scopes the counter for the numbered pathway.
	VoucherType string

	// ReuseSourceInvoiceNo makes the pathway carry the source system's
	// own invoice number instead of allocating (Nepal Purchase).
	ReuseSourceInvoiceNo bool
}

// Validate checks the config is submittable.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("destination %s: URL is required", c.Name)
	}
	if c.SuccessCode == "" {
		return fmt.Errorf("destination %s: success code is required", c.Name)
	}
	if c.Numbered && c.NumberPrefix == "" {
		return fmt.Errorf("destination %s: numbered pathway needs a prefix", c.Name)
	}
	return nil
}

// Registry maps destination names to configs.
type Registry struct {
	configs map[string]Config
}

// NewRegistry builds a registry from the given configs.
func NewRegistry(configs ...Config) (*Registry, error) {
	m := make(map[string]Config, len(configs))
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m[c.Name]; dup {
			return nil, fmt.Errorf("duplicate destination %s", c.Name)
		}
		m[c.Name] = c
	}
	return &Registry{configs: m}, nil
}

// Get returns the destination config by name.
func (r *Registry) Get(name string) (Config, bool) {
	c, ok := r.configs[name]
	return c, ok
}

// Names returns the registered destination names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
