// Package similarity resolves scoring-similarity providers by name.
//
// The mapping core only records which similarity a field uses; scoring itself
// happens in the query engine. Providers are therefore name-only descriptors.
package similarity

import "fmt"

// Default is the similarity assumed when a field declares none.
const Default = "BM25"

// Provider describes a named similarity implementation.
type Provider struct {
	name string
}

// Name returns the provider's registry name.
func (p *Provider) Name() string { return p.name }

// Lookup resolves similarity providers by name.
//
// A Lookup is immutable after construction and safe for concurrent use.
type Lookup struct {
	providers map[string]*Provider
}

// NewLookup creates a Lookup with the built-in providers (BM25, classic)
// plus any extra names supplied.
func NewLookup(extra ...string) *Lookup {
	l := &Lookup{providers: make(map[string]*Provider)}
	for _, name := range []string{Default, "classic"} {
		l.providers[name] = &Provider{name: name}
	}
	for _, name := range extra {
		l.providers[name] = &Provider{name: name}
	}
	return l
}

// Provider resolves a provider by name, nil if unknown.
func (l *Lookup) Provider(name string) *Provider { return l.providers[name] }

// MustProvider resolves a provider by name, erroring if unknown.
func (l *Lookup) MustProvider(name string) (*Provider, error) {
	if p := l.Provider(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("similarity %q not found", name)
}
