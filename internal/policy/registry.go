// Package policy holds the policy registry and the two strategies used to
// decide which policy an answer cites: keyword overlap and LLM intent
// classification.
package policy

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/policy-bot/internal/config"
)

// Policy is a named policy document and its canonical URL.
type Policy struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Registry is an ordered, immutable name -> URL table. Order matters: it
// breaks keyword ties and drives classifier padding.
type Registry struct {
	policies []Policy
	byName   map[string]int
}

// NewRegistry builds a Registry, rejecting empty and duplicate names.
func NewRegistry(policies []Policy) (*Registry, error) {
	r := &Registry{
		policies: make([]Policy, 0, len(policies)),
		byName:   make(map[string]int, len(policies)),
	}
	for _, p := range policies {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("policy name is required")
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate policy %q", p.Name)
		}
		r.byName[p.Name] = len(r.policies)
		r.policies = append(r.policies, p)
	}
	return r, nil
}

// FromConfig builds a Registry from the configured entries.
func FromConfig(entries []config.PolicyEntry) (*Registry, error) {
	policies := make([]Policy, len(entries))
	for i, e := range entries {
		policies[i] = Policy{Name: e.Name, URL: e.URL}
	}
	return NewRegistry(policies)
}

// Lookup returns the policy with the exact given name.
func (r *Registry) Lookup(name string) (Policy, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Policy{}, false
	}
	return r.policies[i], true
}

// Policies returns a copy of the registry in order.
func (r *Registry) Policies() []Policy {
	out := make([]Policy, len(r.policies))
	copy(out, r.policies)
	return out
}

// Names returns the policy names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.policies))
	for i, p := range r.policies {
		names[i] = p.Name
	}
	return names
}

func (r *Registry) Len() int { return len(r.policies) }

// Citation renders the markdown reference line appended to answers.
func Citation(p Policy) string {
	return fmt.Sprintf("**More Information:** [Read the full %s here](%s)", p.Name, p.URL)
}
