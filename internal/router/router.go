// Package router maps model identifiers to provider bindings through a fixed
// ordered rule table. Adding a provider means extending the table and the
// Kind enumeration, not hunting through call sites.
package router

import (
	"strings"

	"modelfan/internal/provider"
)

// Kind identifies one of the closed set of provider integrations.
type Kind int

const (
	KindOpenAI Kind = iota
	KindAnthropic
	KindOpenRouter
	KindGemini
)

func (k Kind) String() string {
	switch k {
	case KindOpenAI:
		return "openai"
	case KindAnthropic:
		return "anthropic"
	case KindOpenRouter:
		return "openrouter"
	case KindGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

type rule struct {
	kind  Kind
	match func(modelID string) bool
}

// rules is evaluated in priority order; the first match wins.
var rules = []rule{
	{KindOpenAI, hasAnyPrefix("gpt", "o3", "o4")},
	{KindAnthropic, hasAnyPrefix("claude")},
	{KindOpenRouter, hasAnyPrefix("deepseek", "x-ai/grok", "moonshotai")},
	{KindGemini, func(id string) bool { return strings.Contains(id, "gemini") }},
}

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(id string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(id, prefix) {
				return true
			}
		}
		return false
	}
}

// Router resolves model identifiers to the configured provider bindings.
// The binding set is fixed at construction and read-only afterwards.
type Router struct {
	providers map[Kind]provider.Provider
}

// New constructs a router over the given bindings. Kinds without an entry
// (missing credential) resolve as unavailable.
func New(providers map[Kind]provider.Provider) *Router {
	bound := make(map[Kind]provider.Provider, len(providers))
	for kind, p := range providers {
		if p != nil {
			bound[kind] = p
		}
	}
	return &Router{providers: bound}
}

// Resolve returns the provider binding for a model identifier, or
// provider.ErrModelUnavailable when no rule matches or the matched provider
// has no credential configured. Resolution failures are terminal: retrying
// cannot change a missing credential.
func (r *Router) Resolve(modelID string) (provider.Provider, error) {
	for _, rule := range rules {
		if !rule.match(modelID) {
			continue
		}
		p, ok := r.providers[rule.kind]
		if !ok {
			return nil, provider.ErrModelUnavailable
		}
		return p, nil
	}
	return nil, provider.ErrModelUnavailable
}
