package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rohanthewiz/serr"
)

// Registry holds all available agents, keyed by lowercase name.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent under its (lowercased) name.
func (r *Registry) Register(a Agent) {
	name := strings.ToLower(a.Info().Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; !exists {
		r.order = append(r.order, name)
	}
	r.agents[name] = a
}

// Get returns the agent registered under name, case-insensitively.
func (r *Registry) Get(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[strings.ToLower(name)]
	return a, ok
}

// List returns the registered agents' info in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name].Info())
	}
	return out
}

// Names returns the registered agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// Execute dispatches an action to the named agent. An unknown agent name
// or a panicking handler surfaces as a dispatch-fault error; business
// failures come back inside the Result with a nil error.
func (r *Registry) Execute(ctx context.Context, name, action string, actx map[string]interface{}) (result Result, err error) {
	agent, ok := r.Get(name)
	if !ok {
		return nil, serr.New("unknown agent: " + name)
	}

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = serr.New(fmt.Sprintf("agent %s panicked: %v", name, p))
		}
	}()

	result, err = agent.Execute(ctx, action, actx)
	if err != nil {
		return nil, serr.Wrap(err, "agent "+name+" dispatch failed")
	}
	if result == nil {
		return nil, serr.New("agent " + name + " returned no result")
	}
	return result, nil
}
