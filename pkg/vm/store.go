// Package vm provides variable storage for the scan-cycle simulator.
package vm

import (
	"math"
	"strings"

	"github.com/zurustar/stsim/pkg/program"
)

// Store holds the current value of every declared variable.
// It keeps the declaration order for snapshots and change lists, and resolves
// names case-insensitively as ST identifiers are. A Store is owned by one run
// and is not safe for concurrent use.
type Store struct {
	names  []string
	values map[string]any
	folded map[string]string // upper-cased name -> declared name
}

// NewStore creates a store holding the initial values of vars.
func NewStore(vars []*program.Variable) *Store {
	s := &Store{
		names:  make([]string, 0, len(vars)),
		values: make(map[string]any, len(vars)),
		folded: make(map[string]string, len(vars)),
	}
	for _, v := range vars {
		s.names = append(s.names, v.Name)
		s.values[v.Name] = v.Initial
		s.folded[strings.ToUpper(v.Name)] = v.Name
	}
	return s
}

// Resolve returns the declared spelling of name.
func (s *Store) Resolve(name string) (string, bool) {
	if _, ok := s.values[name]; ok {
		return name, true
	}
	declared, ok := s.folded[strings.ToUpper(name)]
	return declared, ok
}

// Get retrieves a variable value by name.
//
// Returns:
//   - any: The variable value
//   - bool: true if the variable is declared, false otherwise
func (s *Store) Get(name string) (any, bool) {
	declared, ok := s.Resolve(name)
	if !ok {
		return nil, false
	}
	return s.values[declared], true
}

// Lookup implements eval.Bindings.
func (s *Store) Lookup(name string) (any, bool) {
	return s.Get(name)
}

// Set stores value into a declared variable. It reports false for an
// undeclared name; the store never grows after creation.
func (s *Store) Set(name string, value any) bool {
	declared, ok := s.Resolve(name)
	if !ok {
		return false
	}
	s.values[declared] = value
	return true
}

// Snapshot returns a copy of all current values.
func (s *Store) Snapshot() map[string]any {
	snap := make(map[string]any, len(s.values))
	for name, v := range s.values {
		snap[name] = v
	}
	return snap
}

// Changed lists, in declaration order, the variables whose current value
// differs from prev.
func (s *Store) Changed(prev map[string]any) []string {
	var changed []string
	for _, name := range s.names {
		old, ok := prev[name]
		if !ok || !sameValue(old, s.values[name]) {
			changed = append(changed, name)
		}
	}
	return changed
}

// sameValue compares two stored values. NaN equals NaN so that a NaN
// variable is not reported as changed on every step.
func sameValue(a, b any) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok && math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
	}
	return a == b
}
