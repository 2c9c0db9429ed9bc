// Package registry provides the symbol-rule registry and group table that
// pkg/scoring treats as read-only collaborators: static weight (live-
// reloadable), group membership, per-symbol flags and shot limits, and
// named group score caps. None of this package executes rules — it only
// answers "what do we know about symbol X" the way scorer_config.go
// answers "what's the weight for this keyword" in the teacher repo.
package registry

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Flag is a bitmask of per-symbol behavior modifiers.
type Flag uint32

const (
	// FlagOneParam restricts the symbol to exactly one distinct option
	// (spec.md §6's add_result_option: "one-param symbols are restricted
	// to exactly one option").
	FlagOneParam Flag = 1 << iota
)

// Has reports whether f is set in the flag set.
func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Group is a named aggregation bucket. MaxScore <= 0 means uncapped.
type Group struct {
	Name     string
	MaxScore float64
}

// SymbolDef is the static, registry-owned definition of a symbol. Weight is
// a pointer so a config reload can update the value in place without
// invalidating SymbolResult.Def references already held by in-flight
// messages — mirroring the "indirectly referenced so it may be
// live-reloaded" requirement.
type SymbolDef struct {
	Name        string
	DisplayName string
	Weight      *float64
	Groups      []*Group
	Flags       Flag
	NShots      int // maximum counted shots; 0 means "use task default"
}

// file is the on-disk YAML shape. It deliberately mirrors scorer_config.go's
// ScorerConfig: flat maps keyed by name, hardcoded Go defaults as a
// fallback when no file is present.
type file struct {
	Groups  map[string]float64 `yaml:"groups"` // name -> max_score
	Symbols map[string]struct {
		Weight      float64  `yaml:"weight"`
		DisplayName string   `yaml:"display_name"`
		Groups      []string `yaml:"groups"`
		OneParam    bool     `yaml:"one_param"`
		NShots      int      `yaml:"nshots"`
	} `yaml:"symbols"`
}

// Registry is the read-only (to callers) symbol/group table. It is safe
// for concurrent use; Reload swaps the underlying definitions atomically
// under a single mutex, matching how scorer_config.go guards its globals
// with a sync.RWMutex.
type Registry struct {
	mu      sync.RWMutex
	groups  map[string]*Group
	symbols map[string]*SymbolDef
}

// defaultGroups/defaultSymbols provide a minimal, always-available registry
// so the pipeline works before any YAML file is loaded — the same
// graceful-fallback contract as scorer_config.go's defaultKeywordWeights.
func defaultGroups() map[string]*Group {
	return map[string]*Group{
		"RBL":  {Name: "RBL", MaxScore: 8.0},
		"MISC": {Name: "MISC", MaxScore: 0},
	}
}

// New builds an empty registry pre-seeded with built-in fallback groups and
// no symbols; it is ready to use and ready to Reload.
func New() *Registry {
	return &Registry{
		groups:  defaultGroups(),
		symbols: make(map[string]*SymbolDef),
	}
}

// Load reads path (a YAML file) and returns a ready Registry. A missing file
// is not an error — it returns an empty-but-usable registry, just like
// LoadScorerConfig returning nil to let heuristic defaults take over.
func Load(path string) (*Registry, error) {
	r := New()
	if path == "" {
		return r, nil
	}
	if err := r.Reload(path); err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	return r, nil
}

// Reload re-reads path and atomically replaces the registry's contents.
// Concurrent lookups during a reload see either the old or the new
// snapshot, never a partial one.
func (r *Registry) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("registry: parse %s: %w", path, err)
	}

	groups := defaultGroups()
	for name, max := range f.Groups {
		groups[name] = &Group{Name: name, MaxScore: max}
	}

	symbols := make(map[string]*SymbolDef, len(f.Symbols))
	for name, s := range f.Symbols {
		var flags Flag
		if s.OneParam {
			flags |= FlagOneParam
		}
		groupRefs := make([]*Group, 0, len(s.Groups))
		for _, gname := range s.Groups {
			g, ok := groups[gname]
			if !ok {
				g = &Group{Name: gname, MaxScore: 0}
				groups[gname] = g
			}
			groupRefs = append(groupRefs, g)
		}
		weight := s.Weight
		symbols[name] = &SymbolDef{
			Name:        name,
			DisplayName: s.DisplayName,
			Weight:      &weight,
			Groups:      groupRefs,
			Flags:       flags,
			NShots:      s.NShots,
		}
	}

	r.mu.Lock()
	r.groups = groups
	r.symbols = symbols
	r.mu.Unlock()
	return nil
}

// Define registers or replaces a single symbol definition directly, without
// going through a YAML file. Useful for programmatic registration (a CLI
// flag, a dynamically-learned symbol) alongside the usual Load/Reload path.
func (r *Registry) Define(def *SymbolDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols[def.Name] = def
}

// Find returns the definition for name, or nil if the symbol is unknown.
func (r *Registry) Find(name string) *SymbolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbols[name]
}

// Group returns the named group, creating it with an uncapped score on
// first reference so ad-hoc group names from a symbol's YAML entry never
// panic a lookup.
func (r *Registry) Group(name string) *Group {
	r.mu.RLock()
	g, ok := r.groups[name]
	r.mu.RUnlock()
	if ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.groups[name]; ok {
		return g
	}
	g = &Group{Name: name, MaxScore: 0}
	r.groups[name] = g
	return g
}

// Snapshot returns a point-in-time copy of symbol and group names, for the
// introspection HTTP surface (pkg/httpapi).
func (r *Registry) Snapshot() (symbols []string, groups []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.symbols {
		symbols = append(symbols, name)
	}
	for name := range r.groups {
		groups = append(groups, name)
	}
	return symbols, groups
}
