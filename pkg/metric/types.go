// Package metric holds the per-message scoring result: the symbol map, the
// per-group accumulators, the aggregate score, and the pass-through override
// list. It has no notion of how symbols get their weight or what action a
// score maps to — those live in pkg/scoring, pkg/passthrough, and
// pkg/action. See pkg/registry for the symbol/group definitions referenced
// here by pointer.
package metric

import "github.com/ridgeline-security/symscore/pkg/registry"

// Action is a terminal verdict for a message. The set is open (callers may
// define additional values) but always contains ActionNoAction as the
// fallback and ActionReject as the most severe, in that order.
type Action string

const (
	ActionReject      Action = "reject"
	ActionSoftReject  Action = "soft-reject"
	ActionRewriteSubj Action = "rewrite-subject"
	ActionAddHeader   Action = "add-header"
	ActionGreylist    Action = "greylist"
	ActionNoAction    Action = "no-action"
)

// ActionLadder lists every built-in action from most severe to least,
// excluding ActionNoAction (which is always the fallback, never matched by
// threshold). Action selection walks this slice; see pkg/action.
var ActionLadder = []Action{
	ActionReject,
	ActionSoftReject,
	ActionRewriteSubj,
	ActionAddHeader,
	ActionGreylist,
}

// OptionEntry is one distinct option string attached to a SymbolResult, in
// the order it was first seen. Unlike the C original's intrusive linked
// list, order here is simply slice position — SymbolResult.OptsHead already
// gives O(1) append and ordered iteration without a manual link.
type OptionEntry struct {
	Value string
}

// SymbolResult is the accumulated state for one symbol that fired at least
// once on a message.
type SymbolResult struct {
	Name  string
	Def   *registry.SymbolDef // nil for unknown/dynamic symbols
	Score float64
	NShots int

	// Options is lazily allocated on first option to avoid a map on the
	// common dry-hit path. Its key set always equals the values in
	// OptsHead.
	Options  map[string]*OptionEntry
	OptsHead []*OptionEntry

	// Suggestion is an advisory, non-scoring annotation left by
	// pkg/classify when this symbol was unknown to the registry. It never
	// participates in any invariant below.
	Suggestion string
}

// HasOption reports whether value has already been recorded for this
// symbol.
func (s *SymbolResult) HasOption(value string) bool {
	if s.Options == nil {
		return false
	}
	_, ok := s.Options[NormalizeOption(value)]
	return ok
}

// AddOption appends the NFKC-normalized form of value to the option set if
// it is new. Returns true if it was newly added. Callers are responsible
// for bumping NShots separately — duplicate options still count as a shot
// (spec invariant). Normalizing before the dedup check (see normalize.go)
// keeps a unicode compatibility variant of an already-seen option from being
// recorded as a second, distinct one.
func (s *SymbolResult) AddOption(value string) bool {
	value = NormalizeOption(value)
	if s.Options == nil {
		s.Options = make(map[string]*OptionEntry, 1)
	}
	if _, exists := s.Options[value]; exists {
		return false
	}
	e := &OptionEntry{Value: value}
	s.Options[value] = e
	s.OptsHead = append(s.OptsHead, e)
	return true
}

// PassthroughResult is an explicit override decision that can short-circuit
// threshold-based action selection. Priority breaks ties by insertion
// order (earlier caller at the same priority wins).
type PassthroughResult struct {
	Action      Action
	Priority    int
	TargetScore float64 // math.NaN() means "unset"
	Message     string
	Module      string
}

// Result is the per-message accumulator: one per message, created lazily
// and owned by the task that created it (see pkg/task).
type Result struct {
	Symbols    map[string]*SymbolResult
	SymGroups  map[*registry.Group]float64
	Score      float64
	GrowFactor float64

	NPositive     int
	PositiveScore float64
	NNegative     int
	NegativeScore float64

	// ActionLimits holds the threshold per action variant; a NaN entry
	// means that action is disabled for this message.
	ActionLimits map[Action]float64

	Passthroughs []PassthroughResult
}

// Find returns the SymbolResult for name, or nil if the symbol has not
// fired on this message.
func (r *Result) Find(name string) *SymbolResult {
	return r.Symbols[name]
}

// ForEach visits every symbol exactly once. Iteration order is
// unspecified, matching spec.
func (r *Result) ForEach(visit func(*SymbolResult)) {
	for _, sr := range r.Symbols {
		visit(sr)
	}
}
