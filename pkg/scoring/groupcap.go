package scoring

import (
	"math"

	"github.com/ridgeline-security/symscore/pkg/registry"
)

// ensureGroupsPresent makes sure every group in groups has an entry in
// sym_groups, defaulting to 0. Called once per insertion before any cap
// arithmetic so a symbol's first hit never has to special-case a missing
// accumulator.
func ensureGroupsPresent(symGroups map[*registry.Group]float64, groups []*registry.Group) {
	for _, g := range groups {
		if _, ok := symGroups[g]; !ok {
			symGroups[g] = 0
		}
	}
}

// applyGroupCaps runs the group-cap rule (spec.md §4.2.2) across every group
// a symbol belongs to and returns the contribution actually applied, or NaN
// if any group is fully exhausted (in which case the whole insertion must be
// aborted by the caller — no group accumulator is mutated when that
// happens).
//
// Two passes are used deliberately: the first computes, for every group,
// what that group alone would allow (truncating or exhausting), without
// writing anything back; the strictest result across all groups is then the
// contribution actually committed in the second pass. Computing and
// committing in one pass would let an earlier, looser group record more
// than a later, stricter group ultimately allows.
func applyGroupCaps(symGroups map[*registry.Group]float64, groups []*registry.Group, w float64) float64 {
	applied := w
	for _, g := range groups {
		if g.MaxScore <= 0 || w <= 0 {
			continue
		}
		gs := symGroups[g]
		switch {
		case gs >= g.MaxScore:
			return math.NaN()
		case gs+applied > g.MaxScore:
			applied = g.MaxScore - gs
		}
	}

	for _, g := range groups {
		symGroups[g] += applied
	}
	return applied
}
