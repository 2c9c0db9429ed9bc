// Package scoring implements the weight-composition algorithm spec.md §4.2
// describes: static-weight lookup, per-message correctors, single vs.
// multi-shot semantics, option dedup, the growth factor, and group caps. It
// is the direct analog of the teacher's pkg/ml aggregation logic, rebuilt
// around pkg/metric's Result instead of a detection-category tally.
package scoring

// growthFactor applies the grow-factor rule to one contribution and returns
// the adjusted contribution alongside the grow_factor value that should be
// stored on the result if this commit succeeds. gf is the result's current
// grow_factor (0 before any commit has ever applied one); cf is the task's
// configured grow_factor.
//
// A pure function by design: it is the single source of truth for the
// subtlest rule in the whole algorithm, and every caller (the update path,
// the insert path) feeds it a contribution and gets back both halves of the
// decision without having to re-derive the branching itself.
func growthFactor(contribution, gf, cf float64) (adjusted float64, nextGF float64) {
	if contribution <= 0 {
		return contribution, 1.0
	}
	if gf != 0 {
		return contribution * gf, gf * cf
	}
	return contribution, cf
}
