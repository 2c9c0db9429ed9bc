package scoring

import (
	"context"
	"math"

	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/registry"
	"github.com/ridgeline-security/symscore/pkg/task"
)

// Flags modifies Insert's behavior for a single call.
type Flags struct {
	// Single forces single-shot semantics for this call regardless of the
	// symbol's configured nshots.
	Single bool
	// Enforce keeps weight (scaled by 1.0) for a symbol unknown to the
	// registry instead of discarding it as zero.
	Enforce bool
}

// epsilon stands in for the C original's DBL_EPSILON in the
// positive/negative bookkeeping split.
const epsilon = 2.220446049250313e-16

// Insert is the insertion engine entry point (spec.md §4.2's
// insert(task, symbol, weight, option?, flags)). It returns the symbol's
// SymbolResult, or nil if the task has already entered its idempotent
// finalization phase.
func Insert(ctx context.Context, t *task.Task, symbol string, weight float64, option *string, flags Flags) *metric.SymbolResult {
	if t.Stage()&task.StageIdempotent != 0 {
		t.Logger.Error("insert rejected: task past idempotent phase", "symbol", symbol, "task_id", t.ID)
		return nil
	}

	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		t.Logger.Warn("non-finite weight, treating as 0", "symbol", symbol, "task_id", t.ID)
		weight = 0
	}

	result := metric.Create(t)

	var def *registry.SymbolDef
	if t.Registry != nil {
		def = t.Registry.Find(symbol)
	}

	var finalScore float64
	var groups []*registry.Group
	if def != nil {
		finalScore = *def.Weight * weight
		groups = def.Groups
		ensureGroupsPresent(result.SymGroups, groups)
	} else if flags.Enforce {
		finalScore = weight
	} else {
		finalScore = 0
	}

	if t.Settings != nil {
		if corrector, ok := t.Settings.Lookup(symbol); ok {
			finalScore = corrector * weight
		}
	}

	defer func() {
		if t.Config != nil && t.Config.Frequency != nil {
			t.Config.Frequency.Bump(ctx, symbol)
		}
	}()

	if existing, ok := result.Symbols[symbol]; ok {
		return insertUpdate(t, result, existing, finalScore, groups, option, flags)
	}
	return insertNew(ctx, t, result, symbol, def, finalScore, groups, option, flags.Enforce)
}

// insertUpdate implements Branch A of spec.md §4.2: the symbol has already
// fired at least once on this message.
func insertUpdate(t *task.Task, result *metric.Result, sr *metric.SymbolResult, finalScore float64, groups []*registry.Group, option *string, flags Flags) *metric.SymbolResult {
	maxShots := t.Config.DefaultMaxShots
	if sr.Def != nil && sr.Def.NShots > 0 {
		maxShots = sr.Def.NShots
	}
	single := flags.Single
	if !single && sr.NShots >= maxShots {
		single = true
	}

	addOptionWithCap(t, sr, option)
	sr.NShots++

	var diff float64
	if !single {
		diff = finalScore
	} else if math.Abs(sr.Score) < math.Abs(finalScore) && sameSign(sr.Score, finalScore) {
		diff = finalScore - sr.Score
	}

	if diff == 0 {
		return sr
	}

	adjusted, nextGF := growthFactor(diff, result.GrowFactor, t.Config.GrowFactor)
	applied := applyGroupCaps(result.SymGroups, groups, adjusted)
	if math.IsNaN(applied) {
		t.Logger.Info("group cap exhausted, insertion suppressed", "symbol", sr.Name, "task_id", t.ID)
		return sr
	}

	result.Score += applied
	result.GrowFactor = nextGF
	if single {
		sr.Score = finalScore
	} else {
		sr.Score += applied
	}
	return sr
}

// insertNew implements Branch B of spec.md §4.2: the symbol has not yet
// fired on this message.
func insertNew(ctx context.Context, t *task.Task, result *metric.Result, symbol string, def *registry.SymbolDef, finalScore float64, groups []*registry.Group, option *string, enforceUnknown bool) *metric.SymbolResult {
	sr := &metric.SymbolResult{
		Name:   symbol,
		Def:    def,
		NShots: 1,
	}
	if def == nil && enforceUnknown {
		sr.Suggestion = classifyUnknown(ctx, t, symbol, option)
	}
	result.Symbols[symbol] = sr

	adjusted, nextGF := growthFactor(finalScore, result.GrowFactor, t.Config.GrowFactor)
	applied := applyGroupCaps(result.SymGroups, groups, adjusted)

	if math.IsNaN(applied) {
		t.Logger.Info("group cap exhausted, new symbol recorded with zero score", "symbol", symbol, "task_id", t.ID)
		sr.Score = 0
		addOptionWithCap(t, sr, option)
		return sr
	}

	sr.Score = applied
	result.Score += applied
	result.GrowFactor = nextGF

	switch {
	case applied > epsilon:
		result.NPositive++
		result.PositiveScore += applied
	case applied < -epsilon:
		result.NNegative++
		result.NegativeScore += -applied
	}

	addOptionWithCap(t, sr, option)
	return sr
}

// addOptionWithCap adds option to sr using the same cap AddOption (the
// standalone add_result_option operation) enforces, so an option supplied
// inline to Insert is never exempt from the one-param / default_max_shots
// limits that a separate add_result_option call would apply.
func addOptionWithCap(t *task.Task, sr *metric.SymbolResult, option *string) {
	if option == nil {
		return
	}
	AddOption(t, sr, *option)
}

func sameSign(a, b float64) bool {
	return math.Signbit(a) == math.Signbit(b)
}

// classifyUnknown is SPEC_FULL.md §3.1's supplemental classification: when
// enforce kept a symbol absent from the registry, look up the nearest known
// category for the symbol name plus its option text, purely for operator
// visibility. It never feeds back into finalScore or any other invariant
// above. A nil or unseeded classifier, or a lookup error, just yields "".
func classifyUnknown(ctx context.Context, t *task.Task, symbol string, option *string) string {
	if t.Config == nil || t.Config.Classifier == nil {
		return ""
	}

	text := symbol
	if option != nil {
		text = symbol + " " + *option
	}

	suggestion, ok, err := t.Config.Classifier.Suggest(ctx, text)
	if err != nil {
		t.Logger.Warn("classify: suggest failed", "symbol", symbol, "err", err, "task_id", t.ID)
		return ""
	}
	if !ok {
		return ""
	}

	t.Logger.Info("unknown symbol classified", "symbol", symbol,
		"category", suggestion.Category, "similarity", suggestion.Similarity, "task_id", t.ID)
	return suggestion.Category
}
