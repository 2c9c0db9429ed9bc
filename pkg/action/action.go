// Package action implements the terminal action selector spec.md §4.4
// describes: threshold-ladder reconciliation when no pass-through is
// present, and priority-winner-takes-all when one is.
package action

import (
	"math"

	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/task"
)

// Select is check_action(task, result) -> Action. It mutates result.Score
// when a pass-through with a finite target_score wins, per spec.md §4.4
// case 2.
func Select(t *task.Task, result *metric.Result) metric.Action {
	if len(result.Passthroughs) > 0 {
		return selectPassthrough(t, result)
	}
	return selectThreshold(result)
}

// selectThreshold walks the action ladder most-severe to least-severe,
// picking the action with the largest finite threshold that result.Score
// meets or exceeds. Severity is disambiguated by threshold magnitude, not
// ladder position — a misconfigured low-severity action with a larger
// threshold than a high-severity one must not be shadowed.
func selectThreshold(result *metric.Result) metric.Action {
	best := metric.ActionNoAction
	bestThreshold := math.Inf(-1)

	for _, a := range metric.ActionLadder {
		threshold, ok := result.ActionLimits[a]
		if !ok || math.IsNaN(threshold) {
			continue
		}
		if result.Score >= threshold && threshold > bestThreshold {
			best = a
			bestThreshold = threshold
		}
	}
	return best
}

// selectPassthrough implements spec.md §4.4 case 2: the head of the
// (already priority-sorted) pass-through list wins unconditionally.
func selectPassthrough(t *task.Task, result *metric.Result) metric.Action {
	winner := result.Passthroughs[0]

	if !math.IsNaN(winner.TargetScore) && !math.IsInf(winner.TargetScore, 0) {
		if winner.Action == metric.ActionNoAction {
			result.Score = math.Min(winner.TargetScore, result.Score)
		} else {
			result.Score = winner.TargetScore
		}
	}

	t.Logger.Info("pass-through override selected", "action", winner.Action,
		"priority", winner.Priority, "task_id", t.ID)
	return winner.Action
}
