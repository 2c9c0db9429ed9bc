// Package passthrough implements the priority-ordered override channel
// spec.md §4.3 describes: add_passthrough appends to the task's result and
// keeps the list sorted by descending priority, ties broken by insertion
// order.
package passthrough

import (
	"context"
	"math"
	"sort"

	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/task"
)

// Add appends a PassthroughResult to task's result and re-sorts the list by
// descending priority (stable, so equal-priority entries keep insertion
// order — the earliest caller at the top priority wins). targetScore may be
// math.NaN() to mean "unset".
//
// If t is wired to a pkg/audit sink (SPEC_FULL.md §3.2), the decision is
// also appended there asynchronously — the caller never waits on it and a
// sink failure never surfaces here.
func Add(t *task.Task, action metric.Action, priority int, targetScore float64, message, module string) {
	result := metric.Create(t)

	entry := metric.PassthroughResult{
		Action:      action,
		Priority:    priority,
		TargetScore: targetScore,
		Message:     message,
		Module:      module,
	}
	result.Passthroughs = append(result.Passthroughs, entry)

	sort.SliceStable(result.Passthroughs, func(i, j int) bool {
		return result.Passthroughs[i].Priority > result.Passthroughs[j].Priority
	})

	logTarget := any("unset")
	if !math.IsNaN(targetScore) {
		logTarget = targetScore
	}
	t.Logger.Info("pass-through registered", "action", action, "priority", priority,
		"target_score", logTarget, "task_id", t.ID)

	if t.Config != nil && t.Config.Audit != nil {
		sink := t.Config.Audit
		taskID, messageID := t.ID.String(), t.MessageID
		go sink.Record(context.Background(), taskID, messageID, entry)
	}
}
