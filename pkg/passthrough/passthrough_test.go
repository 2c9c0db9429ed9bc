package passthrough

import (
	"math"
	"testing"

	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/registry"
	"github.com/ridgeline-security/symscore/pkg/task"
)

func newTestTask() *task.Task {
	return task.New("msg-1", registry.New(), nil, nil)
}

func TestAddSortsByDescendingPriority(t *testing.T) {
	tsk := newTestTask()

	Add(tsk, metric.ActionGreylist, 5, math.NaN(), "low", "m1")
	Add(tsk, metric.ActionReject, 10, 20, "high", "m2")
	Add(tsk, metric.ActionAddHeader, 5, math.NaN(), "tie", "m3")

	result, _ := tsk.Result()
	if len(result.Passthroughs) != 3 {
		t.Fatalf("len(passthroughs) = %v, want 3", len(result.Passthroughs))
	}

	for i := 1; i < len(result.Passthroughs); i++ {
		if result.Passthroughs[i-1].Priority < result.Passthroughs[i].Priority {
			t.Errorf("passthroughs not in non-increasing priority order at index %d", i)
		}
	}

	if result.Passthroughs[0].Action != metric.ActionReject {
		t.Errorf("head action = %v, want reject", result.Passthroughs[0].Action)
	}

	// Equal priority (5) entries keep insertion order: greylist before add-header.
	if result.Passthroughs[1].Action != metric.ActionGreylist || result.Passthroughs[2].Action != metric.ActionAddHeader {
		t.Errorf("equal-priority tie order wrong: %v, %v", result.Passthroughs[1].Action, result.Passthroughs[2].Action)
	}
}

// TestAddWithoutAuditSinkIsSafe exercises the default (Config.Audit == nil)
// path every other test in this package already relies on implicitly: Add
// must never attempt to dereference a sink that was never configured.
func TestAddWithoutAuditSinkIsSafe(t *testing.T) {
	tsk := task.New("msg-1", registry.New(), &task.Config{
		ActionLimits: task.DefaultActionLimits(),
	}, nil)

	Add(tsk, metric.ActionReject, 10, math.NaN(), "m", "mod")

	result, _ := tsk.Result()
	if len(result.Passthroughs) != 1 {
		t.Fatalf("len(passthroughs) = %v, want 1", len(result.Passthroughs))
	}
}
