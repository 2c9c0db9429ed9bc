package action

import (
	"math"
	"testing"

	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/passthrough"
	"github.com/ridgeline-security/symscore/pkg/registry"
	"github.com/ridgeline-security/symscore/pkg/task"
)

func newTestTask(limits map[metric.Action]float64) *task.Task {
	return task.New("msg-1", registry.New(), &task.Config{
		ActionLimits:    limits,
		DefaultMaxShots: 1,
	}, nil)
}

func TestSelectThresholdLadder(t *testing.T) {
	limits := task.DefaultActionLimits()
	limits[metric.ActionReject] = 15
	limits[metric.ActionGreylist] = 3

	tsk := newTestTask(limits)
	result := metric.Create(tsk)
	result.Score = 5

	got := Select(tsk, result)
	if got != metric.ActionGreylist {
		t.Errorf("Select() = %v, want greylist", got)
	}
}

func TestSelectThresholdNoMatch(t *testing.T) {
	limits := task.DefaultActionLimits()
	limits[metric.ActionReject] = 15

	tsk := newTestTask(limits)
	result := metric.Create(tsk)
	result.Score = 5

	got := Select(tsk, result)
	if got != metric.ActionNoAction {
		t.Errorf("Select() = %v, want no-action", got)
	}
}

func TestSelectPassthroughBeatsThreshold(t *testing.T) {
	limits := task.DefaultActionLimits()
	limits[metric.ActionReject] = 15

	tsk := newTestTask(limits)
	result := metric.Create(tsk)
	result.Score = 5

	passthrough.Add(tsk, metric.ActionReject, 10, 20, "m", "x")
	passthrough.Add(tsk, metric.ActionGreylist, 5, math.NaN(), "", "")

	got := Select(tsk, result)
	if got != metric.ActionReject {
		t.Errorf("Select() = %v, want reject", got)
	}
	if result.Score != 20 {
		t.Errorf("result.Score = %v, want 20", result.Score)
	}
}

func TestSelectPassthroughNoActionClampsDown(t *testing.T) {
	limits := task.DefaultActionLimits()
	tsk := newTestTask(limits)
	result := metric.Create(tsk)
	result.Score = 8

	passthrough.Add(tsk, metric.ActionNoAction, 1, 3, "", "")

	got := Select(tsk, result)
	if got != metric.ActionNoAction {
		t.Errorf("Select() = %v, want no-action", got)
	}
	if result.Score != 3 {
		t.Errorf("result.Score = %v, want min(3, 8) = 3", result.Score)
	}
}

func TestSelectPassthroughNoActionDoesNotRaiseScore(t *testing.T) {
	limits := task.DefaultActionLimits()
	tsk := newTestTask(limits)
	result := metric.Create(tsk)
	result.Score = 1

	passthrough.Add(tsk, metric.ActionNoAction, 1, 3, "", "")

	Select(tsk, result)
	if result.Score != 1 {
		t.Errorf("result.Score = %v, want min(3, 1) = 1", result.Score)
	}
}
