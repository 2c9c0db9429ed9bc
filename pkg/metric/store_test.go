package metric

import (
	"math"
	"testing"
)

// fakeTaskContext is a minimal TaskContext for exercising Create/Finish
// without pulling in pkg/task (which already imports pkg/metric).
type fakeTaskContext struct {
	result      *Result
	limits      map[Action]float64
	destructors []func()
}

func (f *fakeTaskContext) Result() (*Result, bool) { return f.result, f.result != nil }
func (f *fakeTaskContext) SetResult(r *Result) {
	if f.result != nil {
		return
	}
	f.result = r
}
func (f *fakeTaskContext) ActionLimits() map[Action]float64 { return f.limits }
func (f *fakeTaskContext) AddDestructor(fn func())          { f.destructors = append(f.destructors, fn) }
func (f *fakeTaskContext) finish() {
	for i := len(f.destructors) - 1; i >= 0; i-- {
		f.destructors[i]()
	}
	f.destructors = nil
}

func resetEMA() {
	symbolCountEMA.mu.Lock()
	symbolCountEMA.mean = 0
	symbolCountEMA.seen = false
	symbolCountEMA.mu.Unlock()
}

func TestObserveSymbolCountFirstObservationSetsMean(t *testing.T) {
	resetEMA()
	observeSymbolCount(6)

	symbolCountEMA.mu.Lock()
	mean := symbolCountEMA.mean
	symbolCountEMA.mu.Unlock()

	if mean != 6 {
		t.Errorf("mean = %v, want 6 (first observation sets mean directly)", mean)
	}
}

func TestObserveSymbolCountEMAFormula(t *testing.T) {
	resetEMA()
	observeSymbolCount(4)  // mean = 4
	observeSymbolCount(10) // mean = 0.5*4 + 0.5*10 = 7

	symbolCountEMA.mu.Lock()
	mean := symbolCountEMA.mean
	symbolCountEMA.mu.Unlock()

	if math.Abs(mean-7.0) > 1e-9 {
		t.Errorf("mean = %v, want 7.0", mean)
	}
}

func TestPresizeHintFloorsAtFour(t *testing.T) {
	resetEMA()
	observeSymbolCount(1)

	if got := presizeHint(); got != 4 {
		t.Errorf("presizeHint() = %d, want 4 (floor for a low EMA)", got)
	}
}

func TestPresizeHintRoundsEMA(t *testing.T) {
	resetEMA()
	observeSymbolCount(20)

	if got := presizeHint(); got != 20 {
		t.Errorf("presizeHint() = %d, want 20", got)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	ftc := &fakeTaskContext{limits: map[Action]float64{ActionReject: 15}}

	r1 := Create(ftc)
	r2 := Create(ftc)
	if r1 != r2 {
		t.Error("Create returned a different *Result on the second call")
	}
	if r1.ActionLimits[ActionReject] != 15 {
		t.Errorf("ActionLimits[reject] = %v, want 15", r1.ActionLimits[ActionReject])
	}
}

func TestCreateRegistersEMADestructor(t *testing.T) {
	resetEMA()
	ftc := &fakeTaskContext{}

	r := Create(ftc)
	r.Symbols["FOO"] = &SymbolResult{Name: "FOO"}
	r.Symbols["BAR"] = &SymbolResult{Name: "BAR"}

	if len(ftc.destructors) != 1 {
		t.Fatalf("destructors registered = %d, want 1", len(ftc.destructors))
	}
	ftc.finish()

	symbolCountEMA.mu.Lock()
	mean := symbolCountEMA.mean
	symbolCountEMA.mu.Unlock()
	if mean != 2 {
		t.Errorf("mean after finish = %v, want 2 (two symbols fired)", mean)
	}
}

func TestResultForEachVisitsEverySymbolOnce(t *testing.T) {
	r := &Result{Symbols: map[string]*SymbolResult{
		"A": {Name: "A"},
		"B": {Name: "B"},
		"C": {Name: "C"},
	}}

	seen := make(map[string]int)
	r.ForEach(func(sr *SymbolResult) { seen[sr.Name]++ })

	if len(seen) != 3 {
		t.Fatalf("visited %d distinct symbols, want 3", len(seen))
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("symbol %s visited %d times, want 1", name, n)
		}
	}
}

func TestSymbolResultAddOptionDedupesNormalized(t *testing.T) {
	sr := &SymbolResult{Name: "FOO"}

	if !sr.AddOption("Evidence") {
		t.Fatal("first AddOption returned false")
	}
	if sr.AddOption("Ｅvidence") {
		t.Error("second AddOption with fullwidth-E variant returned true, want dedup after NFKC")
	}
	if !sr.HasOption("Evidence") {
		t.Error("HasOption(Evidence) = false after AddOption")
	}
	if len(sr.OptsHead) != 1 {
		t.Errorf("OptsHead len = %d, want 1", len(sr.OptsHead))
	}
}
