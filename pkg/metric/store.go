package metric

import (
	"math"
	"sync"

	"github.com/ridgeline-security/symscore/pkg/registry"
)

// TaskContext is the slice of the hosting task that pkg/metric needs: an
// idempotent result slot and a place to register a cleanup callback. Tasks
// live in pkg/task; this interface exists so metric never imports task
// (task already imports metric for Result/Action), avoiding a cycle while
// keeping Create's signature exactly spec.md §4.1's create(task).
type TaskContext interface {
	// Result returns the task's existing MetricResult, if any.
	Result() (*Result, bool)
	// SetResult stores r as the task's MetricResult. Implementations must
	// be idempotent: once a result is stored, later calls are no-ops.
	SetResult(r *Result)
	// ActionLimits returns the task's configured threshold ladder, or nil
	// if the task carries no config.
	ActionLimits() map[Action]float64
	// AddDestructor registers fn to run once when the task completes.
	AddDestructor(fn func())
}

// symbolCountEMA is the process-wide exponentially-weighted moving average
// of distinct symbols per message (spec.md §3's "Global counter"). It is
// the only state pkg/metric owns across messages, guarded by a single
// mutex exactly as spec.md §5 allows.
var symbolCountEMA struct {
	mu   sync.Mutex
	mean float64
	seen bool
}

const emaSmoothing = 0.5

// observeSymbolCount folds one more message's distinct symbol count into
// the global EMA: mean = 0.5*prev + 0.5*observed, or just observed the
// first time.
func observeSymbolCount(n int) {
	symbolCountEMA.mu.Lock()
	defer symbolCountEMA.mu.Unlock()
	if !symbolCountEMA.seen {
		symbolCountEMA.mean = float64(n)
		symbolCountEMA.seen = true
		return
	}
	symbolCountEMA.mean = emaSmoothing*symbolCountEMA.mean + emaSmoothing*float64(n)
}

// presizeHint returns max(4, round(ema)) — the symbol-map pre-size spec.md
// §4.1 specifies.
func presizeHint() int {
	symbolCountEMA.mu.Lock()
	mean := symbolCountEMA.mean
	symbolCountEMA.mu.Unlock()

	n := int(math.Round(mean))
	if n < 4 {
		return 4
	}
	return n
}

// Create returns the task's MetricResult, creating it on first call and
// returning the existing one on every later call (spec.md §4.1's
// idempotence invariant). It pre-sizes the group map to 4 and the symbol
// map to the current EMA-derived hint, copies the threshold ladder from
// the task's config (or leaves it empty when the task carries none — the
// caller is expected to have already defaulted it to NaN, as pkg/task's
// DefaultActionLimits does), and registers a destructor that folds this
// message's final symbol count into the global EMA.
func Create(t TaskContext) *Result {
	if existing, ok := t.Result(); ok {
		return existing
	}

	r := &Result{
		Symbols:      make(map[string]*SymbolResult, presizeHint()),
		SymGroups:    make(map[*registry.Group]float64, 4),
		ActionLimits: t.ActionLimits(),
	}
	t.SetResult(r)

	t.AddDestructor(func() {
		observeSymbolCount(len(r.Symbols))
	})

	return r
}
