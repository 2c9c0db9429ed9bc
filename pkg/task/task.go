// Package task models the per-message processing context spec.md §6 calls
// "per-task": config, settings overrides, the idempotent-phase bitmask, and
// a destructor list standing in for the C original's arena allocator. Go
// has no need for a bump allocator — the garbage collector already owns
// that job — so Task's "arena" is just the set of cleanup callbacks that
// must run exactly once when the message finishes processing.
package task

import (
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/ridgeline-security/symscore/pkg/audit"
	"github.com/ridgeline-security/symscore/pkg/classify"
	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/registry"
)

// Stage is the processed-stage bitmask spec.md §6 and §7 describe:
// "Processed-stage bitmask carrying the idempotent-phase bit."
type Stage uint32

const (
	// StageIdempotent marks that the task has entered its idempotent
	// finalization phase; further insertions must be refused (spec.md
	// §4.2's "pre-idempotency guard").
	StageIdempotent Stage = 1 << iota
)

// Settings is the per-message corrector overlay spec.md §4.2 calls "a
// per-message settings object mapping symbol names to numeric correctors".
type Settings struct {
	correctors map[string]float64
}

// NewSettings builds a Settings from a plain map for convenience.
func NewSettings(correctors map[string]float64) *Settings {
	return &Settings{correctors: correctors}
}

// Lookup returns the corrector for name and whether one was configured.
func (s *Settings) Lookup(name string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.correctors[name]
	return v, ok
}

// Config is the per-task configuration spec.md §6 lists: the action
// threshold ladder, the growth factor, the default max-shots, and an
// optional frequency-cache handle, plus the two supplemental collaborators
// (classify, audit) a task may be wired to.
type Config struct {
	ActionLimits    map[metric.Action]float64
	GrowFactor      float64
	DefaultMaxShots int
	Frequency       *registry.FrequencyCache

	// Classifier, when set, backs the unknown/enforce-symbol classification
	// supplement (SPEC_FULL.md §3.1). Nil disables it — pkg/scoring never
	// requires a classifier to be present.
	Classifier *classify.Classifier
	// Audit, when set, receives every successful pass-through decision
	// (SPEC_FULL.md §3.2). Nil disables it.
	Audit *audit.Sink
}

// DefaultActionLimits returns every built-in action mapped to NaN
// ("disabled"), the zero state spec.md §4.1 requires before a task's own
// config overrides any of them.
func DefaultActionLimits() map[metric.Action]float64 {
	limits := make(map[metric.Action]float64, len(metric.ActionLadder)+1)
	for _, a := range metric.ActionLadder {
		limits[a] = math.NaN()
	}
	limits[metric.ActionNoAction] = math.NaN()
	return limits
}

// Task is the per-message processing context. One Task is created per
// message by the hosting pipeline; it owns at most one metric.Result
// (created lazily via pkg/metric's Create, which takes a Task) and is
// discarded — via Finish — when the message is done.
type Task struct {
	ID        uuid.UUID
	MessageID string
	Logger    *slog.Logger

	Registry *registry.Registry
	Config   *Config
	Settings *Settings

	mu          sync.Mutex
	stage       Stage
	result      *metric.Result
	destructors []func()
}

// New creates a task with a fresh ID. cfg and reg may be nil; a nil cfg
// falls back to DefaultActionLimits() with GrowFactor 0 and
// DefaultMaxShots 1, matching spec.md §4.1's "fills with NaN when no
// config is attached".
func New(messageID string, reg *registry.Registry, cfg *Config, logger *slog.Logger) *Task {
	if cfg == nil {
		cfg = &Config{
			ActionLimits:    DefaultActionLimits(),
			GrowFactor:      0,
			DefaultMaxShots: 1,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		ID:        uuid.New(),
		MessageID: messageID,
		Logger:    logger,
		Registry:  reg,
		Config:    cfg,
	}
}

// EnterIdempotentPhase sets the idempotent-phase bit. Insertions after this
// call are refused (spec.md §4.2, §7).
func (t *Task) EnterIdempotentPhase() {
	t.mu.Lock()
	t.stage |= StageIdempotent
	t.mu.Unlock()
}

// Stage returns the current processed-stage bitmask.
func (t *Task) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Result returns the task's MetricResult and whether pkg/metric.Create has
// already been called for it. Satisfies metric.TaskContext.
func (t *Task) Result() (*metric.Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.result != nil
}

// SetResult stores the task's MetricResult. Called once by
// pkg/metric.Create; a second call is a no-op so Create stays idempotent.
// Satisfies metric.TaskContext.
func (t *Task) SetResult(r *metric.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result != nil {
		return
	}
	t.result = r
}

// ActionLimits returns the task's configured threshold ladder. Satisfies
// metric.TaskContext.
func (t *Task) ActionLimits() map[metric.Action]float64 {
	if t.Config == nil {
		return nil
	}
	return t.Config.ActionLimits
}

// AddDestructor registers fn to run exactly once when Finish is called.
// This is the stand-in for the C arena's add_destructor hook; pkg/metric
// uses it to fold the message's final symbol count into the global EMA.
func (t *Task) AddDestructor(fn func()) {
	t.mu.Lock()
	t.destructors = append(t.destructors, fn)
	t.mu.Unlock()
}

// Finish runs every registered destructor, most-recently-added first (the
// same order a stack-discipline arena would unwind them), then clears the
// list so a double-Finish is harmless.
func (t *Task) Finish() {
	t.mu.Lock()
	destructors := t.destructors
	t.destructors = nil
	t.mu.Unlock()

	for i := len(destructors) - 1; i >= 0; i-- {
		destructors[i]()
	}
}
