package scoring

import (
	"github.com/ridgeline-security/symscore/pkg/metric"
	"github.com/ridgeline-security/symscore/pkg/registry"
	"github.com/ridgeline-security/symscore/pkg/task"
)

// AddOption is the standalone add_result_option operation (spec.md §6):
// idempotent on duplicates, capped by the task's default_max_shots distinct
// options when the symbol is not one-param, and restricted to exactly one
// option when it is. Returns true if value was newly recorded.
func AddOption(t *task.Task, sr *metric.SymbolResult, value string) bool {
	if sr.HasOption(value) {
		return false
	}

	if sr.Def != nil && sr.Def.Flags.Has(registry.FlagOneParam) {
		if len(sr.OptsHead) >= 1 {
			return false
		}
		return sr.AddOption(value)
	}

	max := 1
	if t.Config != nil && t.Config.DefaultMaxShots > 0 {
		max = t.Config.DefaultMaxShots
	}
	if len(sr.OptsHead) >= max {
		return false
	}
	return sr.AddOption(value)
}
