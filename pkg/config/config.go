// Package config loads the ambient, non-core settings that wire the rest of
// the repository together: action thresholds, the growth factor, Redis and
// Postgres connection strings, and the admin API token. None of this is
// consulted by pkg/metric, pkg/scoring, pkg/passthrough, or pkg/action
// directly — those packages only see the already-resolved values through
// task.Config, exactly as spec.md's "OUT OF SCOPE: configuration loading"
// describes.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ridgeline-security/symscore/pkg/metric"
)

// Profile bundles the tunable knobs a deployment picks as a unit, mirroring
// how the teacher groups related thresholds into a single named profile
// rather than exposing two dozen independent flags.
type Profile struct {
	Name string `yaml:"name"`

	// ActionThresholds maps an action name to its score threshold. An
	// action with no entry becomes NaN (disabled) in ActionLimits.
	ActionThresholds map[string]float64 `yaml:"action_thresholds"`

	GrowFactor      float64 `yaml:"grow_factor"`
	DefaultMaxShots int     `yaml:"default_max_shots"`

	RedisAddr   string `yaml:"redis_addr"`
	PostgresDSN string `yaml:"postgres_dsn"`

	HTTPAddr string `yaml:"http_addr"`
}

// ProfileBalanced is the built-in default, used when no YAML file is
// present. Thresholds are deliberately conservative placeholders; real
// deployments are expected to ship their own profile.yaml.
var ProfileBalanced = &Profile{
	Name: "balanced",
	ActionThresholds: map[string]float64{
		"reject":          15,
		"soft-reject":     12,
		"rewrite-subject": 8,
		"add-header":      6,
		"greylist":        4,
	},
	GrowFactor:      1.0,
	DefaultMaxShots: 1,
	RedisAddr:       "localhost:6379",
	HTTPAddr:        ":9900",
}

// NewDefaultConfig returns a copy of ProfileBalanced. Callers that mutate
// the result (e.g. to override a threshold from a flag) never affect the
// shared default.
func NewDefaultConfig() *Profile {
	cp := *ProfileBalanced
	thresholds := make(map[string]float64, len(ProfileBalanced.ActionThresholds))
	for k, v := range ProfileBalanced.ActionThresholds {
		thresholds[k] = v
	}
	cp.ActionThresholds = thresholds
	return &cp
}

// Load reads path (a YAML file) and merges it over NewDefaultConfig. A
// missing file is not an error — the default profile is returned as-is,
// matching pkg/registry.Load's graceful-fallback contract.
func Load(path string) (*Profile, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var loaded Profile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, err
	}

	if loaded.Name != "" {
		cfg.Name = loaded.Name
	}
	for k, v := range loaded.ActionThresholds {
		cfg.ActionThresholds[k] = v
	}
	if loaded.GrowFactor != 0 {
		cfg.GrowFactor = loaded.GrowFactor
	}
	if loaded.DefaultMaxShots != 0 {
		cfg.DefaultMaxShots = clampInt(loaded.DefaultMaxShots, 1, 64)
	}
	if loaded.RedisAddr != "" {
		cfg.RedisAddr = loaded.RedisAddr
	}
	if loaded.PostgresDSN != "" {
		cfg.PostgresDSN = loaded.PostgresDSN
	}
	if loaded.HTTPAddr != "" {
		cfg.HTTPAddr = loaded.HTTPAddr
	}
	return cfg, nil
}

// LoadFromDir is a convenience wrapper for the common "profile.yaml in a
// config directory" layout.
func LoadFromDir(dir string) (*Profile, error) {
	return Load(filepath.Join(dir, "profile.yaml"))
}

// ActionLimits converts the profile's threshold map into the
// map[metric.Action]float64 shape task.Config expects, defaulting every
// ladder entry (and no-action) to NaN first so an action the profile never
// mentions stays disabled rather than silently defaulting to 0.
func (p *Profile) ActionLimits() map[metric.Action]float64 {
	limits := make(map[metric.Action]float64, len(metric.ActionLadder)+1)
	for _, a := range metric.ActionLadder {
		limits[a] = math.NaN()
	}
	limits[metric.ActionNoAction] = math.NaN()

	for name, threshold := range p.ActionThresholds {
		limits[metric.Action(name)] = threshold
	}
	return limits
}

// clampInt restricts val to [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// GetEnvInt reads name from the environment, falling back to def if unset
// or unparsable.
func GetEnvInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// adminTokenEnvVar is where the httpapi admin surface looks for its bearer
// token. A deployment that never sets it gets a random, process-lifetime
// token instead of an unauthenticated admin surface.
const adminTokenEnvVar = "SYMSCORE_ADMIN_TOKEN"

// AdminToken returns the configured admin API token, generating and caching
// a random one for the life of the process if none is set.
func AdminToken() string {
	if v := os.Getenv(adminTokenEnvVar); v != "" {
		return v
	}
	return processAdminToken()
}

var generatedAdminToken string

func processAdminToken() string {
	if generatedAdminToken != "" {
		return generatedAdminToken
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		generatedAdminToken = "unsafe-default-token"
		return generatedAdminToken
	}
	generatedAdminToken = hex.EncodeToString(buf)
	return generatedAdminToken
}
