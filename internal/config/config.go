// Package config loads engine, backend and noise settings.
//
// Settings come from Default, then an optional YAML file, then QNAT_*
// environment variables, and are validated once at the end. The builder
// methods turn a validated Config into the engine's runtime objects.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/quantumnat/internal/backend"
	"github.com/born-ml/quantumnat/internal/metrics"
	"github.com/born-ml/quantumnat/internal/noise"
	"github.com/born-ml/quantumnat/internal/parallel"
	"github.com/born-ml/quantumnat/internal/qerr"
)

// Backend kinds.
const (
	KindIdeal  = "ideal"
	KindNoisy  = "noisy"
	KindRemote = "remote"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QNAT_"

// Config is the full runtime configuration.
type Config struct {
	LogLevel string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	Seed     int64         `yaml:"seed"`
	Engine   EngineConfig  `yaml:"engine"`
	Backend  BackendConfig `yaml:"backend"`
	Noise    NoiseConfig   `yaml:"noise"`
}

// EngineConfig tunes the local simulator.
type EngineConfig struct {
	Parallel      bool    `yaml:"parallel"`
	Workers       int     `yaml:"workers" validate:"gte=0"`
	MinWork       int     `yaml:"min_work" validate:"gte=0"`
	NormTolerance float64 `yaml:"norm_tolerance" validate:"gt=0"`
	NormHardLimit float64 `yaml:"norm_hard_limit" validate:"gtfield=NormTolerance"`
}

// BackendConfig selects and tunes the execution backend.
type BackendConfig struct {
	Kind              string        `yaml:"kind" validate:"oneof=ideal noisy remote"`
	URL               string        `yaml:"url" validate:"omitempty,url"`
	Shots             int           `yaml:"shots" validate:"gte=1"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	PollInterval      time.Duration `yaml:"poll_interval" validate:"gt=0"`
	MaxAttempts       int           `yaml:"max_attempts" validate:"gte=1"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" validate:"gt=0"`
	MaxBackoff        time.Duration `yaml:"max_backoff" validate:"gtefield=InitialBackoff"`
	SubmitRate        float64       `yaml:"submit_rate" validate:"gt=0"`
	SubmitBurst       int           `yaml:"submit_burst" validate:"gte=1"`
	MaxConcurrency    int           `yaml:"max_concurrency" validate:"gte=1"`
	MaxCircuitsPerJob int           `yaml:"max_circuits_per_job" validate:"gte=1"`
	MaxShots          int           `yaml:"max_shots" validate:"gtefield=Shots"`
	Trajectories      int           `yaml:"trajectories" validate:"gte=1"`
}

// NoiseConfig selects a calibration profile. Profile is a bundled name or
// a YAML path.
type NoiseConfig struct {
	Profile string  `yaml:"profile"`
	Enabled bool    `yaml:"enabled"`
	Factor  float64 `yaml:"factor" validate:"gte=0"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	par := parallel.DefaultConfig()
	exec := backend.DefaultExecutorConfig()
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Parallel:      par.Enabled,
			Workers:       par.NumWorkers,
			MinWork:       par.MinWork,
			NormTolerance: 1e-8,
			NormHardLimit: 1e-3,
		},
		Backend: BackendConfig{
			Kind:              KindIdeal,
			Shots:             8192,
			Timeout:           exec.Timeout,
			PollInterval:      exec.PollInterval,
			MaxAttempts:       exec.Retry.MaxAttempts,
			InitialBackoff:    200 * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			SubmitRate:        float64(exec.SubmitRate),
			SubmitBurst:       exec.SubmitBurst,
			MaxConcurrency:    exec.MaxConcurrency,
			MaxCircuitsPerJob: backend.DefaultMaxCircuitsPerJob,
			MaxShots:          backend.DefaultMaxShots,
			Trajectories:      backend.DefaultTrajectories,
		},
		Noise: NoiseConfig{
			Profile: "fake_quito",
			Enabled: true,
			Factor:  1,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, qerr.Config("config.Load", "read %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, qerr.Config("config.Load", "decode %s: %v", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates, without reading
// the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, qerr.Config("config.Parse", "decode yaml: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	const op = "config.Validate"
	if err := validate.Struct(c); err != nil {
		return qerr.Config(op, "%v", err)
	}
	if c.Backend.Kind == KindRemote && c.Backend.URL == "" {
		return qerr.Config(op, "remote backend needs a url")
	}
	if c.Backend.Kind == KindNoisy && c.Noise.Profile == "" {
		return qerr.Config(op, "noisy backend needs a noise profile")
	}
	return nil
}

// ApplyEnv overrides fields from QNAT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOG_LEVEL":     &c.LogLevel,
		"BACKEND_KIND":  &c.Backend.Kind,
		"BACKEND_URL":   &c.Backend.URL,
		"NOISE_PROFILE": &c.Noise.Profile,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"BACKEND_SHOTS":        &c.Backend.Shots,
		"BACKEND_MAX_ATTEMPTS": &c.Backend.MaxAttempts,
		"ENGINE_WORKERS":       &c.Engine.Workers,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return qerr.Config("config.ApplyEnv", "%s%s=%q: %v", EnvPrefix, key, v, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return qerr.Config("config.ApplyEnv", "%sSEED=%q: %v", EnvPrefix, v, err)
		}
		c.Seed = n
	}
	if v, ok := lookup(EnvPrefix + "BACKEND_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return qerr.Config("config.ApplyEnv", "%sBACKEND_TIMEOUT=%q: %v", EnvPrefix, v, err)
		}
		c.Backend.Timeout = d
	}
	if v, ok := lookup(EnvPrefix + "NOISE_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return qerr.Config("config.ApplyEnv", "%sNOISE_ENABLED=%q: %v", EnvPrefix, v, err)
		}
		c.Noise.Enabled = b
	}
	if v, ok := lookup(EnvPrefix + "NOISE_FACTOR"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return qerr.Config("config.ApplyEnv", "%sNOISE_FACTOR=%q: %v", EnvPrefix, v, err)
		}
		c.Noise.Factor = f
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParallelConfig returns the kernel's batch-parallel settings.
func (c *Config) ParallelConfig() parallel.Config {
	return parallel.Config{
		Enabled:    c.Engine.Parallel,
		NumWorkers: max(c.Engine.Workers, 1),
		MinWork:    c.Engine.MinWork,
	}
}

// ExecutorConfig returns the executor's submission and retry settings.
func (c *Config) ExecutorConfig() backend.ExecutorConfig {
	cfg := backend.DefaultExecutorConfig()
	cfg.PollInterval = c.Backend.PollInterval
	cfg.Timeout = c.Backend.Timeout
	cfg.SubmitRate = rate.Limit(c.Backend.SubmitRate)
	cfg.SubmitBurst = c.Backend.SubmitBurst
	cfg.MaxConcurrency = c.Backend.MaxConcurrency
	cfg.Retry.MaxAttempts = c.Backend.MaxAttempts
	cfg.Retry.Strategy = &backend.ExponentialBackoff{
		Initial: c.Backend.InitialBackoff,
		Max:     c.Backend.MaxBackoff,
	}
	return cfg
}

// NoiseProfile loads the configured profile, bundled names first.
func (c *Config) NoiseProfile() (*noise.Profile, error) {
	name := c.Noise.Profile
	if name == "" {
		return nil, qerr.Config("config.NoiseProfile", "no noise profile configured")
	}
	for _, b := range noise.Builtins() {
		if b == name {
			return noise.Builtin(name)
		}
	}
	return noise.LoadProfile(name)
}

// NoiseModel builds a model from the configured profile with the
// configured factor and enabled flag.
func (c *Config) NoiseModel(opts ...noise.Option) (*noise.Model, error) {
	p, err := c.NoiseProfile()
	if err != nil {
		return nil, err
	}
	m := noise.New(p, append([]noise.Option{noise.WithFactor(c.Noise.Factor)}, opts...)...)
	m.SetEnabled(c.Noise.Enabled)
	return m, nil
}

// NewBackend builds the configured backend. A remote backend is contacted
// once to read its capabilities.
func (c *Config) NewBackend(ctx context.Context, m *metrics.Metrics, logger *slog.Logger) (backend.Backend, error) {
	simOpts := []backend.SimOption{
		backend.WithSeed(c.Seed),
		backend.WithMaxShots(c.Backend.MaxShots),
		backend.WithMaxCircuitsPerJob(c.Backend.MaxCircuitsPerJob),
		backend.WithTrajectories(c.Backend.Trajectories),
		backend.WithSimLogger(logger),
	}
	switch c.Backend.Kind {
	case KindIdeal:
		return backend.NewSimulator(simOpts...), nil
	case KindNoisy:
		p, err := c.NoiseProfile()
		if err != nil {
			return nil, err
		}
		noiseOpts := []noise.Option{noise.WithFactor(c.Noise.Factor), noise.WithLogger(logger)}
		if m != nil {
			noiseOpts = append(noiseOpts, noise.WithMetrics(m))
		}
		return backend.NewNoisySimulator(p, noiseOpts, simOpts...), nil
	case KindRemote:
		r, err := backend.NewRemote(ctx, c.Backend.URL, backend.WithRemoteLogger(logger))
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, qerr.Config("config.NewBackend", "unknown backend kind %q", c.Backend.Kind)
}

func (c Config) String() string {
	return fmt.Sprintf("backend=%s shots=%d noise=%s(enabled=%t factor=%g) seed=%d",
		c.Backend.Kind, c.Backend.Shots, c.Noise.Profile, c.Noise.Enabled, c.Noise.Factor, c.Seed)
}
