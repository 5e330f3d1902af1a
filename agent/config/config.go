// Package config collects the §6.6 tunables the rest of the core reads at
// construction: ReAct budgets, invoker/tool-call timeouts, and ReWoo's
// pipeline knobs. Grounded on the teacher's integration_tests/framework
// scenario loader (os.ReadFile + gopkg.in/yaml.v3 unmarshal into
// yaml-tagged structs); this package does the same for a long-lived
// configuration document instead of a one-shot test fixture.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ReWoo bundles the ReWoo Strategy's §6.6 defaults.
type ReWoo struct {
	TopKSketches           int           `yaml:"topKSketches"`
	MaxParallelWork        int           `yaml:"maxParallelWork"`
	PerWorkTimeout         time.Duration `yaml:"perWorkTimeout"`
	OverallTimeout         time.Duration `yaml:"overallTimeout"`
	MaxVerifyPasses        int           `yaml:"maxVerifyPasses"`
	RequireEvidenceAnchors bool          `yaml:"requireEvidenceAnchors"`
}

// Config is the full set of options the core recognizes (§6.6).
type Config struct {
	MaxIterations    int           `yaml:"maxIterations"`
	MaxToolCalls     int           `yaml:"maxToolCalls"`
	MaxExecutionTime time.Duration `yaml:"maxExecutionTime"`
	StepTimeout      time.Duration `yaml:"stepTimeout"`
	ValidateSchemas  bool          `yaml:"validateSchemas"`
	ToolTimeout      time.Duration `yaml:"toolTimeout"`
	ReWoo            ReWoo         `yaml:"rewoo"`
}

// Option configures a Config at construction via New.
type Option func(*Config)

// WithMaxIterations overrides the default of 10.
func WithMaxIterations(n int) Option { return func(c *Config) { c.MaxIterations = n } }

// WithMaxToolCalls overrides the default of 20.
func WithMaxToolCalls(n int) Option { return func(c *Config) { c.MaxToolCalls = n } }

// WithMaxExecutionTime overrides the default of 300s.
func WithMaxExecutionTime(d time.Duration) Option { return func(c *Config) { c.MaxExecutionTime = d } }

// WithStepTimeout overrides the default of 60s.
func WithStepTimeout(d time.Duration) Option { return func(c *Config) { c.StepTimeout = d } }

// WithValidateSchemas overrides the default of true.
func WithValidateSchemas(b bool) Option { return func(c *Config) { c.ValidateSchemas = b } }

// WithToolTimeout overrides the default of 60s (the §6.6 range is 60-120s;
// callers needing the upper end of that range pass it explicitly).
func WithToolTimeout(d time.Duration) Option { return func(c *Config) { c.ToolTimeout = d } }

// WithReWoo overrides the ReWoo sub-config wholesale.
func WithReWoo(r ReWoo) Option { return func(c *Config) { c.ReWoo = r } }

// New builds a Config starting from the §6.6 defaults, applying opts in
// order.
func New(opts ...Option) Config {
	c := Default()
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

// Default returns the §6.6 default configuration.
func Default() Config {
	return Config{
		MaxIterations:    10,
		MaxToolCalls:     20,
		MaxExecutionTime: 300 * time.Second,
		StepTimeout:      60 * time.Second,
		ValidateSchemas:  true,
		ToolTimeout:      60 * time.Second,
		ReWoo: ReWoo{
			TopKSketches:           4,
			MaxParallelWork:        4,
			PerWorkTimeout:         25 * time.Second,
			OverallTimeout:         120 * time.Second,
			MaxVerifyPasses:        1,
			RequireEvidenceAnchors: true,
		},
	}
}

// Load reads a YAML document at path and unmarshals it over the §6.6
// defaults, so a partial file only overrides the fields it sets.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied configuration, not untrusted input
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}
