// Package config holds the driver configuration of §6: the populated
// record every solver consumes, regardless of whether it arrived via CLI
// flags, a config-file overlay, or direct construction by a host.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Solver names accepted by Config.Solver.
const (
	SSA     = "ssa"
	TauLeap = "tau-leaping"
	ODE     = "ode"
	Hybrid  = "tau-hybrid"
)

// Default tolerances from §6.
const (
	DefaultTauTol    = 0.03
	DefaultRelTol    = 1e-9
	DefaultAbsTol    = 1e-12
	DefaultSwitchTol = 0.03
)

// SeedSentinel means "sample a seed from the wall clock mixed with the
// process id" (§4.2, §6).
const SeedSentinel int64 = -1

// Config is the populated driver configuration §6 describes.
type Config struct {
	Solver string

	Seed                int64
	NumberTimesteps     uint
	NumberTrajectories  uint
	EndTime             float64
	Increment           float64 // derived from EndTime/NumberTimesteps if <= 0

	TauTol    float64
	RelTol    float64
	AbsTol    float64
	MaxStep   float64 // 0 means unlimited
	SwitchTol float64
	SwitchMin float64

	OutputInterval int
	UseRootFinding bool
	Verbose        bool

	VariableOverrides          []float64
	InitialPopulationOverrides []float64
}

// Default returns a Config with every §6 default populated and Solver set
// to SSA; callers still need to set NumberTimesteps, NumberTrajectories and
// EndTime.
func Default() Config {
	return Config{
		Solver:         SSA,
		Seed:           SeedSentinel,
		TauTol:         DefaultTauTol,
		RelTol:         DefaultRelTol,
		AbsTol:         DefaultAbsTol,
		SwitchTol:      DefaultSwitchTol,
		OutputInterval: 1,
	}
}

// Resolve fills in derived defaults (increment, output_interval clamping)
// and validates the record, returning a Configuration error (§7) if
// anything is out of range.
func (c *Config) Resolve() error {
	switch c.Solver {
	case SSA, TauLeap, ODE, Hybrid:
	default:
		return errors.Errorf("config: unknown solver %q", c.Solver)
	}
	if c.NumberTimesteps == 0 {
		return errors.New("config: number_timesteps must be >= 1")
	}
	if c.NumberTrajectories == 0 {
		return errors.New("config: number_trajectories must be >= 1")
	}
	if c.EndTime <= 0 {
		return errors.New("config: end_time must be > 0")
	}
	if c.Increment <= 0 {
		c.Increment = c.EndTime / float64(c.NumberTimesteps)
	}
	if c.TauTol <= 0 {
		c.TauTol = DefaultTauTol
	}
	if c.RelTol <= 0 {
		c.RelTol = DefaultRelTol
	}
	if c.AbsTol <= 0 {
		c.AbsTol = DefaultAbsTol
	}
	if c.SwitchTol <= 0 {
		c.SwitchTol = DefaultSwitchTol
	}
	if c.MaxStep < 0 {
		return errors.New("config: max_step must be >= 0")
	}
	if c.OutputInterval < 1 {
		c.OutputInterval = 1
	}
	if c.OutputInterval > int(c.NumberTimesteps) {
		c.OutputInterval = int(c.NumberTimesteps)
	}
	return nil
}

// LoadOverlay reads a config file (any format viper supports: yaml, json,
// toml) at path and overlays its keys onto a copy of base, letting a host
// ship a model/run config file alongside CLI flags.
func LoadOverlay(base Config, path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return base, errors.Wrapf(err, "config: reading overlay %q", path)
	}
	if err := v.Unmarshal(&base); err != nil {
		return base, errors.Wrap(err, "config: unmarshaling overlay")
	}
	return base, nil
}
