package sim

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/model"
	"github.com/sarchlab/quartz/vtime"
)

// RunConfig is the host-facing configuration surface spec section 6's
// Simulation constructor exposes, loadable from a file or QUARTZ_-prefixed
// environment variables via LoadRunConfig rather than wired by hand into
// SimulationBuilder (grounded on junjiewwang-perf-analysis's
// pkg/config.Config: viper.New, SetDefault, AutomaticEnv, Unmarshal).
type RunConfig struct {
	Scheduler         string `mapstructure:"scheduler"`
	MaintainHierarchy bool   `mapstructure:"maintain_hierarchy"`
	EndTimeQuantity   float64 `mapstructure:"end_time_quantity"`
	HasEndTime        bool   `mapstructure:"has_end_time"`
}

// SchedulerKind resolves the configured scheduler name to a
// model.EventSetKind, defaulting to the binary heap for an empty or
// unrecognized value.
func (c RunConfig) SchedulerKind() model.EventSetKind {
	switch c.Scheduler {
	case "fibonacci_heap":
		return model.SchedulerFibonacciHeap
	case "heap_set":
		return model.SchedulerHeapSet
	case "ladder_queue":
		return model.SchedulerLadderQueue
	case "calendar_queue":
		return model.SchedulerCalendarQueue
	default:
		return model.SchedulerBinaryHeap
	}
}

// LoadRunConfig reads a RunConfig from path (YAML/JSON/TOML, by extension)
// or QUARTZ_-prefixed environment variables, falling back to defaults when
// no file is present.
func LoadRunConfig(path string) (RunConfig, error) {
	v := viper.New()
	setRunConfigDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if !notFound && !errors.Is(err, fs.ErrNotExist) {
				return RunConfig{}, fmt.Errorf("quartz: failed to read run config %q: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("QUARTZ")
	v.AutomaticEnv()

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("quartz: failed to unmarshal run config: %w", err)
	}
	return cfg, nil
}

func setRunConfigDefaults(v *viper.Viper) {
	v.SetDefault("scheduler", "binary_heap")
	v.SetDefault("maintain_hierarchy", true)
	v.SetDefault("has_end_time", false)
	v.SetDefault("end_time_quantity", 0.0)
}

// ApplyTo configures b per this RunConfig's scheduler, hierarchy, and end
// time settings. End time, if set, is interpreted at base precision; a
// caller needing a different precision should call WithEndTime directly
// instead.
func (c RunConfig) ApplyTo(b *SimulationBuilder) *SimulationBuilder {
	b = b.WithScheduler(c.SchedulerKind()).WithMaintainHierarchy(c.MaintainHierarchy)
	if c.HasEndTime {
		b = b.WithEndTime(vtime.Zero.Advance(duration.NewUnfixed(c.EndTimeQuantity, duration.Base)))
	}
	return b
}
