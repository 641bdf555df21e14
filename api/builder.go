package api

import (
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
)

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	engine  sim.Engine
	freq    sim.Freq
	opts    *config.Options
	monitor *monitoring.Monitor
}

// WithEngine sets the engine.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the core the driver runs programs on.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.freq = freq
	return b
}

// WithOptions sets the options programs start from. A program's own config
// block overrides them.
func (b DriverBuilder) WithOptions(opts config.Options) DriverBuilder {
	b.opts = &opts
	return b
}

// WithMonitor registers the core with a monitor when the driver is built.
func (b DriverBuilder) WithMonitor(monitor *monitoring.Monitor) DriverBuilder {
	b.monitor = monitor
	return b
}

// Build create a driver.
func (b DriverBuilder) Build(name string) Driver {
	opts := config.Default()
	if b.opts != nil {
		opts = *b.opts
	}

	freq := b.freq
	if freq == 0 {
		freq = 1 * sim.GHz
	}

	d := &driverImpl{
		name: name,
		opts: opts,
	}

	d.builder = core.NewBuilder().
		WithEngine(b.engine).
		WithFreq(freq).
		WithInput(d).
		WithOutput(d)
	d.core = d.builder.Build(name + ".Core")

	if b.monitor != nil {
		b.monitor.RegisterComponent(d.core)
	}

	return d
}
