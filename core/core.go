// Package core implements the EBF interpreter: a stepping machine over a
// cyclic byte memory, and an akita component that runs one instruction per
// cycle.
package core

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/ebf/program"
)

// Core runs a machine on an akita engine, one instruction per tick.
type Core struct {
	*sim.TickingComponent

	builder Builder
	machine *Machine
}

// MapProgram sets the program that the core needs to run. Any previous
// machine state is discarded.
func (c *Core) MapProgram(p *program.Program) {
	c.machine = c.builder.BuildMachine(p)
}

// MapMachine sets a machine built elsewhere, such as one configured by the
// program's own config block.
func (c *Core) MapMachine(m *Machine) {
	c.machine = m
}

// Machine returns the machine of the mapped program, or nil.
func (c *Core) Machine() *Machine {
	return c.machine
}

// Tick runs one instruction.
func (c *Core) Tick() (madeProgress bool) {
	if c.machine == nil || c.machine.Status() != Running {
		return false
	}

	err := c.machine.Step()
	if err != nil {
		Trace("CoreFault",
			"Core", c.Name(),
			"Time", float64(c.Engine.CurrentTime()*1e9),
			"Err", err,
		)
		return false
	}

	if traceEnabled() {
		Trace("CoreTick",
			"Core", c.Name(),
			"Time", float64(c.Engine.CurrentTime()*1e9),
			"IP", c.machine.IP(),
			"DP", c.machine.DP(),
		)
	}

	return c.machine.Status() == Running
}
