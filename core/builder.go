package core

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/ebf/program"
)

// Builder can create new cores and machines.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	memSize  int
	eof      byte
	maxSteps int
	in       InputSource
	out      OutputSink
}

// NewBuilder returns a builder with the default memory size and a 1 GHz
// clock.
func NewBuilder() Builder {
	return Builder{
		freq:    1 * sim.GHz,
		memSize: DefaultMemorySize,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the core.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithMemorySize sets the number of memory cells.
func (b Builder) WithMemorySize(n int) Builder {
	if n <= 0 {
		panic("memory size must be positive")
	}
	b.memSize = n
	return b
}

// WithEOF sets the byte stored by ',' once the input is exhausted.
func (b Builder) WithEOF(eof byte) Builder {
	b.eof = eof
	return b
}

// WithMaxSteps bounds the number of instructions a machine may run. Zero
// means no bound.
func (b Builder) WithMaxSteps(n int) Builder {
	b.maxSteps = n
	return b
}

// WithInput sets the byte source for ','.
func (b Builder) WithInput(in InputSource) Builder {
	b.in = in
	return b
}

// WithOutput sets the byte sink for '.'.
func (b Builder) WithOutput(out OutputSink) Builder {
	b.out = out
	return b
}

// BuildMachine creates a machine for p with zeroed registers and memory.
func (b Builder) BuildMachine(p *program.Program) *Machine {
	size := b.memSize
	if size == 0 {
		size = DefaultMemorySize
	}

	m := &Machine{
		prog: p,
		state: coreState{
			Memory: make([]byte, size),
		},
		emu:      newInstEmulator(p, b.in, b.out, b.eof),
		maxSteps: b.maxSteps,
	}

	if p.Len() == 0 {
		m.status = Halted
	}

	return m
}

// Build creates a core. The core idles until a program is mapped to it.
func (b Builder) Build(name string) *Core {
	freq := b.freq
	if freq == 0 {
		freq = 1 * sim.GHz
	}

	c := &Core{builder: b}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, freq, c)
	return c
}
