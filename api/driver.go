// Package api defines the driver API for running EBF programs on an akita
// engine.
package api

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
)

// ErrNoProgram is returned by Run before any program is mapped.
var ErrNoProgram = errors.New("no program mapped")

// Driver provides the interface to run programs on a core.
type Driver interface {
	// MapProgram maps the program to the core. Unbalanced brackets and bad
	// config blocks are rejected before anything runs. Input fed and output
	// collected so far are kept.
	MapProgram(p *program.Program) error

	// FeedIn queues bytes for the program to read. Once they are consumed
	// the program reads the configured EOF sentinel.
	FeedIn(data []byte)

	// Collect returns and clears the bytes the program has written.
	Collect() []byte

	// Run runs the mapped program until it halts or faults.
	Run() error

	// Core returns the akita component the program runs on.
	Core() *core.Core

	// Options returns the options of the mapped program.
	Options() config.Options
}

type driverImpl struct {
	name string
	opts config.Options

	builder core.Builder
	core    *core.Core
	mapped  config.Options

	input  []byte
	output []byte
}

func (d *driverImpl) MapProgram(p *program.Program) error {
	if _, err := program.MatchAll(p); err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}

	opts, err := config.ForProgram(p, d.opts)
	if err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}

	d.mapped = opts
	d.core.MapMachine(opts.Configure(d.builder).BuildMachine(p))

	return nil
}

func (d *driverImpl) FeedIn(data []byte) {
	d.input = append(d.input, data...)
}

func (d *driverImpl) Collect() []byte {
	out := d.output
	d.output = nil
	return out
}

func (d *driverImpl) Run() error {
	m := d.core.Machine()
	if m == nil {
		return ErrNoProgram
	}

	// A tick at the current time may already have run for an earlier
	// program, so the first tick of this run is scheduled for the next cycle.
	d.core.TickLater()
	if err := d.core.Engine.Run(); err != nil {
		return err
	}

	core.LogState(m)

	return m.Fault()
}

func (d *driverImpl) Core() *core.Core {
	return d.core
}

func (d *driverImpl) Options() config.Options {
	return d.mapped
}

// ReadByte feeds queued input to the core.
func (d *driverImpl) ReadByte() (byte, error) {
	if len(d.input) == 0 {
		return 0, io.EOF
	}

	b := d.input[0]
	d.input = d.input[1:]
	return b, nil
}

// WriteByte collects output from the core.
func (d *driverImpl) WriteByte(c byte) error {
	d.output = append(d.output, c)
	return nil
}
