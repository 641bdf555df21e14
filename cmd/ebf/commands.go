package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ebf/api"
	"github.com/sarchlab/ebf/bundle"
	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/lower"
	"github.com/sarchlab/ebf/verify"
)

func runCmd(args []string) error {
	var c common
	fs := newFlagSet("run")
	c.register(fs)
	input := fs.String("input", "", "file the program reads, - for standard input")
	trace := fs.String("trace", "", "write a JSON step trace to this file")
	monitor := fs.Bool("monitor", false, "serve the akita monitor while running")
	debug := fs.Bool("debug", false, "print the registers and memory when the run ends")
	if err := parse(fs, args); err != nil {
		return err
	}

	path, err := programArg(fs)
	if err != nil {
		return err
	}

	opts, err := c.options()
	if err != nil {
		return err
	}

	p, err := loadProgram(path)
	if err != nil {
		return err
	}

	data, err := readInput(*input)
	if err != nil {
		return err
	}

	if err := setupLogging(*trace); err != nil {
		return err
	}

	engine := sim.NewSerialEngine()
	builder := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithOptions(opts)

	var mon *monitoring.Monitor
	if *monitor {
		mon = monitoring.NewMonitor()
		mon.RegisterEngine(engine)
		builder = builder.WithMonitor(mon)
	}

	driver := builder.Build("EBF")
	if mon != nil {
		mon.StartServer()
	}
	if err := driver.MapProgram(p); err != nil {
		return err
	}

	driver.FeedIn(data)
	runErr := driver.Run()

	os.Stdout.Write(driver.Collect())

	if *debug {
		core.PrintState(driver.Core().Machine())
	}

	return runErr
}

func lowerCmd(args []string) error {
	var c common
	fs := newFlagSet("lower")
	c.register(fs)
	output := fs.String("output", "", "write the C source here instead of standard output")
	if err := parse(fs, args); err != nil {
		return err
	}

	path, err := programArg(fs)
	if err != nil {
		return err
	}

	base, err := c.options()
	if err != nil {
		return err
	}

	p, err := loadProgram(path)
	if err != nil {
		return err
	}

	opts, err := config.ForProgram(p, base)
	if err != nil {
		return err
	}

	stmts, err := lower.Lower(p)
	if err != nil {
		return err
	}

	src, err := lower.RenderC(stmts, opts.RenderOptions())
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(*output)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, src); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

// errNotEquivalent is returned by verify when the two engines disagree.
var errNotEquivalent = errors.New("lowered form is not equivalent")

func verifyCmd(args []string) error {
	var c common
	fs := newFlagSet("verify")
	c.register(fs)
	input := fs.String("input", "", "file the program reads, - for standard input")
	report := fs.String("report", "", "also save the report to this file")
	if err := parse(fs, args); err != nil {
		return err
	}

	path, err := programArg(fs)
	if err != nil {
		return err
	}

	base, err := c.options()
	if err != nil {
		return err
	}

	p, err := loadProgram(path)
	if err != nil {
		return err
	}

	opts, err := config.ForProgram(p, base)
	if err != nil {
		return err
	}

	data, err := readInput(*input)
	if err != nil {
		return err
	}

	if err := setupLogging(""); err != nil {
		return err
	}

	r := verify.GenerateReport(p, verify.ReportOptions{
		Input:      data,
		EOF:        byte(opts.EOF),
		MemorySize: opts.MemorySize,
		MaxSteps:   opts.MaxSteps,
	})
	r.WriteReport(os.Stdout)

	if *report != "" {
		if err := r.SaveReportToFile(*report); err != nil {
			return err
		}
	}

	if !r.Equivalent {
		return errNotEquivalent
	}
	return nil
}

func buildCmd(args []string) error {
	fs := newFlagSet("build")
	output := fs.String("output", "", "image path, defaults to the program path with "+bundleExt)
	if err := parse(fs, args); err != nil {
		return err
	}

	path, err := programArg(fs)
	if err != nil {
		return err
	}

	p, err := loadProgram(path)
	if err != nil {
		return err
	}

	// Programs in an image are decoded already; catch the faults a host
	// could not report against the source.
	if err := p.CheckLabels(); err != nil {
		return err
	}
	if _, err := config.ForProgram(p, config.Default()); err != nil {
		return err
	}

	out := *output
	if out == "" {
		out = imagePath(path)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}

	if err := bundle.Write(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func imagePath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + bundleExt
}
