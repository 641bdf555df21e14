// Command ebf runs, lowers, verifies and bundles EBF programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/ebf/bundle"
	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
)

// bundleExt marks program images written by the build command.
const bundleExt = ".ebfb"

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"run", "run a program on the interpreter", runCmd},
	{"lower", "lower a program to C", lowerCmd},
	{"verify", "lint a program and compare the interpreter with its lowered form", verifyCmd},
	{"build", "write a program image", buildCmd},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: ebf <command> [options] <program>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  ebf run -input in.txt hello.ebf      # Run with input from a file\n")
	fmt.Fprintf(os.Stderr, "  ebf run -trace trace.log hello.ebf   # Log every step as JSON\n")
	fmt.Fprintf(os.Stderr, "  ebf lower -config board.toml hello.ebf > hello.c\n")
	fmt.Fprintf(os.Stderr, "  ebf build -output hello.ebfb hello.ebf\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		atexit.Exit(2)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}

		if err := c.run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			atexit.Exit(1)
		}
		atexit.Exit(0)
	}

	if name != "-h" && name != "-help" && name != "help" {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", name)
	}
	usage()
	atexit.Exit(2)
}

// common holds the flags every command takes.
type common struct {
	configPath string
	maxSteps   int
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML or TOML options file")
	fs.IntVar(&c.maxSteps, "max-steps", 0, "stop after this many steps (0 for no bound)")
}

// options returns the defaults overlaid by the options file and the flags.
func (c *common) options() (config.Options, error) {
	opts := config.Default()

	if c.configPath != "" {
		var err error
		opts, err = config.LoadFile(c.configPath, opts)
		if err != nil {
			return opts, err
		}
	}

	if c.maxSteps > 0 {
		opts.MaxSteps = c.maxSteps
	}

	return opts, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ebf %s [options] <program>\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args, treating a help request as done.
func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		atexit.Exit(0)
	}
	return err
}

// programArg returns the single program path left after the flags.
func programArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%s: expected one program, got %d", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}

// loadProgram reads a program from source text, or from an image when the
// path ends in .ebfb.
func loadProgram(path string) (*program.Program, error) {
	if strings.EqualFold(filepath.Ext(path), bundleExt) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return bundle.Read(f)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := program.Decode(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// readInput returns the bytes a program reads. "-" is standard input.
func readInput(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(path)
	}
}

// openOutput returns a writer for path, standard output when path is empty.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// setupLogging sends step traces to path as JSON lines. Without a path only
// warnings and errors are logged, to standard error.
func setupLogging(path string) error {
	if path == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})
		slog.SetDefault(slog.New(handler))
		return nil
	}

	return setupTrace(path)
}

func setupTrace(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	atexit.Register(func() { f.Close() })

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: core.LevelTrace,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}
