package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ebf/api"
	"github.com/sarchlab/ebf/program"
)

//go:embed hello.ebf
var helloSource string

func hello(driver api.Driver) error {
	if err := driver.MapProgram(program.MustDecode(helloSource)); err != nil {
		return err
	}

	if err := driver.Run(); err != nil {
		return err
	}

	fmt.Print(string(driver.Collect()))
	return nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	monitor := monitoring.NewMonitor()

	engine := sim.NewSerialEngine()
	monitor.RegisterEngine(engine)

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithMonitor(monitor).
		Build("Driver")

	monitor.StartServer()

	if err := hello(driver); err != nil {
		fmt.Println("hello failed:", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
