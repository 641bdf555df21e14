package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ebf/api"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
)

//go:embed echo.ebf
var echoSource string

func echo(driver api.Driver, lines []string) {
	for _, line := range lines {
		if err := driver.MapProgram(program.MustDecode(echoSource)); err != nil {
			panic(err)
		}

		driver.FeedIn([]byte(line))
		if err := driver.Run(); err != nil {
			fmt.Println("echo failed:", err)
			core.PrintState(driver.Core().Machine())
			atexit.Exit(1)
		}

		fmt.Printf("%q -> %q\n", line, driver.Collect())
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	engine := sim.NewSerialEngine()

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		Build("Driver")

	echo(driver, []string{"hello", "embedded brainfuck"})

	atexit.Exit(0)
}
