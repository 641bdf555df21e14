package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/ebf/instr"
)

const (
	LevelTrace slog.Level = slog.LevelInfo + 1

	// stateWindow is the number of cells PrintState shows on each side of
	// the data pointer.
	stateWindow = 8
)

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

func traceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// PrintState prints the registers and the memory around the data pointer to
// stdout.
func PrintState(m *Machine) {
	WriteState(os.Stdout, m)
}

// WriteState writes the registers and the memory around the data pointer as
// tables.
func WriteState(w io.Writer, m *Machine) {
	fmt.Fprintf(w, "==============State@%s step %d==============\n",
		m.Status(), m.Steps())

	regTable := table.NewWriter()
	regTable.SetTitle("Registers")
	regTable.AppendHeader(table.Row{"IP", "ShadowIP", "DP", "ShadowDP"})
	regTable.AppendRow(table.Row{m.IP(), m.ShadowIP(), m.DP(), m.ShadowDP()})
	fmt.Fprintln(w, regTable.Render())
	fmt.Fprintln(w)

	memTable := table.NewWriter()
	memTable.SetTitle("Memory")
	memTable.AppendHeader(table.Row{"Addr", "Value", "Hex", ""})
	for off := -stateWindow; off <= stateWindow; off++ {
		addr := instr.Wrap(m.DP()+off, len(m.state.Memory))
		v := m.Peek(addr)

		marker := ""
		if off == 0 {
			marker = "<- DP"
		}
		if addr == m.ShadowDP() && off != 0 {
			marker = "<- ShadowDP"
		}

		memTable.AppendRow(table.Row{
			addr,
			v,
			fmt.Sprintf("0x%02x", v),
			marker,
		})
	}
	fmt.Fprintln(w, memTable.Render())

	if f := m.Fault(); f != nil {
		fmt.Fprintf(w, "Fault: %v\n", f)
	}
	fmt.Fprintln(w, "================================================")
}

func LogState(m *Machine) {
	slog.Debug("StateCheckpoint",
		"Status", m.Status().String(),
		"Steps", m.Steps(),
		"IP", m.IP(),
		"ShadowIP", m.ShadowIP(),
		"DP", m.DP(),
		"ShadowDP", m.ShadowDP(),
	)
}
