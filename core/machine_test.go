package core_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
)

var _ = Describe("Machine", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = &bytes.Buffer{}
	})

	build := func(src string) *core.Machine {
		return core.NewBuilder().
			WithOutput(out).
			BuildMachine(program.MustDecode(src))
	}

	It("should output 64 from the classic loop", func() {
		m := build("++++++++[>++++++++<-]>.")

		Expect(m.Run(context.Background(), 0)).To(Succeed())
		Expect(out.Bytes()).To(Equal([]byte{64}))
		Expect(m.Status()).To(Equal(core.Halted))
		Expect(m.DP()).To(Equal(1))
	})

	It("should halt immediately on an empty program", func() {
		m := build("")

		Expect(m.Status()).To(Equal(core.Halted))
		Expect(m.Step()).To(Succeed())
		Expect(m.Steps()).To(Equal(0))
	})

	It("should echo input and then store the sentinel", func() {
		m := core.NewBuilder().
			WithInput(bytes.NewReader([]byte("hi"))).
			WithOutput(out).
			WithEOF(0xFF).
			BuildMachine(program.MustDecode(",.>,.>,."))

		Expect(m.Run(context.Background(), 0)).To(Succeed())
		Expect(out.Bytes()).To(Equal([]byte{'h', 'i', 0xFF}))
	})

	It("should alternate IP and ShadowIP on call and return", func() {
		m := build("(!:f)+(!:f)+(!end)(@f)!(@end)")

		Expect(m.Step()).To(Succeed())
		Expect(m.IP()).To(Equal(5))
		Expect(m.ShadowIP()).To(Equal(0))

		Expect(m.Step()).To(Succeed())
		Expect(m.IP()).To(Equal(1))
		Expect(m.ShadowIP()).To(Equal(5))

		Expect(m.Run(context.Background(), 0)).To(Succeed())
		Expect(m.Peek(0)).To(Equal(byte(2)))
		Expect(m.ShadowIP()).To(Equal(5))
		Expect(m.Steps()).To(Equal(7))
	})

	It("should bound an endless call loop", func() {
		m := build("(@loop)+(!:loop)")

		err := m.Run(context.Background(), 100)
		Expect(err).To(MatchError(core.ErrStepLimit))
		Expect(m.Status()).To(Equal(core.Faulted))
		Expect(m.Peek(0)).To(Equal(byte(50)))
		Expect(m.ShadowIP()).To(Equal(1))

		Expect(m.Step()).To(MatchError(core.ErrStepLimit))
		Expect(m.Steps()).To(Equal(100))
	})

	It("should enforce the configured step budget", func() {
		m := core.NewBuilder().
			WithMaxSteps(3).
			BuildMachine(program.MustDecode("(@a)(!a)"))

		err := m.Run(context.Background(), 0)
		Expect(err).To(MatchError(core.ErrStepLimit))
		Expect(m.Steps()).To(Equal(3))
	})

	It("should record the faulting instruction", func() {
		m := build("++(!missing)")

		err := m.Run(context.Background(), 0)
		Expect(err).To(MatchError(core.ErrUndefinedLabel))

		var fault *core.Fault
		Expect(err).To(BeAssignableToTypeOf(fault))
		fault = err.(*core.Fault)
		Expect(fault.Pos).To(Equal(2))
		Expect(fault.Inst.Label).To(Equal("missing"))
		Expect(m.Fault()).To(Equal(err))
	})

	It("should stop on a cancelled context", func() {
		m := build("(@a)(!a)")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(m.Run(ctx, 0)).To(MatchError(context.Canceled))
		Expect(m.Status()).To(Equal(core.Running))
	})

	It("should preload memory", func() {
		m := core.NewBuilder().
			WithMemorySize(4).
			BuildMachine(program.MustDecode("."))
		m.Preload(3, []byte{1, 2})

		Expect(m.Memory()).To(Equal([]byte{2, 0, 0, 1}))
	})

	It("should reject a non-positive memory size", func() {
		Expect(func() { core.NewBuilder().WithMemorySize(0) }).To(Panic())
	})

	It("should render its state", func() {
		m := build("+>++")
		Expect(m.Run(context.Background(), 0)).To(Succeed())

		var buf bytes.Buffer
		core.WriteState(&buf, m)
		Expect(buf.String()).To(ContainSubstring("Registers"))
		Expect(buf.String()).To(ContainSubstring("<- DP"))
	})
})

var _ = Describe("Core", func() {
	It("should run one instruction per tick", func() {
		engine := sim.NewSerialEngine()
		out := &bytes.Buffer{}

		c := core.NewBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithOutput(out).
			Build("Core")
		c.MapProgram(program.MustDecode("++++++++[>++++++++<-]>."))

		c.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(out.Bytes()).To(Equal([]byte{64}))
		Expect(c.Machine().Status()).To(Equal(core.Halted))
		Expect(float64(engine.CurrentTime())).To(BeNumerically(">", 0))
	})

	It("should idle without a program", func() {
		c := core.NewBuilder().Build("Idle")
		Expect(c.Tick()).To(BeFalse())
	})
})
