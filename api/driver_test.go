package api_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/ebf/api"
	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
)

var _ = Describe("Driver", func() {
	var (
		engine sim.Engine
		driver api.Driver
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		driver = api.DriverBuilder{}.
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			Build("Driver")
	})

	It("should run the classic program", func() {
		Expect(driver.MapProgram(program.MustDecode("++++++++[>++++++++<-]>."))).To(Succeed())
		Expect(driver.Run()).To(Succeed())

		Expect(driver.Collect()).To(Equal([]byte{64}))
		Expect(driver.Collect()).To(BeEmpty())
		Expect(driver.Core().Machine().Status()).To(Equal(core.Halted))
	})

	It("should feed input and then the EOF sentinel", func() {
		driver.FeedIn([]byte("hi"))
		Expect(driver.MapProgram(program.MustDecode("#%(\neof: 33\n)\n,.,.,."))).To(Succeed())
		Expect(driver.Options().EOF).To(Equal(33))

		Expect(driver.Run()).To(Succeed())
		Expect(driver.Collect()).To(Equal([]byte("hi!")))
	})

	It("should apply the config block of the program", func() {
		Expect(driver.MapProgram(program.MustDecode("#%(\nmemory_size: 4\n)\n<+"))).To(Succeed())
		Expect(driver.Run()).To(Succeed())

		m := driver.Core().Machine()
		Expect(m.Memory()).To(Equal([]byte{0, 0, 0, 1}))
	})

	It("should reject unbalanced programs before running", func() {
		err := driver.MapProgram(program.MustDecode("[+"))
		Expect(err).To(MatchError(program.ErrUnbalanced))
		Expect(driver.Run()).To(MatchError(api.ErrNoProgram))
	})

	It("should reject a bad config block", func() {
		err := driver.MapProgram(program.MustDecode("#%(\ncell_width: 3\n)\n+"))
		Expect(err).To(MatchError(config.ErrInvalid))
	})

	It("should surface runtime faults", func() {
		Expect(driver.MapProgram(program.MustDecode("+(!missing)"))).To(Succeed())
		Expect(driver.Run()).To(MatchError(core.ErrUndefinedLabel))
	})

	It("should bound endless programs with the configured step limit", func() {
		opts := config.Default()
		opts.MaxSteps = 50

		driver = api.DriverBuilder{}.
			WithEngine(engine).
			WithOptions(opts).
			Build("Bounded")

		Expect(driver.MapProgram(program.MustDecode("(@a)+(!a)"))).To(Succeed())
		Expect(driver.Run()).To(MatchError(core.ErrStepLimit))
		Expect(driver.Core().Machine().Steps()).To(Equal(50))
	})

	It("should run programs one after another", func() {
		Expect(driver.MapProgram(program.MustDecode("(.#1)"))).To(Succeed())
		Expect(driver.Run()).To(Succeed())
		Expect(driver.MapProgram(program.MustDecode("(.#2)"))).To(Succeed())
		Expect(driver.Run()).To(Succeed())

		Expect(driver.Collect()).To(Equal([]byte{1, 2}))
	})
})
