package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
)

var _ = Describe("Options", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("should have valid defaults", func() {
		o := config.Default()
		Expect(o.Validate()).To(Succeed())
		Expect(o.MemorySize).To(Equal(core.DefaultMemorySize))
		Expect(o.CellWidth).To(Equal(8))
		Expect(o.EOF).To(Equal(0))
	})

	It("should load YAML on top of the base", func() {
		path := write("ebf.yaml", "memory_size: 64\neof: 255\ncell_width: 16\n")

		o, err := config.LoadFile(path, config.Default())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.MemorySize).To(Equal(64))
		Expect(o.EOF).To(Equal(255))
		Expect(o.CellWidth).To(Equal(16))
		Expect(o.Endianness).To(Equal("host"))
	})

	It("should load TOML on top of the base", func() {
		path := write("ebf.toml", "memory_size = 32\nendianness = \"big\"\nincludes = [\"board.h\"]\n")

		o, err := config.LoadFile(path, config.Default())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.MemorySize).To(Equal(32))
		Expect(o.Endianness).To(Equal("big"))
		Expect(o.Includes).To(Equal([]string{"board.h"}))
		Expect(o.CellWidth).To(Equal(8))
	})

	It("should reject unknown keys", func() {
		_, err := config.LoadFile(write("bad.yaml", "memroy_size: 4\n"), config.Default())
		Expect(err).To(HaveOccurred())

		_, err = config.LoadFile(write("bad.toml", "memroy_size = 4\n"), config.Default())
		Expect(err).To(MatchError(ContainSubstring("memroy_size")))
	})

	It("should reject unknown file formats", func() {
		_, err := config.LoadFile(write("ebf.json", "{}"), config.Default())
		Expect(err).To(MatchError(ContainSubstring("unknown config format")))
	})

	It("should report a missing file", func() {
		_, err := config.LoadFile(filepath.Join(dir, "missing.yaml"), config.Default())
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	DescribeTable("should validate ranges",
		func(mutate func(*config.Options)) {
			o := config.Default()
			mutate(&o)
			Expect(o.Validate()).To(MatchError(config.ErrInvalid))
		},
		Entry("memory size", func(o *config.Options) { o.MemorySize = 0 }),
		Entry("cell width", func(o *config.Options) { o.CellWidth = 12 }),
		Entry("endianness", func(o *config.Options) { o.Endianness = "middle" }),
		Entry("eof", func(o *config.Options) { o.EOF = 256 }),
		Entry("max steps", func(o *config.Options) { o.MaxSteps = -1 }),
	)

	It("should keep the base for an empty block", func() {
		o, err := config.ParseBlock("", config.Default())
		Expect(err).NotTo(HaveOccurred())
		Expect(o).To(Equal(config.Default()))
	})

	It("should not apply an invalid block", func() {
		base := config.Default()
		o, err := config.ParseBlock("cell_width: 7", base)
		Expect(err).To(MatchError(config.ErrInvalid))
		Expect(o).To(Equal(base))
	})

	It("should apply the config block of a program", func() {
		p := program.MustDecode("#%(\nmemory_size: 16\neof: 7\ninit_hook: board_init\n)\n+")

		o, err := config.ForProgram(p, config.Default())
		Expect(err).NotTo(HaveOccurred())
		Expect(o.MemorySize).To(Equal(16))
		Expect(o.EOF).To(Equal(7))

		m := o.Configure(core.NewBuilder()).BuildMachine(p)
		Expect(m.Memory()).To(HaveLen(16))

		ro := o.RenderOptions()
		Expect(ro.MemorySize).To(Equal(16))
		Expect(ro.EOF).To(Equal(byte(7)))
		Expect(ro.InitHook).To(Equal("board_init"))
	})
})
