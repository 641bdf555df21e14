package core

import (
	"errors"
	"io"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ebf/program"
)

var _ = Describe("InstEmulator", func() {
	var (
		mockCtrl *gomock.Controller
		in       *MockInputSource
		out      *MockOutputSink
		s        coreState
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		in = NewMockInputSource(mockCtrl)
		out = NewMockOutputSink(mockCtrl)
		s = coreState{
			Memory: make([]byte, 1024),
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	// exec decodes src and runs each instruction once, in order, advancing
	// the instruction pointer the way a machine does.
	exec := func(src string) error {
		p := program.MustDecode(src)
		ie := newInstEmulator(p, in, out, 0)
		for s.IP = 0; s.IP < p.Len(); s.IP++ {
			if err := ie.RunInst(p.Instructions[s.IP], &s); err != nil {
				return err
			}
		}
		return nil
	}

	Context("Addressing", func() {
		It("should increment through @:*", func() {
			s.DP = 3
			s.Memory[8] = 7
			s.Memory[7] = 42

			Expect(exec("(+@:*5)")).To(Succeed())

			Expect(s.Memory[7]).To(Equal(byte(43)))
			Expect(s.Memory[8]).To(Equal(byte(7)))
			Expect(s.DP).To(Equal(3))
		})

		It("should add a source through #:*", func() {
			s.DP = 2
			s.Memory[3] = 10
			s.Memory[10] = 5
			s.Memory[2] = 1

			Expect(exec("(+#:*1)")).To(Succeed())

			Expect(s.Memory[2]).To(Equal(byte(6)))
		})

		It("should decrement an absolute cell", func() {
			Expect(exec("(-@1023)")).To(Succeed())
			Expect(s.Memory[1023]).To(Equal(byte(255)))
		})

		It("should wrap out-of-range literal targets", func() {
			Expect(exec("(+@1025)(+@-1)")).To(Succeed())
			Expect(s.Memory[1]).To(Equal(byte(1)))
			Expect(s.Memory[1023]).To(Equal(byte(1)))
		})
	})

	Context("Arithmetic", func() {
		It("should wrap 255 to 0", func() {
			s.Memory[0] = 255
			Expect(exec("+")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0)))
		})

		It("should wrap 0 to 255", func() {
			Expect(exec("-")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(255)))
		})

		It("should add large literals modulo 256", func() {
			s.Memory[0] = 10
			Expect(exec("(+#300)")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(54)))
		})
	})

	Context("Pointer movement", func() {
		It("should restore the pointer after > then <", func() {
			for _, dp := range []int{0, 1, 512, 1023} {
				s.DP = dp
				Expect(exec("><")).To(Succeed())
				Expect(s.DP).To(Equal(dp))
			}
		})

		It("should wrap moving left from 0", func() {
			Expect(exec("<")).To(Succeed())
			Expect(s.DP).To(Equal(1023))
		})

		It("should move by a source and set from a target", func() {
			Expect(exec("(>#5)")).To(Succeed())
			Expect(s.DP).To(Equal(5))

			Expect(exec("(<@10)")).To(Succeed())
			Expect(s.DP).To(Equal(10))
		})

		It("should step by relative offsets in the glyph's direction", func() {
			s.DP = 5
			Expect(exec("(>@:2)")).To(Succeed())
			Expect(s.DP).To(Equal(7))

			Expect(exec("(<@:2)")).To(Succeed())
			Expect(s.DP).To(Equal(5))

			Expect(exec("(<@:7)")).To(Succeed())
			Expect(s.DP).To(Equal(1022))
		})

		It("should step by an offset read through @:*", func() {
			s.DP = 5
			s.Memory[6] = 3

			Expect(exec("(<@:*1)")).To(Succeed())
			Expect(s.DP).To(Equal(2))

			s.Memory[3] = 4
			Expect(exec("(>@:*1)")).To(Succeed())
			Expect(s.DP).To(Equal(6))
		})

		It("should swap data pointers", func() {
			s.DP = 4
			s.ShadowDP = 9
			Expect(exec("%")).To(Succeed())
			Expect(s.DP).To(Equal(9))
			Expect(s.ShadowDP).To(Equal(4))
		})

		It("should jump to the shadow pointer with the % operand", func() {
			s.ShadowDP = 17
			Expect(exec("(>@%)")).To(Succeed())
			Expect(s.DP).To(Equal(17))
		})
	})

	Context("I/O", func() {
		It("should output the current cell", func() {
			s.Memory[0] = 64
			out.EXPECT().WriteByte(byte(64)).Return(nil)

			Expect(exec(".")).To(Succeed())
		})

		It("should output a literal", func() {
			out.EXPECT().WriteByte(byte('A')).Return(nil)

			Expect(exec("(.#0x41)")).To(Succeed())
		})

		It("should store instead of output in @ mode", func() {
			s.Memory[0] = 9
			Expect(exec("(.@4)")).To(Succeed())
			Expect(s.Memory[4]).To(Equal(byte(9)))
		})

		It("should read into the target", func() {
			in.EXPECT().ReadByte().Return(byte('x'), nil)

			Expect(exec("(,@6)")).To(Succeed())
			Expect(s.Memory[6]).To(Equal(byte('x')))
		})

		It("should load a literal without reading", func() {
			Expect(exec("(,#-1)")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(255)))
		})

		It("should store the sentinel once input is exhausted", func() {
			s.Memory[0] = 7
			in.EXPECT().ReadByte().Return(byte(0), io.EOF)

			Expect(exec(",")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0)))
		})

		It("should surface other input errors", func() {
			boom := errors.New("boom")
			in.EXPECT().ReadByte().Return(byte(0), boom)

			Expect(exec(",")).To(MatchError(boom))
		})
	})

	Context("Bitwise", func() {
		It("should invert cells", func() {
			s.Memory[0] = 0x0F
			Expect(exec("~")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0xF0)))

			Expect(exec("(~#1)")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0xFE)))
		})

		It("should combine with the neighbour cell", func() {
			s.Memory[0] = 0x3C
			s.Memory[1] = 0x0F
			Expect(exec("&")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0x0C)))

			Expect(exec("|")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0x0F)))

			Expect(exec("^")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0x00)))
		})

		It("should combine a target with the current cell", func() {
			s.Memory[0] = 0xF0
			s.Memory[2] = 0xFF
			Expect(exec("(&@2)")).To(Succeed())
			Expect(s.Memory[2]).To(Equal(byte(0xF0)))
		})

		It("should shift and clear on wide shifts", func() {
			s.Memory[0] = 0x81
			Expect(exec("/")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0x40)))

			Expect(exec("(\\#2)")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0x00)))

			s.Memory[0] = 0xFF
			Expect(exec("(/#9)")).To(Succeed())
			Expect(s.Memory[0]).To(Equal(byte(0)))
		})
	})

	Context("Control flow", func() {
		var ie *instEmulator

		load := func(src string) *program.Program {
			p := program.MustDecode(src)
			ie = newInstEmulator(p, in, out, 0)
			return p
		}

		It("should skip a loop over a zero cell", func() {
			p := load("[+]-")
			s.IP = 0

			Expect(ie.RunInst(p.Instructions[0], &s)).To(Succeed())
			Expect(s.IP).To(Equal(2))
		})

		It("should enter a loop over a non-zero cell", func() {
			p := load("[+]-")
			s.Memory[0] = 1

			Expect(ie.RunInst(p.Instructions[0], &s)).To(Succeed())
			Expect(s.IP).To(Equal(0))
		})

		It("should repeat while the cell differs from the source", func() {
			p := load("[(]#3)")
			s.IP = 1
			s.Memory[0] = 2

			Expect(ie.RunInst(p.Instructions[1], &s)).To(Succeed())
			Expect(s.IP).To(Equal(0))

			s.IP = 1
			s.Memory[0] = 3
			Expect(ie.RunInst(p.Instructions[1], &s)).To(Succeed())
			Expect(s.IP).To(Equal(1))
		})

		It("should fault on an unbalanced bracket", func() {
			p := load("[+")

			Expect(ie.RunInst(p.Instructions[0], &s)).To(MatchError(program.ErrUnbalanced))
		})

		It("should land one before the label", func() {
			p := load("+(@here)-(!here)")
			s.IP = 2

			Expect(ie.RunInst(p.Instructions[2], &s)).To(Succeed())
			Expect(s.IP).To(Equal(0))
			Expect(s.ShadowIP).To(Equal(0))
		})

		It("should save the return site on a call", func() {
			p := load("+(!:sub)(@sub)-")
			s.IP = 1

			Expect(ie.RunInst(p.Instructions[1], &s)).To(Succeed())
			Expect(s.IP).To(Equal(1))
			Expect(s.ShadowIP).To(Equal(1))
		})

		It("should swap instruction pointers on a bare !", func() {
			p := load("+!")
			s.IP = 1
			s.ShadowIP = 7

			Expect(ie.RunInst(p.Instructions[1], &s)).To(Succeed())
			Expect(s.IP).To(Equal(7))
			Expect(s.ShadowIP).To(Equal(1))
		})

		It("should fault on an undefined label", func() {
			p := load("(!nowhere)")

			Expect(ie.RunInst(p.Instructions[0], &s)).To(MatchError(ErrUndefinedLabel))
		})
	})
})
