package lower_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ebf/lower"
	"github.com/sarchlab/ebf/program"
)

var _ = Describe("RenderC", func() {
	render := func(src string, opts lower.RenderOptions) string {
		stmts, err := lower.Lower(program.MustDecode(src))
		Expect(err).NotTo(HaveOccurred())

		text, err := lower.RenderC(stmts, opts)
		Expect(err).NotTo(HaveOccurred())
		return text
	}

	It("should render a translation unit with defaults", func() {
		text := render("++++++++[>++++++++<-]>.", lower.RenderOptions{})

		Expect(text).To(ContainSubstring("#define EBF_MEM_SIZE 1024"))
		Expect(text).To(ContainSubstring("typedef uint8_t ebf_cell;"))
		Expect(text).To(ContainSubstring("int main(void) {"))
		Expect(text).To(ContainSubstring("    MEM[DP] += 1;"))
		Expect(text).To(ContainSubstring("    while (MEM[DP] != 0) {"))
		Expect(text).To(ContainSubstring("        DP = EBF_WRAP(DP + 1);"))
		Expect(text).To(ContainSubstring("putchar((unsigned char)(MEM[DP]));"))
		Expect(text).To(HaveSuffix("    return 0;\n}\n"))
	})

	It("should render asymmetric loops with a guard", func() {
		text := render("[(]#3)", lower.RenderOptions{})

		Expect(text).To(ContainSubstring("if (MEM[DP] == 0) goto ebf_loop_end_0;"))
		Expect(text).To(ContainSubstring("} while (MEM[DP] != 3);"))
		Expect(text).To(ContainSubstring("ebf_loop_end_0:;"))
	})

	It("should render addressed cells with wrapping", func() {
		text := render("(+@:*5)(>#-2)", lower.RenderOptions{})

		Expect(text).To(ContainSubstring("MEM[EBF_WRAP(MEM[EBF_WRAP((DP + 5))])] += 1;"))
		Expect(text).To(ContainSubstring("DP = EBF_WRAP(DP + (-2));"))
	})

	It("should render returns as a dispatch over resume points", func() {
		text := render("(!:f)+(@f)!", lower.RenderOptions{})

		Expect(text).To(ContainSubstring("SIP = 0;\n    goto f;"))
		Expect(text).To(ContainSubstring("ebf_resume_1:;"))
		Expect(text).To(ContainSubstring("case 1: goto ebf_resume_1;"))
		Expect(text).To(ContainSubstring("case 3: goto ebf_resume_3;"))
	})

	It("should honor the configured options", func() {
		text := render(",", lower.RenderOptions{
			MemorySize:  64,
			CellWidth:   16,
			Endianness:  "big",
			EOF:         0xFF,
			InitHook:    "board_init",
			CleanupHook: "board_cleanup",
			FuncName:    "ebf_run",
			Includes:    []string{"board.h"},
		})

		Expect(text).To(ContainSubstring("#include <stdio.h>\n#include <board.h>\n"))
		Expect(text).To(ContainSubstring("#define EBF_MEM_SIZE 64"))
		Expect(text).To(ContainSubstring("#define EBF_EOF 255"))
		Expect(text).To(ContainSubstring("#define EBF_BYTE_ORDER_BIG 1"))
		Expect(text).To(ContainSubstring("typedef uint16_t ebf_cell;"))
		Expect(text).To(ContainSubstring("void board_init(void);"))
		Expect(text).To(ContainSubstring("int ebf_run(void) {\n    board_init();"))
		Expect(text).To(ContainSubstring("board_cleanup();\n    return 0;"))
		Expect(text).To(ContainSubstring("c == EOF ? EBF_EOF : (ebf_cell)c;"))
	})

	It("should reject unsupported cell widths", func() {
		_, err := lower.RenderC(nil, lower.RenderOptions{CellWidth: 12})
		Expect(err).To(HaveOccurred())
	})
})
