// Some helpers using closures to generate values and EBF programs
package valgen

import "strings"

func MakeConstGen(constant int) func() int {
	return func() int {
		return constant
	}
}

func MakeIncreasingGen(start int) func() int {
	current := start
	return func() int {
		current++
		return current
	}
}

// MakeLCGGen returns a deterministic pseudo-random generator of non-negative
// ints. The same seed always yields the same sequence.
func MakeLCGGen(seed uint32) func() int {
	state := seed
	return func() int {
		state = state*1664525 + 1013904223
		return int(state >> 8)
	}
}

// MakeBytesGen returns n bytes drawn from gen.
func MakeBytesGen(gen func() int, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(gen())
	}
	return out
}

var forms = []string{
	"+", "-", ">", "<", ".", ",", "~", "&", "|", "^", "/", "\\", "%",
	"(+@3)", "(-@:2)", "(+#:*1)", "(-#7)", "(.#0x41)", "(.@:1)",
	"(,@:*2)", "(,#-1)", "(>@%)", "(<#:0)", "(&@:1)", "(|#0x0f)",
	"(^@*4)", "(/#:1)", "(\\@2)", "(~@:3)", "(~#:*0)", "(>@5)",
	"(<@:2)", "(>@:-1)", "(<@:*1)", "(>@:*0)",
}

var opens = []string{"[", "([#1)", "([@:1)", "([#:*0)"}

var closes = []string{"]", "(]#1)", "(]@:1)", "(]#:0)"}

// MakeProgram builds a well-formed program of roughly n forms. Loops are
// always balanced and every jump names a defined label. Generated programs
// need not halt, so callers should bound their runs.
func MakeProgram(gen func() int, n int) string {
	var sb strings.Builder

	withCall := gen()%3 == 0
	if withCall {
		sb.WriteString("(!:sub)")
	}

	writeBody(&sb, gen, n, 0)

	if withCall {
		sb.WriteString("(!end)(@sub)")
		writeBody(&sb, gen, n/3+1, 0)
		sb.WriteString("!(@end)")
	}

	return sb.String()
}

func writeBody(sb *strings.Builder, gen func() int, n, depth int) {
	for i := 0; i < n; i++ {
		if depth < 2 && gen()%6 == 0 {
			sb.WriteString(opens[gen()%len(opens)])
			writeBody(sb, gen, n/2, depth+1)
			sb.WriteString(closes[gen()%len(closes)])
			continue
		}

		sb.WriteString(forms[gen()%len(forms)])
	}
}
