package instr

// Combine applies a read-modify-write glyph to a cell value and a source
// value. Arithmetic wraps at 256 and bitwise operands are masked to a byte.
// Shifting by a negative amount or by 8 or more clears the cell.
func Combine(g Glyph, cell byte, src int) byte {
	switch g {
	case Inc:
		return byte(int(cell) + src)
	case Dec:
		return byte(int(cell) - src)
	case And:
		return cell & byte(src)
	case Or:
		return cell | byte(src)
	case Xor:
		return cell ^ byte(src)
	case ShiftRight:
		if src < 0 || src >= 8 {
			return 0
		}
		return cell >> uint(src)
	case ShiftLeft:
		if src < 0 || src >= 8 {
			return 0
		}
		return cell << uint(src)
	default:
		return cell
	}
}

// Combines reports whether the glyph is handled by Combine.
func (g Glyph) Combines() bool {
	switch g {
	case Inc, Dec, And, Or, Xor, ShiftRight, ShiftLeft:
		return true
	}
	return false
}
