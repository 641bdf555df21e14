package verify

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ebf/instr"
	"github.com/sarchlab/ebf/program"
)

// RunLint performs static lint checks on a program.
// It validates structure (STRUCT) and control flow (FLOW).
// Returns a list of issues found, or empty list if no issues.
func RunLint(p *program.Program) []Issue {
	var issues []Issue

	// STRUCT: bracket balance
	pairs, err := program.MatchAll(p)
	if err != nil {
		issues = append(issues, bracketIssue(err))
		pairs = nil
	}

	// STRUCT: every jump and call names a defined label
	used := make(map[string]bool)
	hasCall := false
	for i, inst := range p.Instructions {
		if !inst.IsJump() {
			continue
		}

		used[inst.Label] = true
		hasCall = hasCall || inst.Save

		if _, ok := p.Labels.Lookup(inst.Label); !ok {
			issues = append(issues, Issue{
				Type:    IssueStruct,
				Pos:     i,
				Offset:  inst.Pos,
				Message: fmt.Sprintf("Undefined label %q in %s", inst.Label, inst),
				Details: map[string]interface{}{"label": inst.Label},
			})
		}
	}

	issues = append(issues, checkFlow(p, pairs, used, hasCall)...)

	return issues
}

func bracketIssue(err error) Issue {
	issue := Issue{
		Type:    IssueStruct,
		Pos:     -1,
		Offset:  -1,
		Message: fmt.Sprintf("Unbalanced brackets: %v", err),
	}

	var mismatch *program.MismatchError
	if errors.As(err, &mismatch) {
		issue.Pos = mismatch.Index
		issue.Offset = mismatch.Inst.Pos
		issue.Details = map[string]interface{}{"bracket": mismatch.Inst.String()}
	}

	return issue
}

// checkFlow reports constructs that run but rarely mean what the author
// wanted. pairs is nil when the brackets do not balance.
func checkFlow(
	p *program.Program,
	pairs []int,
	used map[string]bool,
	hasCall bool,
) []Issue {
	var issues []Issue

	for _, name := range sortedLabels(p) {
		if used[name] {
			continue
		}

		idx, _ := p.Labels.Lookup(name)
		issues = append(issues, Issue{
			Type:    IssueFlow,
			Pos:     idx,
			Offset:  -1,
			Message: fmt.Sprintf("Label %q is never jumped to", name),
			Details: map[string]interface{}{"label": name},
		})
	}

	if !hasCall {
		for i, inst := range p.Instructions {
			if inst.Glyph != instr.SwapInst || inst.IsJump() {
				continue
			}

			issues = append(issues, Issue{
				Type:    IssueFlow,
				Pos:     i,
				Offset:  inst.Pos,
				Message: "Return with no call in the program resumes at instruction 1",
			})
		}
	}

	if pairs != nil {
		issues = append(issues, checkLoopEntry(p, pairs)...)
	}

	return issues
}

// checkLoopEntry flags jumps whose label sits strictly inside a loop the jump
// is not already in.
func checkLoopEntry(p *program.Program, pairs []int) []Issue {
	var issues []Issue

	for i, inst := range p.Instructions {
		if !inst.IsJump() {
			continue
		}

		target, ok := p.Labels.Lookup(inst.Label)
		if !ok {
			continue
		}

		for open, partner := range pairs {
			if p.Instructions[open].Glyph != instr.LoopOpen {
				continue
			}

			inside := func(x int) bool { return x > open && x <= partner }
			if inside(target) && !inside(i) {
				issues = append(issues, Issue{
					Type:    IssueFlow,
					Pos:     i,
					Offset:  inst.Pos,
					Message: fmt.Sprintf("%s enters the loop opened at instruction %d", inst, open),
					Details: map[string]interface{}{
						"label":     inst.Label,
						"loopOpen":  open,
						"loopClose": partner,
					},
				})
				break
			}
		}
	}

	return issues
}

func sortedLabels(p *program.Program) []string {
	var names []string
	for idx := 0; idx <= p.Len(); idx++ {
		names = append(names, p.Labels.At(idx)...)
	}
	return names
}
