// Package driver runs a RepeatablePass to a fixed point: spec.md §6's outer
// loop, kept separate from lang/inline itself so the pass stays a single
// analyze-then-rewrite cycle and knows nothing about iteration counts or
// caps.
package driver

import (
	"context"

	"github.com/mna/jsinline/lang/ast"
)

// RepeatablePass is anything RunToFixedPoint can drive: one Fold call mutates
// prog and reports, via Changed, whether it did anything. lang/inline.Pass
// satisfies this.
type RepeatablePass interface {
	Fold(p *ast.Program) *ast.Program
	Changed() bool
	Reset()
}

// RunToFixedPoint repeatedly runs every pass in passes, in order, against
// prog until a full pass over the whole list leaves every pass reporting
// Changed() == false, or maxIterations rounds have run without reaching that
// point. It returns the (mutated in place) program, the number of rounds
// actually run, and a non-nil error if maxIterations was exceeded or ctx was
// cancelled.
//
// ctx is checked once per outer round, never inside a single pass's Fold
// call - a pass itself stays synchronous and uninterruptible (spec.md §5),
// this only lets a caller abandon a long maxIterations loop over a
// pathological AST between rounds, mirroring the teacher's own
// context-threaded-but-synchronous ResolveFiles/ParseFiles entry points.
//
// spec.md §8 proves termination for a single pass run in isolation (every
// round strictly shrinks or simplifies the program, and a program has only
// finitely many nodes to remove); maxIterations is a defensive cap against
// that proof not holding for some combination of passes, or against a bug,
// not a limit this implementation expects to hit in practice.
func RunToFixedPoint(ctx context.Context, passes []RepeatablePass, prog *ast.Program, maxIterations int) (*ast.Program, int, error) {
	for round := 1; round <= maxIterations; round++ {
		if err := ctx.Err(); err != nil {
			return prog, round - 1, err
		}
		changed := false
		for _, p := range passes {
			p.Reset()
			prog = p.Fold(prog)
			if p.Changed() {
				changed = true
			}
		}
		if !changed {
			return prog, round, nil
		}
	}
	return prog, maxIterations, &FixedPointError{MaxIterations: maxIterations}
}

// FixedPointError is returned by RunToFixedPoint when maxIterations rounds
// ran without every pass reporting Changed() == false.
type FixedPointError struct {
	MaxIterations int
}

func (e *FixedPointError) Error() string {
	return "driver: did not reach a fixed point within the iteration cap"
}
