// Package inline implements the variable-inlining minification pass: a
// two-phase (analyze, then rewrite), scope-aware dataflow pass that
// replaces local-variable reads with their definitions whenever doing so is
// provably safe, shrinking the program without changing its behavior.
//
// A Pass does not, by itself, repeat until no further change is possible -
// see lang/driver for the outer loop that re-runs a Pass to a fixed point.
package inline

import (
	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/resolver"
)

// TraceFunc is called for every decision the pass records against a
// binding, when non-nil: "declare", "barrier", "substitute", "elide". It
// exists for diagnostics and tests; a nil
// TraceFunc costs nothing beyond a nil check.
type TraceFunc func(event string, id *resolver.Binding, detail string)

// Pass is the variable-inlining pass. The zero value is not usable; create
// one with New. A Pass is not safe for concurrent use - each Fold call
// mutates pass-owned state (spec.md §5).
type Pass struct {
	// Trace, if set, receives a call for every binding-level decision the
	// pass makes. It is never called from more than one goroutine.
	Trace TraceFunc

	consts   *constants
	firstRun bool
	changed  bool
}

// New returns a Pass ready for repeated Fold calls. cfg is accepted for
// forward compatibility with spec.md §6's configuration contract; Config is
// empty today, so every call behaves identically regardless of cfg's value.
func New(cfg Config) *Pass {
	return &Pass{consts: newConstants(), firstRun: true}
}

// Fold runs one full analyze-then-rewrite cycle over prog and returns it
// (the same *ast.Program, mutated in place). Call Changed after Fold to
// learn whether anything was substituted or elided; a RepeatablePass driver
// (lang/driver) uses this to decide whether another Fold call could still
// make progress.
func (p *Pass) Fold(prog *ast.Program) *ast.Program {
	p.changed = false

	tree := newTree()
	a := &analyzer{tree: tree, consts: p.consts, trace: p.Trace}
	a.program(prog)

	if p.firstRun {
		p.consts.freeze()
		p.firstRun = false
	}

	rw := &rewriter{tree: tree, consts: p.consts, trace: p.Trace}
	rw.program(prog)
	p.changed = rw.changed

	return prog
}

// Changed reports whether the most recent Fold call substituted or elided
// anything.
func (p *Pass) Changed() bool { return p.changed }

// Reset clears the Changed flag. It does not forget the first-run constants
// map - spec.md §9 explicitly scopes that table to the Pass's whole
// lifetime, not to a single Fold call.
func (p *Pass) Reset() { p.changed = false }
