package inline

import (
	"github.com/dolthub/swiss"

	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/resolver"
)

// constants is the first-run constants map of spec.md §9: a flat, program-
// wide table of every `const` binding whose initializer is a literal or an
// identifier reference, built once on the pass's first Fold call and frozen
// afterward. Unlike the per-run scope tree, it survives across repeated
// Fold calls for the lifetime of a Pass, since a const's value can never
// change after its declaration - recomputing it every iteration would be
// wasted work for an answer that cannot differ.
type constants struct {
	m      *swiss.Map[*resolver.Binding, ast.Expr]
	frozen bool
}

func newConstants() *constants {
	return &constants{m: swiss.NewMap[*resolver.Binding, ast.Expr](8)}
}

// observe records id's constant value during the first run. A no-op once
// the table is frozen. If value is itself a reference to an earlier
// first-run constant, the chain is followed back to its terminal value
// before storing: declarations are observed in program order within a
// single analysis walk, so an earlier constant in a chain like
// `const a = 1; const b = a;` is already resolved by the time b is
// observed, and the whole chain collapses to its terminal value in this
// one run rather than one hop per driver round (spec.md §9, §4.3).
func (c *constants) observe(id *resolver.Binding, value ast.Expr) {
	if c.frozen {
		return
	}
	c.m.Put(id, c.resolve(value))
}

// resolve follows a chain of identifier-valued first-run constants back to
// its terminal (non-identifier, or not-itself-a-constant) value.
func (c *constants) resolve(value ast.Expr) ast.Expr {
	for {
		id, ok := ast.Unwrap(value).(*ast.Identifier)
		if !ok {
			return value
		}
		ref, ok := id.Ref.(*resolver.Binding)
		if !ok {
			return value
		}
		v, ok := c.m.Get(ref)
		if !ok {
			return value
		}
		value = v
	}
}

// freeze stops any further observe calls from taking effect. Called once,
// after the first Fold call completes.
func (c *constants) freeze() { c.frozen = true }

// find returns the folded value for id, if id names a first-run constant.
func (c *constants) find(id *resolver.Binding) (ast.Expr, bool) {
	return c.m.Get(id)
}
