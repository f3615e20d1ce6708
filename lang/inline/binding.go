package inline

import (
	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/resolver"
)

// Binding is the per-(scope, Id) record of spec.md §3: everything the
// inlining pass has learned about a single declaration during the current
// run. It is rebuilt from scratch by the analysis walker on every call to
// Pass.Fold - cross-run lifetimes do not exist (the first-run constants map
// is the one exception, see constants.go).
type Binding struct {
	// Id is the resolved identifier this record describes.
	Id *resolver.Binding

	// Kind mirrors the declaring resolver.Binding's Kind, copied here so the
	// pass never has to cross back into the resolver package to classify a
	// record (spec.md §3's `kind` field).
	Kind resolver.Kind

	// Value is the expression currently associated with this binding: the
	// declaration initializer, updated in place by simple writes, or nil.
	Value ast.Expr

	ReadCount  int
	WriteCount int

	// IsUndefined is true iff Value is conceptually the literal undefined -
	// either because no initializer was ever given, or because the stored
	// value is the undefined literal itself (spec.md §3).
	IsUndefined bool

	// InlinePrevented is monotone: once true, never cleared within a run.
	InlinePrevented bool

	// ThisSensitive is true iff Value syntactically contains `this`, or the
	// binding was ever used as the callee of a call/new expression - set for
	// tracing/diagnostic purposes only. The hazard it names (calling a member
	// expression binds `this` to its object, unlike a bare identifier call)
	// never needs separate enforcement: every call or construction already
	// runs a StoreInlineBarrier that prevents every other binding visible at
	// that point (the callee and any bare-identifier arguments of that same
	// call are the one narrow exception - see scope.go's
	// StoreInlineBarrierExcept), so a binding read as the callee of one call
	// is still barred from substitution at any other read site by the time
	// any later call or barrier in the run is reached.
	ThisSensitive bool

	// cheap is true iff Value was a literal, the undefined literal, or an
	// identifier reference at the point it was stored (spec.md §4.1's
	// cheap-value classification). Cheap values may be substituted at every
	// read; non-cheap values may only be substituted under the single-read
	// declarator rule of spec.md §4.3.
	cheap bool

	// clearedUndefinedBy records the *ast.AssignExpr that first gave this
	// binding a value while it was still the undefined sentinel and had no
	// reads recorded yet. The rewrite phase collapses that specific
	// assignment expression down to its right-hand side (spec.md §4.3): `var
	// y; y = x;` becomes `var y; x;`. Keyed by node identity rather than by
	// re-deriving "was undefined" from Binding state at rewrite time, since a
	// later reassignment may have since moved Value on - the rewrite of this
	// one node stays correct regardless.
	clearedUndefinedBy ast.Expr
}

// markPrevented sets InlinePrevented. It is idempotent and safe to call
// whether or not the binding was already prevented (spec.md §3's
// monotonicity invariant: false -> true only, never the reverse).
func (b *Binding) markPrevented() { b.InlinePrevented = true }
