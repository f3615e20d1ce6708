package inline

import (
	"github.com/dolthub/swiss"

	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/resolver"
)

// Kind classifies the lexical shape of a Scope, mirroring spec.md §4.1's
// scope-tree node tags.
type Kind uint8

const (
	KindModule Kind = iota
	KindFunction
	KindBlock
	KindConditional
	KindLoop
)

// Scope is one node of the scope tree spec.md §4.1 describes: a stack frame
// of Binding records, linked to its lexically enclosing parent. A Tree
// rebuilds the whole chain of Scopes from scratch on every Pass.Fold call -
// no Scope outlives the run that created it.
type Scope struct {
	kind   Kind
	parent *Scope

	// bindings maps a resolved identifier to the run-local Binding record
	// declared directly in this scope. Keyed by *resolver.Binding pointer
	// identity, per spec.md §3.
	bindings *swiss.Map[*resolver.Binding, *Binding]
}

func newScope(kind Kind, parent *Scope) *Scope {
	return &Scope{kind: kind, parent: parent, bindings: swiss.NewMap[*resolver.Binding, *Binding](4)}
}

// Tree owns the scope chain built by the analysis walker and consulted
// read-only by the rewrite walker. A
// single Tree is shared by both walkers within one Pass.Fold call: the
// rewrite walker re-enters the exact scopes the analysis walker built by
// looking them up in byNode rather than rebuilding them, so both phases see
// the same Binding records.
type Tree struct {
	root *Scope
	cur  *Scope

	// byNode anchors each Scope to the AST node that introduced it (the
	// Program, a BlockStmt, or a FunctionExpr/FunctionDecl's body) so the
	// rewrite walker can borrow the analysis walker's scope instead of
	// recomputing it.
	byNode map[ast.Node]*Scope
}

func newTree() *Tree {
	return &Tree{byNode: make(map[ast.Node]*Scope)}
}

// Enter pushes a new child scope of kind, associates it with node (for later
// lookup by EnterFor), and makes it current.
func (t *Tree) Enter(node ast.Node, kind Kind) *Scope {
	s := newScope(kind, t.cur)
	t.cur = s
	t.byNode[node] = s
	if t.root == nil {
		t.root = s
	}
	return s
}

// Exit pops the current scope.
func (t *Tree) Exit() { t.cur = t.cur.parent }

// EnterFor re-enters the scope previously associated with node by Enter,
// making it current. Used by the rewrite walker to borrow the scope tree
// the analysis walker already built.
func (t *Tree) EnterFor(node ast.Node) *Scope {
	s, ok := t.byNode[node]
	if !ok {
		panic("inline: no scope recorded for node; analysis and rewrite walkers have diverged")
	}
	t.cur = s
	return s
}

// Current returns the scope currently active.
func (t *Tree) Current() *Scope { return t.cur }

// Declare installs a new Binding for id directly in the current scope,
// overwriting any prior record for the same id in this scope (redeclaration
// within a single run never happens for a well-resolved program, but var's
// own semantics make it harmless if it did).
func (t *Tree) Declare(id *resolver.Binding, kind resolver.Kind) *Binding {
	b := &Binding{Id: id, Kind: kind, IsUndefined: true}
	t.cur.bindings.Put(id, b)
	return b
}

// enclosingFunction returns the nearest scope (possibly the current one)
// that is a function or module scope - the target of var hoisting.
func (t *Tree) enclosingFunction() *Scope {
	for s := t.cur; s != nil; s = s.parent {
		if s.kind == KindFunction || s.kind == KindModule {
			return s
		}
	}
	return t.cur
}

// DeclareVar installs (or finds) id's Binding in the nearest enclosing
// function or module scope, mirroring `var`'s hoisting semantics so a read
// of it anywhere in that function is visible regardless of which nested
// block declared it.
func (t *Tree) DeclareVar(id *resolver.Binding) *Binding {
	s := t.enclosingFunction()
	if b, ok := s.bindings.Get(id); ok {
		return b
	}
	b := &Binding{Id: id, Kind: resolver.KindVar, IsUndefined: true}
	s.bindings.Put(id, b)
	return b
}

// Find walks the scope chain outward from the current scope and returns the
// Binding record for id, if any is visible.
func (t *Tree) Find(id *resolver.Binding) (*Binding, bool) {
	for s := t.cur; s != nil; s = s.parent {
		if b, ok := s.bindings.Get(id); ok {
			return b, true
		}
	}
	return nil, false
}

// FindInCurrent returns the Binding declared directly in the current scope,
// without walking outward.
func (t *Tree) FindInCurrent(id *resolver.Binding) (*Binding, bool) {
	return t.cur.bindings.Get(id)
}

// AddRead records a read of id's binding, if one is visible.
func (t *Tree) AddRead(id *resolver.Binding) {
	if b, ok := t.Find(id); ok {
		b.ReadCount++
	}
}

// PreventInline marks id's binding inline-prevented, if visible. A no-op if
// id resolves to nothing in scope (can happen for identifiers the resolver
// left unresolved in a program that failed to resolve cleanly - the pass
// itself never errors, see spec.md §4.4).
func (t *Tree) PreventInline(id *resolver.Binding) {
	if b, ok := t.Find(id); ok {
		b.markPrevented()
	}
}

// MarkThisSensitive flags id's binding as this-sensitive, if visible.
func (t *Tree) MarkThisSensitive(id *resolver.Binding) {
	if b, ok := t.Find(id); ok {
		b.ThisSensitive = true
	}
}

// StoreInlineBarrier is the central safety hammer (spec.md §4.1, §4.2): it
// marks every binding visible from the current scope - in every scope from
// here to the root - as inline-prevented. Called where value-flow can no
// longer be tracked: an empty-head for(;;) loop, a try statement, or a call
// or construction inside a member-target assignment or `delete` operand.
// An ordinary call or construction uses StoreInlineBarrierExcept instead.
func (t *Tree) StoreInlineBarrier() {
	t.StoreInlineBarrierExcept(nil)
}

// StoreInlineBarrierExcept behaves like StoreInlineBarrier but leaves every
// binding in except untouched. A call's own callee and bare-identifier
// arguments are read and evaluated before the call's side effects can
// possibly run, so nothing the call itself does can have made those
// particular reads stale - only bindings the call did not directly read
// need to be sealed off against it.
func (t *Tree) StoreInlineBarrierExcept(except map[*resolver.Binding]bool) {
	for s := t.cur; s != nil; s = s.parent {
		s.bindings.Iter(func(id *resolver.Binding, b *Binding) (stop bool) {
			if except[id] {
				return false
			}
			b.markPrevented()
			return false
		})
	}
}
