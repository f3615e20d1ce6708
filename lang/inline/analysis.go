package inline

import (
	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/resolver"
)

// analyzer is the first of the pass's two phases (spec.md §4.2): a
// recursive-descent walk that builds the scope tree, declares every
// binding, and counts reads and writes, without modifying the AST. It never
// fails - an identifier the resolver left unresolved (Ref == nil, or not a
// *resolver.Binding) is simply invisible to it, which is always the safe
// outcome (spec.md §4.4).
type analyzer struct {
	tree   *Tree
	consts *constants
	trace  TraceFunc
}

func (a *analyzer) tracef(event string, id *resolver.Binding, detail string) {
	if a.trace != nil {
		a.trace(event, id, detail)
	}
}

func (a *analyzer) program(prog *ast.Program) {
	a.tree.Enter(prog, KindModule)
	a.hoistVars(prog.Body)
	a.stmts(prog.Body)
	a.tree.Exit()
}

func (a *analyzer) block(node ast.Node, kind Kind, body []ast.Stmt) {
	a.tree.Enter(node, kind)
	a.stmts(body)
	a.tree.Exit()
}

// hoistVars pre-declares every `var` and function declaration reachable from
// body without crossing into a nested function, mirroring the resolver's own
// hoisting pass (lang/resolver's hoistVarsStmt). Without this, a read of a
// `var` that textually precedes its declaration (legal and common in
// JavaScript) would land before any Binding exists for it, silently
// discounting that read and corrupting the read count the rewrite phase
// relies on.
func (a *analyzer) hoistVars(body []ast.Stmt) {
	for _, s := range body {
		a.hoistVarsStmt(s)
	}
}

func (a *analyzer) hoistVarsStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		if s.Kind != ast.DeclVar {
			return
		}
		for _, d := range s.Decls {
			if id, ok := d.Id.Ref.(*resolver.Binding); ok {
				a.tree.DeclareVar(id)
			}
		}

	case *ast.FunctionDecl:
		if id, ok := s.Name.Ref.(*resolver.Binding); ok {
			a.tree.DeclareVar(id).markPrevented()
		}

	case *ast.BlockStmt:
		a.hoistVars(s.Body)

	case *ast.IfStmt:
		a.hoistVars(s.Then.Body)
		if s.Else != nil {
			a.hoistVars(s.Else.Body)
		}

	case *ast.ForStmt:
		if s.Init != nil {
			a.hoistVarsStmt(s.Init)
		}
		a.hoistVars(s.Body.Body)

	case *ast.ForInStmt:
		if s.Decl == ast.DeclVar {
			if id, ok := identRef(s.Left); ok {
				a.tree.DeclareVar(id)
			}
		}
		a.hoistVars(s.Body.Body)

	case *ast.ForOfStmt:
		if s.Decl == ast.DeclVar {
			if id, ok := identRef(s.Left); ok {
				a.tree.DeclareVar(id)
			}
		}
		a.hoistVars(s.Body.Body)

	case *ast.WhileStmt:
		a.hoistVars(s.Body.Body)

	case *ast.DoWhileStmt:
		a.hoistVars(s.Body.Body)

	case *ast.TryStmt:
		a.hoistVars(s.Block.Body)
		if s.Catch != nil {
			a.hoistVars(s.Catch.Body.Body)
		}
		if s.Finally != nil {
			a.hoistVars(s.Finally.Body)
		}
	}
}

func (a *analyzer) stmts(body []ast.Stmt) {
	for _, s := range body {
		a.stmt(s)
	}
}

func (a *analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		a.varDecl(s)

	case *ast.FunctionDecl:
		if id, ok := s.Name.Ref.(*resolver.Binding); ok {
			b := a.tree.DeclareVar(id)
			// A function declaration's own value is the function itself; this
			// implementation does not attempt to inline a function declaration
			// into its call sites, only function expressions assigned through a
			// declarator (spec.md §4.1's cheap-value classification only ever
			// covers literals and identifier references in the first place).
			b.markPrevented()
		}
		a.function(s.Body, s.Params, s.Body.Body)

	case *ast.BlockStmt:
		a.block(s, KindBlock, s.Body)

	case *ast.ExprStmt:
		a.expr(s.Expr)

	case *ast.IfStmt:
		a.expr(s.Cond)
		a.block(s.Then, KindConditional, s.Then.Body)
		if s.Else != nil {
			a.block(s.Else, KindConditional, s.Else.Body)
		}

	case *ast.ForStmt:
		if s.IsEmptyHead() {
			// for(;;): no condition or update to bound the analysis against, so
			// every currently visible binding becomes unsafe to inline across it
			// (spec.md §4.2's empty-head barrier).
			a.tracef("barrier", nil, "empty-head for loop")
			a.tree.StoreInlineBarrier()
		}
		a.tree.Enter(s, KindLoop)
		if s.Init != nil {
			a.stmt(s.Init)
		}
		if s.Cond != nil {
			a.expr(s.Cond)
		}
		if s.Post != nil {
			a.stmt(s.Post)
		}
		a.stmts(s.Body.Body)
		a.tree.Exit()

	case *ast.ForInStmt:
		a.expr(s.Right)
		a.tree.Enter(s, KindLoop)
		a.forHead(s.Left, s.Decl)
		a.stmts(s.Body.Body)
		a.tree.Exit()

	case *ast.ForOfStmt:
		a.expr(s.Right)
		a.tree.Enter(s, KindLoop)
		a.forHead(s.Left, s.Decl)
		a.stmts(s.Body.Body)
		a.tree.Exit()

	case *ast.WhileStmt:
		a.expr(s.Cond)
		a.block(s, KindLoop, s.Body.Body)

	case *ast.DoWhileStmt:
		a.block(s, KindLoop, s.Body.Body)
		a.expr(s.Cond)

	case *ast.TryStmt:
		// The guarded try-block may execute only partially before control
		// jumps to the handler, so every binding visible at this point is
		// treated as unsafe to inline across the try (an over-approximation of
		// spec.md §4.2's "every identifier mentioned is marked written from
		// child": rather than track exactly which outer identifiers the block
		// mentions, this implementation conservatively barriers all of them,
		// which is always at least as safe).
		a.tracef("barrier", nil, "try block")
		a.tree.StoreInlineBarrier()
		a.block(s.Block, KindBlock, s.Block.Body)
		if s.Catch != nil {
			a.tree.Enter(s.Catch, KindBlock)
			if s.Catch.Param != nil {
				if id, ok := s.Catch.Param.Ref.(*resolver.Binding); ok {
					// the caught value is not statically known, so the catch
					// parameter is never a candidate value.
					a.tree.Declare(id, resolver.KindCatchParam).markPrevented()
				}
			}
			a.stmts(s.Catch.Body.Body)
			a.tree.Exit()
		}
		if s.Finally != nil {
			a.block(s.Finally, KindBlock, s.Finally.Body)
		}

	case *ast.ReturnStmt:
		if s.Arg != nil {
			a.expr(s.Arg)
		}

	case *ast.BreakStmt, *ast.ContinueStmt:
		// nothing to analyze

	case *ast.ThrowStmt:
		a.expr(s.Arg)
	}
}

// forHead handles a for-in/for-of loop's left-hand target. ast.DeclVar is
// DeclKind's zero value, and covers two distinct shapes the same way the
// resolver does (see resolver.go's ForInStmt/ForOfStmt handling): an actual
// `for (var x in xs)`, whose binding was already hoisted by hoistVars, and a
// bare `for (x in xs)` reusing a pre-existing binding. Either way this is a
// write to an existing binding, not a fresh declaration - declaring a new
// one here would shadow the real binding within the loop's own scope and
// leave the outer binding looking never-written after the loop exits. A
// `let`/`const` target, by contrast, is always a fresh per-iteration
// binding. The iteration value itself is never a literal or identifier
// reference, so it can never be a cheap value either way.
func (a *analyzer) forHead(left ast.Expr, kind ast.DeclKind) {
	id, ok := identRef(left)
	if !ok {
		a.preventAllIdents(left)
		return
	}
	var b *Binding
	if kind == ast.DeclVar {
		b, ok = a.tree.Find(id)
		if !ok {
			return
		}
	} else {
		b = a.tree.Declare(id, declResolverKind(kind))
	}
	a.tree.AddRead(id)
	b.WriteCount++
	b.markPrevented()
}

// preventAllIdents walks e, recording a read and an inline-prevention on
// every identifier reachable within it. Used where a write's target or
// source cannot be attributed to a single binding the pass can reason about
// (a member-expression assignment target, a `delete` operand): every
// binding aliasable through it is barred from substitution.
func (a *analyzer) preventAllIdents(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Identifier:
		if id, ok := e.Ref.(*resolver.Binding); ok {
			a.tree.AddRead(id)
			a.tree.PreventInline(id)
		}

	case *ast.MemberExpr:
		a.preventAllIdents(e.Object)
		if e.Computed {
			a.preventAllIdents(e.Property)
		}

	case *ast.ParenExpr:
		a.preventAllIdents(e.Expr)

	case *ast.BinaryExpr:
		a.preventAllIdents(e.Left)
		a.preventAllIdents(e.Right)

	case *ast.LogicalExpr:
		a.preventAllIdents(e.Left)
		a.preventAllIdents(e.Right)

	case *ast.UnaryExpr:
		a.preventAllIdents(e.Operand)

	case *ast.ConditionalExpr:
		a.preventAllIdents(e.Cond)
		a.preventAllIdents(e.Cons)
		a.preventAllIdents(e.Alt)

	case *ast.CallExpr:
		// An ordinary call's barrier exempts its own callee and bare-identifier
		// arguments; here they are prevented like every other identifier.
		a.preventAllIdents(e.Callee)
		for _, arg := range e.Args {
			a.preventAllIdents(arg)
		}
		a.tree.StoreInlineBarrier()

	case *ast.NewExpr:
		a.preventAllIdents(e.Callee)
		for _, arg := range e.Args {
			a.preventAllIdents(arg)
		}
		a.tree.StoreInlineBarrier()

	default:
		// Function expressions, literals, `this`, updates and assignments:
		// analyzed the ordinary way.
		a.expr(e)
	}
}

func identRef(e ast.Expr) (*resolver.Binding, bool) {
	id, ok := e.(*ast.Identifier)
	if !ok {
		return nil, false
	}
	b, ok := id.Ref.(*resolver.Binding)
	return b, ok
}

func declResolverKind(k ast.DeclKind) resolver.Kind {
	switch k {
	case ast.DeclConst:
		return resolver.KindConst
	case ast.DeclLet:
		return resolver.KindLet
	default:
		return resolver.KindVar
	}
}

func (a *analyzer) function(node ast.Node, params []*ast.Identifier, body []ast.Stmt) {
	a.tree.Enter(node, KindFunction)
	for _, p := range params {
		if id, ok := p.Ref.(*resolver.Binding); ok {
			b := a.tree.Declare(id, resolver.KindParam)
			// a parameter's initial value is whatever the caller passed, which
			// this pass has no visibility into; it is never a candidate value.
			b.markPrevented()
		}
	}
	a.hoistVars(body)
	a.stmts(body)
	a.tree.Exit()
}

func (a *analyzer) varDecl(s *ast.VarDeclStmt) {
	kind := declResolverKind(s.Kind)
	for _, d := range s.Decls {
		if d.Init != nil {
			a.expr(d.Init)
		}
		id, ok := d.Id.Ref.(*resolver.Binding)
		if !ok {
			continue
		}
		var b *Binding
		if s.Kind == ast.DeclVar {
			b = a.tree.DeclareVar(id)
		} else if existing, existed := a.tree.FindInCurrent(id); existed {
			b = existing
		} else {
			b = a.tree.Declare(id, kind)
		}
		a.declareValue(b, d.Init)
		a.tracef("declare", id, s.Kind.String())
		if s.Kind == ast.DeclConst && d.Init != nil && isCheapValue(d.Init) {
			// The first-run constants map only ever holds const bindings with a
			// literal or identifier initializer (spec.md §9): a const can never
			// be reassigned, so this value is valid for the program's entire
			// lifetime and need not be recomputed on later driver iterations.
			a.consts.observe(id, d.Init)
		}
	}
}

// declareValue implements spec.md §4.2's declarator rule: a literal or
// identifier-reference initializer is stored as a cheap value (whether an
// identifier reference's source is written later is checked at rewrite
// time, not here);
// any other initializer is still stored, for the single-read declarator
// rule of spec.md §4.3, but only after checking whether it itself contains
// `this` - in which case inlining it anywhere else could change what `this`
// means, so the binding is prevented outright.
func (a *analyzer) declareValue(b *Binding, init ast.Expr) {
	if init == nil {
		b.IsUndefined = true
		return
	}
	b.Value = init
	b.IsUndefined = false
	// A value stored from inside a loop body that lies between the current
	// scope and the binding's own scope is never inlined: the loop may run
	// any number of times, including zero.
	for s := a.tree.cur; s != nil; s = s.parent {
		if _, home := s.bindings.Get(b.Id); home {
			break
		}
		if s.kind == KindLoop {
			b.markPrevented()
			break
		}
	}
	if !isCheapValue(init) {
		if containsThis(init) {
			b.markPrevented()
		}
		return
	}
	b.cheap = true
	if containsThis(init) {
		b.ThisSensitive = true
	}
	// Whether this cheap identifier-reference value remains safe to copy to
	// other read sites depends on whether its source ever gets written later
	// in this same walk - information analysis (a single forward pass) does
	// not yet have at this point. That check happens at rewrite time instead
	// (see identifier()'s alias-safety check), once the whole scope's write
	// counts are known.
	unwrapped := ast.Unwrap(init)
	if _, ok := unwrapped.(*ast.UndefinedExpr); ok {
		b.IsUndefined = true
	}
}

func (a *analyzer) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Identifier:
		if id, ok := e.Ref.(*resolver.Binding); ok {
			a.tree.AddRead(id)
		}

	case *ast.Literal, *ast.UndefinedExpr, *ast.ThisExpr:
		// leaves

	case *ast.BinaryExpr:
		a.expr(e.Left)
		a.expr(e.Right)

	case *ast.LogicalExpr:
		// Only the left operand is descended into: the right operand may not
		// execute at all (short-circuiting), so treating it as unconditionally
		// reached would overstate what this branch of the program actually
		// does. The rewrite walker still descends both sides normally.
		a.expr(e.Left)

	case *ast.UnaryExpr:
		if e.Op == "delete" {
			a.preventAllIdents(e.Operand)
			return
		}
		a.expr(e.Operand)

	case *ast.UpdateExpr:
		a.updateOrAssignTarget(e.Operand)

	case *ast.AssignExpr:
		if _, ok := identRef(e.Left); ok {
			a.expr(e.Right)
			if e.Op != "=" {
				// compound assignment reads the prior value too
				if id, ok := identRef(e.Left); ok {
					a.tree.AddRead(id)
				}
			}
			a.assignTarget(e)
		} else {
			// A member-expression (or other non-identifier) assignment target:
			// the pass cannot attribute the write to a single binding, so every
			// identifier touched by either side is prevented from substitution.
			a.preventAllIdents(e.Left)
			a.preventAllIdents(e.Right)
		}

	case *ast.CallExpr:
		a.call(e.Callee, e.Args)

	case *ast.NewExpr:
		a.call(e.Callee, e.Args)

	case *ast.MemberExpr:
		a.expr(e.Object)
		if e.Computed {
			a.expr(e.Property)
		}

	case *ast.ConditionalExpr:
		a.expr(e.Cond)
		a.expr(e.Cons)
		a.expr(e.Alt)

	case *ast.FunctionExpr:
		a.function(e.Body, e.Params, e.Body.Body)

	case *ast.ParenExpr:
		a.expr(e.Expr)
	}
}

// updateOrAssignTarget handles an operand that is both read and written
// (++/--): it counts a read, then prevents the binding outright - the
// updated value is never a literal or identifier reference (spec.md §4.2's
// "the updated identifier is written-from-child").
func (a *analyzer) updateOrAssignTarget(target ast.Expr) {
	id, ok := identRef(target)
	if !ok {
		a.preventAllIdents(target)
		return
	}
	a.tree.AddRead(id)
	if b, ok := a.tree.Find(id); ok {
		b.WriteCount++
		b.markPrevented()
	}
}

// assignTarget applies spec.md §4.2/§4.3's simple-assignment rule to `x = e`
// or a compound `x op= e`, where e.Left has already been confirmed to be a
// bare identifier. Compound assignment always prevents the binding - it
// reads the old value as part of computing the new one, which this pass has
// already over-approximated as a read (see the AssignExpr case in expr).
// A plain `=` only overwrites the binding's tracked value when no read of it
// has been recorded yet: a single Value field cannot represent "was X up to
// here, is Y after" across independent read occurrences, so once a read has
// already been counted, a later reassignment must prevent the binding rather
// than silently change what that earlier read would be substituted with.
func (a *analyzer) assignTarget(e *ast.AssignExpr) {
	id, ok := identRef(e.Left)
	if !ok {
		return
	}
	b, ok := a.tree.Find(id)
	if !ok {
		return
	}
	b.WriteCount++
	if e.Op != "=" {
		b.markPrevented()
		return
	}
	if b.ReadCount > 0 {
		b.markPrevented()
		return
	}
	wasUndefined := b.IsUndefined
	a.declareValue(b, e.Right)
	if wasUndefined {
		// This assignment is the one that first gave the binding a value; the
		// rewrite phase uses this to collapse the whole assignment expression
		// down to e.Right (spec.md §4.3's undefined-sentinel assignment rule).
		b.clearedUndefinedBy = e
	}
}

// call handles both CallExpr and NewExpr: the callee is marked
// this-sensitive when it is a bare identifier (spec.md §4.1's
// mark_this_sensitive), every argument is walked, and an inline barrier is
// raised afterward, since a call or construction can run arbitrary code
// that this pass has no visibility into. The callee and any bare-identifier
// arguments are exempted from that barrier: they are read and evaluated
// before the call's own side effects can run, so the call cannot have
// invalidated the very values it was just given.
func (a *analyzer) call(callee ast.Expr, args []ast.Expr) {
	except := make(map[*resolver.Binding]bool)
	if id, ok := identRef(callee); ok {
		a.tree.AddRead(id)
		a.tree.MarkThisSensitive(id)
		except[id] = true
	} else {
		a.expr(callee)
	}
	for _, arg := range args {
		if id, ok := identRef(arg); ok {
			a.tree.AddRead(id)
			except[id] = true
		} else {
			a.expr(arg)
		}
	}
	a.tracef("barrier", nil, "call or construction")
	a.tree.StoreInlineBarrierExcept(except)
}
