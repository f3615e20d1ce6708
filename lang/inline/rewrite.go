package inline

import (
	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/resolver"
)

// rewriter is the second phase (spec.md §4.3): a recursive-descent walk
// that re-enters the exact scopes the analyzer built (via Tree.EnterFor)
// and substitutes identifier reads with their recorded values wherever
// doing so is safe, eliding declarators left with nothing to declare.
type rewriter struct {
	tree    *Tree
	consts  *constants
	trace   TraceFunc
	changed bool
}

func (rw *rewriter) tracef(event string, id *resolver.Binding, detail string) {
	if rw.trace != nil {
		rw.trace(event, id, detail)
	}
}

func (rw *rewriter) program(prog *ast.Program) {
	rw.tree.EnterFor(prog)
	prog.Body = rw.stmts(prog.Body)
	rw.tree.Exit()
}

// stmts rewrites body in place and drops any VarDeclStmt left with no
// declarators (every one of them elided).
func (rw *rewriter) stmts(body []ast.Stmt) []ast.Stmt {
	out := body[:0]
	for _, s := range body {
		rw.stmt(s)
		if decl, ok := s.(*ast.VarDeclStmt); ok && len(decl.Decls) == 0 {
			rw.changed = true
			rw.tracef("elide", nil, "empty var declaration statement")
			continue
		}
		out = append(out, s)
	}
	return out
}

func (rw *rewriter) block(node ast.Node, body []ast.Stmt) []ast.Stmt {
	rw.tree.EnterFor(node)
	body = rw.stmts(body)
	rw.tree.Exit()
	return body
}

func (rw *rewriter) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		rw.varDecl(s)

	case *ast.FunctionDecl:
		rw.function(s.Body)

	case *ast.BlockStmt:
		s.Body = rw.block(s, s.Body)

	case *ast.ExprStmt:
		s.Expr = rw.expr(s.Expr)

	case *ast.IfStmt:
		s.Cond = rw.expr(s.Cond)
		s.Then.Body = rw.block(s.Then, s.Then.Body)
		if s.Else != nil {
			s.Else.Body = rw.block(s.Else, s.Else.Body)
		}

	case *ast.ForStmt:
		rw.tree.EnterFor(s)
		if s.Init != nil {
			rw.stmt(s.Init)
			if decl, ok := s.Init.(*ast.VarDeclStmt); ok && len(decl.Decls) == 0 {
				s.Init = nil
				rw.changed = true
			}
		}
		if s.Cond != nil {
			s.Cond = rw.expr(s.Cond)
		}
		if s.Post != nil {
			rw.stmt(s.Post)
		}
		s.Body.Body = rw.stmts(s.Body.Body)
		rw.tree.Exit()

	case *ast.ForInStmt:
		s.Right = rw.expr(s.Right)
		rw.tree.EnterFor(s)
		s.Body.Body = rw.stmts(s.Body.Body)
		rw.tree.Exit()

	case *ast.ForOfStmt:
		s.Right = rw.expr(s.Right)
		rw.tree.EnterFor(s)
		s.Body.Body = rw.stmts(s.Body.Body)
		rw.tree.Exit()

	case *ast.WhileStmt:
		s.Cond = rw.expr(s.Cond)
		s.Body.Body = rw.block(s, s.Body.Body)

	case *ast.DoWhileStmt:
		s.Body.Body = rw.block(s, s.Body.Body)
		s.Cond = rw.expr(s.Cond)

	case *ast.TryStmt:
		// Conservative choice: the guarded block itself is never rewritten
		// (left exactly as analyzed), since a try body may run only partially;
		// the handler and finally blocks are ordinary blocks and rewritten
		// normally.
		if s.Catch != nil {
			rw.tree.EnterFor(s.Catch)
			s.Catch.Body.Body = rw.stmts(s.Catch.Body.Body)
			rw.tree.Exit()
		}
		if s.Finally != nil {
			s.Finally.Body = rw.block(s.Finally, s.Finally.Body)
		}

	case *ast.ReturnStmt:
		if s.Arg != nil {
			s.Arg = rw.expr(s.Arg)
		}

	case *ast.BreakStmt, *ast.ContinueStmt:
		// nothing to rewrite

	case *ast.ThrowStmt:
		s.Arg = rw.expr(s.Arg)
	}
}

func (rw *rewriter) function(body *ast.BlockStmt) {
	rw.tree.EnterFor(body)
	body.Body = rw.stmts(body.Body)
	rw.tree.Exit()
}

func (rw *rewriter) varDecl(s *ast.VarDeclStmt) {
	kept := s.Decls[:0]
	for _, d := range s.Decls {
		if d.Init != nil && !rw.isFirstRunConstDeclarator(s, d) {
			d.Init = rw.expr(d.Init)
		}
		if rw.elideDeclarator(s, d) {
			rw.changed = true
			if id, ok := d.Id.Ref.(*resolver.Binding); ok {
				rw.tracef("elide", id, "declarator")
			}
			continue
		}
		kept = append(kept, d)
	}
	s.Decls = kept
}

// isFirstRunConstDeclarator reports whether d is a const declarator whose
// value lives in the first-run constants map. Such a declarator's own Init
// is never rewritten: it is the one place in the program that remains the
// literal, human-written source of the value forever (spec.md §8's const
// boundary property - read sites substitute through consts.find instead, and
// do so with the value already fully resolved through any alias chain, per
// constants.observe - so the chain folds to its terminal value at every read
// in the very first run, without waiting for this declarator to be visited
// again on a later round).
func (rw *rewriter) isFirstRunConstDeclarator(s *ast.VarDeclStmt, d *ast.Declarator) bool {
	if s.Kind != ast.DeclConst {
		return false
	}
	id, ok := d.Id.Ref.(*resolver.Binding)
	if !ok {
		return false
	}
	_, ok = rw.consts.find(id)
	return ok
}

// elideDeclarator reports whether d's declarator can be dropped entirely.
// Mirrors spec.md §4.3's declarator rule precisely: a literal or identifier
// initializer is kept (the binding remains the canonical copy - see the
// const boundary property of spec.md §8, which leaves such a declaration in
// place for another pass to remove); only a non-cheap initializer read
// exactly once, with no intervening write, may have its declarator dropped
// and its initializer propagated to that single read site.
func (rw *rewriter) elideDeclarator(s *ast.VarDeclStmt, d *ast.Declarator) bool {
	if s.Kind == ast.DeclVar {
		// a `var` may be referenced anywhere in its function, including
		// before this declarator runs (hoisting); this implementation does
		// not attempt to prove a var dead, only let/const.
		return false
	}
	id, ok := d.Id.Ref.(*resolver.Binding)
	if !ok {
		return false
	}
	b, ok := rw.tree.FindInCurrent(id)
	if !ok || b.InlinePrevented || b.WriteCount != 0 || b.cheap {
		return false
	}
	return d.Init != nil && b.ReadCount == 1
}

func (rw *rewriter) expr(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.Identifier:
		return rw.identifier(e)

	case *ast.Literal, *ast.UndefinedExpr, *ast.ThisExpr:
		return e

	case *ast.BinaryExpr:
		e.Left = rw.expr(e.Left)
		e.Right = rw.expr(e.Right)
		return e

	case *ast.LogicalExpr:
		e.Left = rw.expr(e.Left)
		e.Right = rw.expr(e.Right)
		return e

	case *ast.UnaryExpr:
		e.Operand = rw.expr(e.Operand)
		return e

	case *ast.UpdateExpr:
		// never substituted: the operand must remain assignable.
		return e

	case *ast.AssignExpr:
		e.Right = rw.expr(e.Right)
		if id, isIdent := e.Left.(*ast.Identifier); isIdent {
			if collapsed := rw.collapseUndefinedAssign(id, e); collapsed != nil {
				return collapsed
			}
		} else if ast.IsAssignable(e.Left) {
			// a bare identifier target is never substituted (it must stay
			// assignable); a member expression target may still have its
			// object/computed property rewritten.
			e.Left = rw.expr(e.Left)
		}
		return e

	case *ast.CallExpr:
		e.Callee = rw.expr(e.Callee)
		for i, a := range e.Args {
			e.Args[i] = rw.expr(a)
		}
		return e

	case *ast.NewExpr:
		e.Callee = rw.expr(e.Callee)
		for i, a := range e.Args {
			e.Args[i] = rw.expr(a)
		}
		return e

	case *ast.MemberExpr:
		e.Object = rw.expr(e.Object)
		if e.Computed {
			e.Property = rw.expr(e.Property)
		}
		return e

	case *ast.ConditionalExpr:
		e.Cond = rw.expr(e.Cond)
		e.Cons = rw.expr(e.Cons)
		e.Alt = rw.expr(e.Alt)
		return e

	case *ast.FunctionExpr:
		rw.function(e.Body)
		return e

	case *ast.ParenExpr:
		e.Expr = rw.expr(e.Expr)
		return e

	default:
		return e
	}
}

// collapseUndefinedAssign implements spec.md §4.3's assignment rule: `x = e`
// collapses to just e (the already-rewritten right-hand side) when this
// AssignExpr is the specific one that first gave x a value while x held the
// undefined sentinel and had no prior reads (recorded on the binding by
// analysis as clearedUndefinedBy), and the binding is not inline-prevented.
// Returns nil when the rule does not apply, leaving e as an ordinary
// assignment expression.
func (rw *rewriter) collapseUndefinedAssign(id *ast.Identifier, e *ast.AssignExpr) ast.Expr {
	bdg, ok := id.Ref.(*resolver.Binding)
	if !ok {
		return nil
	}
	b, ok := rw.tree.Find(bdg)
	if !ok || b.InlinePrevented || b.clearedUndefinedBy != e {
		return nil
	}
	rw.changed = true
	rw.tracef("substitute", bdg, "assignment clearing undefined sentinel")
	return e.Right
}

// identifier is the substitution decision for a single identifier read:
// first-run constants always fold; otherwise a cheap value with zero
// writes substitutes at every read, and a non-cheap value only when read
// exactly once (the declarator rule, paired with elideDeclarator removing
// the now-redundant declaration). A `var`'s non-cheap value is never
// substituted, since elideDeclarator never drops a `var` declarator.
func (rw *rewriter) identifier(id *ast.Identifier) ast.Expr {
	bdg, ok := id.Ref.(*resolver.Binding)
	if !ok {
		return id
	}
	if v, ok := rw.consts.find(bdg); ok {
		rw.changed = true
		rw.tracef("substitute", bdg, "first-run constant")
		return v
	}
	b, ok := rw.tree.Find(bdg)
	if !ok || b.InlinePrevented {
		return id
	}
	if b.Value == nil {
		if b.IsUndefined && b.WriteCount == 0 {
			// Never written at all during this run: every read genuinely sees
			// the undefined sentinel, so each one substitutes independently
			// (spec.md §4.3's known-undefined identifier rule). A binding that
			// was undefined but has since been written is handled per-occurrence
			// by collapseUndefinedAssign instead, since a single Value field
			// cannot represent "was undefined here, is something else there".
			rw.changed = true
			rw.tracef("substitute", bdg, "known undefined")
			return ast.NewUndefined()
		}
		return id
	}
	if b.cheap {
		if alias, ok := ast.Unwrap(b.Value).(*ast.Identifier); ok {
			if ref, ok := alias.Ref.(*resolver.Binding); ok {
				if src, ok := rw.tree.Find(ref); ok && src.WriteCount != 0 {
					// b's value is itself a reference to another binding that gets
					// written somewhere in this walk (before or after this copy) -
					// copying that reference elsewhere could observe a different
					// value than the one this binding actually captured, so leave
					// this read alone. Analysis cannot know this in time (it is a
					// single forward pass); by rewrite time the whole scope's write
					// counts are final.
					return id
				}
			}
		}
		rw.changed = true
		rw.tracef("substitute", bdg, "cheap value")
		return b.Value
	}
	if b.WriteCount == 0 && b.ReadCount == 1 && b.Kind != resolver.KindVar {
		rw.changed = true
		rw.tracef("substitute", bdg, "single-read declarator")
		return b.Value
	}
	return id
}
