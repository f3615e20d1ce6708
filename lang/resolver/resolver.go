package resolver

import (
	"fmt"
	"go/scanner"
	"go/token"

	"github.com/mna/jsinline/lang/ast"
)

// Resolve walks prog and assigns a *Binding to every ast.Identifier's Ref
// field. On success the returned error is nil. On failure (an identifier
// that refers to no visible binding, or a let/const redeclared in the same
// block), the returned error is a scanner.ErrorList, mirroring the
// teacher's own parser/resolver error convention (go/scanner.ErrorList,
// the same type the teacher's own
// lang/scanner package re-exported). Positions are synthetic (this module
// has no real source locations to report, since parsing is out of scope)
// and always report as line 1.
func Resolve(prog *ast.Program) error {
	var r resolver
	r.push(&block{isFunction: true})
	r.hoistAndResolveBody(prog.Body)
	r.pop()

	r.errors.Sort()
	if len(r.errors) == 0 {
		return nil
	}
	return r.errors.Err()
}

// block is one lexical scope: a function scope, the program scope, or any
// nested block/conditional-branch/loop-body/catch-body scope. Bindings
// declared directly in it live in its own map; lookup walks the parent
// chain.
type block struct {
	parent     *block
	isFunction bool
	bindings   map[string]*Binding
}

type resolver struct {
	env    *block
	errors scanner.ErrorList
}

func (r *resolver) push(b *block) {
	b.parent = r.env
	b.bindings = make(map[string]*Binding)
	r.env = b
}

func (r *resolver) pop() { r.env = r.env.parent }

func (r *resolver) enclosingFunction() *block {
	for b := r.env; b != nil; b = b.parent {
		if b.isFunction {
			return b
		}
	}
	return r.env
}

func (r *resolver) errorf(format string, args ...interface{}) {
	r.errors.Add(token.Position{Line: 1}, fmt.Sprintf(format, args...))
}

// declareIn declares ident as a new binding of the given kind directly in
// scope b (not necessarily r.env - var declarations install themselves in
// the enclosing function scope). Redeclaration with the same name in the
// same block just overwrites, matching `var`'s own redeclaration-is-fine
// semantics; callers that want stricter behavior (let/const) check first.
func (r *resolver) declareIn(b *block, ident *ast.Identifier, kind Kind) *Binding {
	bdg := &Binding{Name: ident.Name, Kind: kind, Decl: ident}
	b.bindings[ident.Name] = bdg
	ident.Ref = bdg
	return bdg
}

func (r *resolver) declareBlockScoped(ident *ast.Identifier, kind Kind) {
	if existing, ok := r.env.bindings[ident.Name]; ok && existing.Kind != KindVar {
		r.errorf("already declared in this block: %s", ident.Name)
		return
	}
	r.declareIn(r.env, ident, kind)
}

func (r *resolver) declareVar(ident *ast.Identifier) {
	fn := r.enclosingFunction()
	if existing, ok := fn.bindings[ident.Name]; ok && existing.Kind == KindVar {
		// every `var` of a name in one function is the same binding, even
		// when a nested block's own hoisting pass declares it again.
		ident.Ref = existing
		return
	}
	r.declareIn(fn, ident, KindVar)
}

func (r *resolver) use(ident *ast.Identifier) {
	for b := r.env; b != nil; b = b.parent {
		if bdg, ok := b.bindings[ident.Name]; ok {
			ident.Ref = bdg
			return
		}
	}
	r.errorf("undefined: %s", ident.Name)
}

// hoistAndResolveBody implements JS hoisting: every `var` and function
// declaration reachable without crossing a nested function boundary is
// declared before any statement in body is resolved, so forward references
// within the same function work. Block-scoped (let/const/catch-param)
// bindings are still declared in source order during the main walk.
func (r *resolver) hoistAndResolveBody(body []ast.Stmt) {
	r.hoistVars(body)
	for _, s := range body {
		r.stmt(s)
	}
}

func (r *resolver) hoistVars(body []ast.Stmt) {
	for _, s := range body {
		r.hoistVarsStmt(s)
	}
}

func (r *resolver) hoistVarsStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		if s.Kind == ast.DeclVar {
			for _, d := range s.Decls {
				r.declareVar(d.Id)
			}
		}
	case *ast.FunctionDecl:
		r.declareIn(r.env, s.Name, KindVar)
	case *ast.BlockStmt:
		r.hoistVars(s.Body)
	case *ast.IfStmt:
		r.hoistVars(s.Then.Body)
		if s.Else != nil {
			r.hoistVars(s.Else.Body)
		}
	case *ast.ForStmt:
		if init, ok := s.Init.(*ast.VarDeclStmt); ok {
			r.hoistVarsStmt(init)
		}
		r.hoistVars(s.Body.Body)
	case *ast.ForInStmt:
		if s.Decl == ast.DeclVar {
			if id, ok := s.Left.(*ast.Identifier); ok {
				r.declareVar(id)
			}
		}
		r.hoistVars(s.Body.Body)
	case *ast.ForOfStmt:
		if s.Decl == ast.DeclVar {
			if id, ok := s.Left.(*ast.Identifier); ok {
				r.declareVar(id)
			}
		}
		r.hoistVars(s.Body.Body)
	case *ast.WhileStmt:
		r.hoistVars(s.Body.Body)
	case *ast.DoWhileStmt:
		r.hoistVars(s.Body.Body)
	case *ast.TryStmt:
		r.hoistVars(s.Block.Body)
		if s.Catch != nil {
			r.hoistVars(s.Catch.Body.Body)
		}
		if s.Finally != nil {
			r.hoistVars(s.Finally.Body)
		}
	}
	// ExprStmt, ReturnStmt, BreakStmt, ContinueStmt, ThrowStmt declare
	// nothing directly; FunctionExpr/arrow bodies are resolved as their own
	// function scope later and never hoist through.
}

func (r *resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		for _, d := range s.Decls {
			if d.Init != nil {
				r.expr(d.Init)
			}
			if s.Kind != ast.DeclVar {
				r.declareBlockScoped(d.Id, declKindOf(s.Kind))
			} else if d.Id.Ref == nil {
				// hoisting should have declared it already; this is a defensive
				// fallback, not a normally reachable path.
				r.declareVar(d.Id)
			} else {
				// hoisting already declared it in the function scope and set Ref;
				// resolve it by name again, like any other reference to it.
				r.use(d.Id)
			}
		}

	case *ast.FunctionDecl:
		r.function(s.Params, s.Body)

	case *ast.BlockStmt:
		r.block(s.Body, false)

	case *ast.ExprStmt:
		r.expr(s.Expr)

	case *ast.IfStmt:
		r.expr(s.Cond)
		r.block(s.Then.Body, false)
		if s.Else != nil {
			r.block(s.Else.Body, false)
		}

	case *ast.ForStmt:
		r.push(&block{})
		if decl, ok := s.Init.(*ast.VarDeclStmt); ok && decl.Kind != ast.DeclVar {
			// let/const loop-head declarations are scoped to the synthetic loop
			// block; var was already hoisted to the enclosing function.
			for _, d := range decl.Decls {
				if d.Init != nil {
					r.expr(d.Init)
				}
				r.declareBlockScoped(d.Id, declKindOf(decl.Kind))
			}
		} else if s.Init != nil {
			r.stmt(s.Init)
		}
		if s.Cond != nil {
			r.expr(s.Cond)
		}
		if s.Post != nil {
			r.stmt(s.Post)
		}
		r.block(s.Body.Body, true)
		r.pop()

	case *ast.ForInStmt:
		r.expr(s.Right)
		r.push(&block{})
		if id, ok := s.Left.(*ast.Identifier); ok {
			if s.Decl == ast.DeclVar {
				r.use(id) // already hoisted
			} else {
				r.declareBlockScoped(id, declKindOf(s.Decl))
			}
		} else {
			r.expr(s.Left)
		}
		r.block(s.Body.Body, true)
		r.pop()

	case *ast.ForOfStmt:
		r.expr(s.Right)
		r.push(&block{})
		if id, ok := s.Left.(*ast.Identifier); ok {
			if s.Decl == ast.DeclVar {
				r.use(id)
			} else {
				r.declareBlockScoped(id, declKindOf(s.Decl))
			}
		} else {
			r.expr(s.Left)
		}
		r.block(s.Body.Body, true)
		r.pop()

	case *ast.WhileStmt:
		r.expr(s.Cond)
		r.block(s.Body.Body, true)

	case *ast.DoWhileStmt:
		r.block(s.Body.Body, true)
		r.expr(s.Cond)

	case *ast.TryStmt:
		r.block(s.Block.Body, false)
		if s.Catch != nil {
			r.push(&block{})
			if s.Catch.Param != nil {
				r.declareIn(r.env, s.Catch.Param, KindCatchParam)
			}
			r.hoistAndResolveBody(s.Catch.Body.Body)
			r.pop()
		}
		if s.Finally != nil {
			r.block(s.Finally.Body, false)
		}

	case *ast.ReturnStmt:
		if s.Arg != nil {
			r.expr(s.Arg)
		}

	case *ast.BreakStmt, *ast.ContinueStmt:
		// nothing to resolve

	case *ast.ThrowStmt:
		r.expr(s.Arg)

	default:
		panic(fmt.Sprintf("resolver: unexpected stmt %T", s))
	}
}

// block pushes a new scope, resolves body (with hoisting for var/function
// declarations local to it), and pops. isLoop is informational only here;
// lang/inline re-derives loop-ness structurally from the ast.Stmt that owns
// the block rather than from resolver state.
func (r *resolver) block(body []ast.Stmt, isLoop bool) {
	r.push(&block{})
	r.hoistAndResolveBody(body)
	r.pop()
}

func (r *resolver) function(params []*ast.Identifier, body *ast.BlockStmt) {
	r.push(&block{isFunction: true})
	for _, p := range params {
		r.declareIn(r.env, p, KindParam)
	}
	r.hoistAndResolveBody(body.Body)
	r.pop()
}

func (r *resolver) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Identifier:
		r.use(e)
	case *ast.Literal, *ast.UndefinedExpr, *ast.ThisExpr:
		// nothing to resolve
	case *ast.BinaryExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.LogicalExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.UnaryExpr:
		r.expr(e.Operand)
	case *ast.UpdateExpr:
		r.expr(e.Operand)
	case *ast.AssignExpr:
		r.expr(e.Right)
		r.expr(e.Left)
	case *ast.CallExpr:
		r.expr(e.Callee)
		for _, a := range e.Args {
			r.expr(a)
		}
	case *ast.NewExpr:
		r.expr(e.Callee)
		for _, a := range e.Args {
			r.expr(a)
		}
	case *ast.MemberExpr:
		r.expr(e.Object)
		if e.Computed {
			r.expr(e.Property)
		}
		// non-computed property is a property name, not a binding reference
	case *ast.ConditionalExpr:
		r.expr(e.Cond)
		r.expr(e.Cons)
		r.expr(e.Alt)
	case *ast.FunctionExpr:
		r.function(e.Params, e.Body)
	case *ast.ParenExpr:
		r.expr(e.Expr)
	default:
		panic(fmt.Sprintf("resolver: unexpected expr %T", e))
	}
}

func declKindOf(k ast.DeclKind) Kind {
	switch k {
	case ast.DeclLet:
		return KindLet
	case ast.DeclConst:
		return KindConst
	default:
		return KindVar
	}
}
