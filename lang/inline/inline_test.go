package inline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/render"
	"github.com/mna/jsinline/lang/resolver"
)

// foldToFixedPoint resolves prog, then runs a fresh Pass against it until a
// round makes no further change, returning the number of Fold calls made.
// Mirrors lang/driver.RunToFixedPoint without importing it, so these tests
// can also assert on the Pass's own Changed() sequence directly.
func foldToFixedPoint(t *testing.T, prog *ast.Program) (rounds int) {
	t.Helper()
	require.NoError(t, resolver.Resolve(prog))

	p := New(Config{})
	for i := 0; i < 50; i++ {
		p.Reset()
		prog = p.Fold(prog)
		rounds++
		if !p.Changed() {
			return rounds
		}
	}
	t.Fatalf("did not reach a fixed point within 50 rounds")
	return rounds
}

func renderString(t *testing.T, prog *ast.Program) string {
	t.Helper()
	var b strings.Builder
	r := &render.Renderer{Output: &b}
	require.NoError(t, r.Render(prog))
	return b.String()
}

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func wrapInFunction(params []string, body []ast.Stmt) *ast.Program {
	ps := make([]*ast.Identifier, len(params))
	for i, p := range params {
		ps[i] = ident(p)
	}
	return &ast.Program{Body: []ast.Stmt{
		&ast.FunctionDecl{
			Name:   ident("f"),
			Params: ps,
			Body:   &ast.BlockStmt{Body: body},
		},
	}}
}

// scenario 1: var y; y = x; use(y); -> var y; x; use(x);
func TestScenarioReassignedVarThenRead(t *testing.T) {
	prog := wrapInFunction([]string{"x", "use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{Id: ident("y")}}},
		&ast.ExprStmt{Expr: &ast.AssignExpr{Op: "=", Left: ident("y"), Right: ident("x")}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("y")}}},
	})
	foldToFixedPoint(t, prog)
	want := "function f(x, use) {\n" +
		"  var y;\n" +
		"  x;\n" +
		"  use(x);\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

// scenario 2: const a = 1; const b = a; f(b); -> const a = 1; const b = a; f(1);
func TestScenarioConstChainToCall(t *testing.T) {
	prog := wrapInFunction([]string{"fn"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("a"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("b"), Init: ident("a")},
		}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("fn"), Args: []ast.Expr{ident("b")}}},
	})
	foldToFixedPoint(t, prog)
	want := "function f(fn) {\n" +
		"  const a = 1;\n" +
		"  const b = a;\n" +
		"  fn(1);\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

// spec.md §4.3 requires a const alias chain to fold to its terminal value
// "in one run" - a single Pass.Fold call, not one hop of the chain per
// driver round. This asserts that property directly, independent of
// foldToFixedPoint's repeat-until-stable loop.
func TestScenarioConstChainFoldsInASingleFoldCall(t *testing.T) {
	prog := wrapInFunction([]string{"fn"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("a"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("b"), Init: ident("a")},
		}},
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("c"), Init: ident("b")},
		}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("fn"), Args: []ast.Expr{ident("c")}}},
	})
	require.NoError(t, resolver.Resolve(prog))

	p := New(Config{})
	p.Fold(prog)
	require.True(t, p.Changed())

	want := "function f(fn) {\n" +
		"  const a = 1;\n" +
		"  const b = a;\n" +
		"  const c = b;\n" +
		"  fn(1);\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

// scenario 3: let x = 1; call(); use(x); -> unchanged (call raises a barrier).
func TestScenarioCallBarrierBlocksUnrelatedBinding(t *testing.T) {
	prog := wrapInFunction([]string{"call", "use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("x"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("call")}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("x")}}},
	})
	before := renderString(t, prog)
	rounds := foldToFixedPoint(t, prog)
	require.Equal(t, 1, rounds)
	require.Equal(t, before, renderString(t, prog))
}

// A call's own bare-identifier arguments are not blocked by that same call's
// barrier, even though an unrelated earlier call still blocks them - this is
// the distinction scenario 1 and scenario 3 together pin down.
func TestScenarioCallDoesNotBarrierItsOwnArguments(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("x"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("x")}}},
	})
	foldToFixedPoint(t, prog)
	want := "function f(use) {\n" +
		"  let x = 1;\n" +
		"  use(1);\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

// scenario 4: let a = 2; a++; use(a); -> unchanged (update prevents inline).
func TestScenarioUpdateExprPreventsInline(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("a"), Init: &ast.Literal{Value: float64(2)}},
		}},
		&ast.ExprStmt{Expr: &ast.UpdateExpr{Op: "++", Operand: ident("a")}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("a")}}},
	})
	before := renderString(t, prog)
	rounds := foldToFixedPoint(t, prog)
	require.Equal(t, 1, rounds)
	require.Equal(t, before, renderString(t, prog))
}

// scenario 5: let t = this; function f(){ return t; } f(); -> the nested
// function's body is never rewritten to return `this` directly, since that
// would change what `this` refers to at the read site.
func TestScenarioThisSensitiveValueNotInlinedAcrossFunction(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("t"), Init: &ast.ThisExpr{}},
		}},
		&ast.FunctionDecl{
			Name: ident("g"),
			Body: &ast.BlockStmt{Body: []ast.Stmt{
				&ast.ReturnStmt{Arg: ident("t")},
			}},
		},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("g")}},
	}}
	require.NoError(t, resolver.Resolve(prog))
	p := New(Config{})
	p.Fold(prog)

	got := renderString(t, prog)
	require.Contains(t, got, "return t;")
}

// scenario 6: let n = 1; for(;;){ use(n); } -> unchanged (empty-head loop
// raises a barrier).
func TestScenarioEmptyHeadForLoopBarrier(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("n"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.ForStmt{Body: &ast.BlockStmt{Body: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("n")}}},
		}}},
	})
	before := renderString(t, prog)
	rounds := foldToFixedPoint(t, prog)
	require.Equal(t, 1, rounds)
	require.Equal(t, before, renderString(t, prog))
}

// scenario 7: try { let p = 1; use(p); } catch(e) { use(e); } -> the guarded
// block is conservatively left exactly as analyzed (rewrite.go's documented
// choice), so neither p nor e is substituted.
func TestScenarioTryBlockLeftAlone(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.TryStmt{
			Block: &ast.BlockStmt{Body: []ast.Stmt{
				&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
					{Id: ident("p"), Init: &ast.Literal{Value: float64(1)}},
				}},
				&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("p")}}},
			}},
			Catch: &ast.CatchClause{
				Param: ident("e"),
				Body: &ast.BlockStmt{Body: []ast.Stmt{
					&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("e")}}},
				}},
			},
		},
	})
	before := renderString(t, prog)
	rounds := foldToFixedPoint(t, prog)
	require.Equal(t, 1, rounds)
	require.Equal(t, before, renderString(t, prog))
}

// Boundary property: a `var` with no initializer, read once before any
// assignment, rewrites to a read of undefined.
func TestBoundaryUnassignedVarReadsAsUndefined(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{Id: ident("y")}}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("y")}}},
	})
	foldToFixedPoint(t, prog)
	want := "function f(use) {\n" +
		"  var y;\n" +
		"  use(undefined);\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

// Boundary property: a const bound to a literal, read N times, becomes N
// literal occurrences with no residual declarator elision.
func TestBoundaryConstLiteralInlinedAtEveryReadNoElision(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("k"), Init: &ast.Literal{Value: float64(7)}},
		}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("k")}}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("k")}}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("k")}}},
	})
	foldToFixedPoint(t, prog)
	want := "function f(use) {\n" +
		"  const k = 7;\n" +
		"  use(7);\n" +
		"  use(7);\n" +
		"  use(7);\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

// Boundary property: a binding on the left of `delete` is never inlined.
func TestBoundaryDeleteOperandNeverInlined(t *testing.T) {
	prog := wrapInFunction([]string{"use"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("o"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.ExprStmt{Expr: &ast.UnaryExpr{Op: "delete", Operand: &ast.MemberExpr{
			Object:   ident("o"),
			Property: ident("prop"),
		}}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("o")}}},
	})
	foldToFixedPoint(t, prog)
	got := renderString(t, prog)
	require.Contains(t, got, "use(o);")
	require.NotContains(t, got, "use(1);")
}

// Boundary property: a binding written inside a loop body is never inlined.
func TestBoundaryBindingWrittenInLoopNeverInlined(t *testing.T) {
	prog := wrapInFunction([]string{"use", "cond"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: ident("total"), Init: &ast.Literal{Value: float64(0)}},
		}},
		&ast.WhileStmt{
			Cond: ident("cond"),
			Body: &ast.BlockStmt{Body: []ast.Stmt{
				&ast.ExprStmt{Expr: &ast.AssignExpr{Op: "+=", Left: ident("total"), Right: &ast.Literal{Value: float64(1)}}},
			}},
		},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: ident("use"), Args: []ast.Expr{ident("total")}}},
	})
	foldToFixedPoint(t, prog)
	got := renderString(t, prog)
	require.Contains(t, got, "use(total);")
}

// Idempotence: once a fixed point is reached, folding again changes nothing.
func TestFixedPointIsIdempotent(t *testing.T) {
	prog := wrapInFunction([]string{"f"}, []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("a"), Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("b"), Init: ident("a")},
		}},
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: ident("c"), Init: ident("b")},
		}},
		&ast.ReturnStmt{Arg: &ast.BinaryExpr{Op: "+", Left: ident("c"), Right: &ast.Literal{Value: float64(1)}}},
	})
	require.NoError(t, resolver.Resolve(prog))

	p := New(Config{})
	for i := 0; i < 50; i++ {
		p.Reset()
		prog = p.Fold(prog)
		if !p.Changed() {
			break
		}
	}
	settled := renderString(t, prog)

	p.Reset()
	prog = p.Fold(prog)
	require.False(t, p.Changed())
	require.Equal(t, settled, renderString(t, prog))
}
