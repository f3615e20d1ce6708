package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/jsinline/lang/ast"
)

func renderString(t *testing.T, prog *ast.Program) string {
	t.Helper()
	var b strings.Builder
	r := &Renderer{Output: &b}
	require.NoError(t, r.Render(prog))
	return b.String()
}

func TestRenderVarDecl(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclConst, Decls: []*ast.Declarator{
			{Id: &ast.Identifier{Name: "x"}, Init: &ast.Literal{Value: float64(1)}},
			{Id: &ast.Identifier{Name: "y"}},
		}},
	}}
	require.Equal(t, "const x = 1, y;\n", renderString(t, prog))
}

func TestRenderBinaryPrecedence(t *testing.T) {
	// a - (b - c) must keep its parens; a - b - c must not gain any.
	sub := func(l, r ast.Expr) ast.Expr { return &ast.BinaryExpr{Op: "-", Left: l, Right: r} }
	ident := func(n string) ast.Expr { return &ast.Identifier{Name: n} }

	nested := sub(ident("a"), sub(ident("b"), ident("c")))
	flat := sub(sub(ident("a"), ident("b")), ident("c"))

	progFor := func(e ast.Expr) *ast.Program {
		return &ast.Program{Body: []ast.Stmt{&ast.ExprStmt{Expr: e}}}
	}

	require.Equal(t, "a - (b - c);\n", renderString(t, progFor(nested)))
	require.Equal(t, "a - b - c;\n", renderString(t, progFor(flat)))
}

func TestRenderCallAndMember(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.CallExpr{
			Callee: &ast.MemberExpr{
				Object:   &ast.Identifier{Name: "obj"},
				Property: &ast.Identifier{Name: "method"},
			},
			Args: []ast.Expr{&ast.Literal{Value: "hi"}},
		}},
	}}
	require.Equal(t, `obj.method("hi");`+"\n", renderString(t, prog))
}

func TestRenderIfElseAndFunctionDecl(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.FunctionDecl{
			Name:   &ast.Identifier{Name: "f"},
			Params: []*ast.Identifier{{Name: "x"}},
			Body: &ast.BlockStmt{Body: []ast.Stmt{
				&ast.IfStmt{
					Cond: &ast.Identifier{Name: "x"},
					Then: &ast.BlockStmt{Body: []ast.Stmt{&ast.ReturnStmt{Arg: &ast.Literal{Value: float64(1)}}}},
					Else: &ast.BlockStmt{Body: []ast.Stmt{&ast.ReturnStmt{Arg: &ast.Literal{Value: float64(0)}}}},
				},
			}},
		},
	}}
	want := "function f(x) {\n" +
		"  if (x) {\n" +
		"    return 1;\n" +
		"  } else {\n" +
		"    return 0;\n" +
		"  }\n" +
		"}\n"
	require.Equal(t, want, renderString(t, prog))
}

func TestRenderAssignAndUpdate(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.AssignExpr{Op: "+=", Left: &ast.Identifier{Name: "x"}, Right: &ast.Literal{Value: float64(2)}}},
		&ast.ExprStmt{Expr: &ast.UpdateExpr{Op: "++", Prefix: false, Operand: &ast.Identifier{Name: "x"}}},
	}}
	require.Equal(t, "x += 2;\nx++;\n", renderString(t, prog))
}

func TestRenderUndefinedAndThis(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: &ast.Identifier{Name: "x"}, Init: &ast.UndefinedExpr{}},
		}},
		&ast.ExprStmt{Expr: &ast.MemberExpr{Object: &ast.ThisExpr{}, Property: &ast.Identifier{Name: "x"}}},
	}}
	require.Equal(t, "let x = undefined;\nthis.x;\n", renderString(t, prog))
}
