package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/jsinline/lang/ast"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

// A `var` may be read before its own declaration runs, because it is
// hoisted to the top of its enclosing function.
func TestResolveHoistsVarBeforeDeclaration(t *testing.T) {
	x := ident("x")
	decl := ident("x")
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExprStmt{Expr: x},
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{Id: decl}}},
	}}
	require.NoError(t, Resolve(prog))

	require.NotNil(t, x.Ref)
	assert.Same(t, x.Ref, decl.Ref)
}

// A function declaration is hoisted the same way a `var` is, so it may be
// called from code that textually precedes it.
func TestResolveHoistsFunctionDeclaration(t *testing.T) {
	call := ident("g")
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: call}},
		&ast.FunctionDecl{Name: ident("g"), Body: &ast.BlockStmt{}},
	}}
	require.NoError(t, Resolve(prog))
	require.NotNil(t, call.Ref)
}

// A `let` declared in a nested block shadows an outer binding of the same
// name within that block, without disturbing the outer one.
func TestResolveBlockScopedShadowing(t *testing.T) {
	outerDecl := ident("x")
	innerDecl := ident("x")
	innerUse := ident("x")
	outerUse := ident("x")
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: outerDecl, Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.BlockStmt{Body: []ast.Stmt{
			&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
				{Id: innerDecl, Init: &ast.Literal{Value: float64(2)}},
			}},
			&ast.ExprStmt{Expr: innerUse},
		}},
		&ast.ExprStmt{Expr: outerUse},
	}}
	require.NoError(t, Resolve(prog))

	assert.Same(t, innerDecl.Ref, innerUse.Ref)
	assert.Same(t, outerDecl.Ref, outerUse.Ref)
	assert.NotSame(t, innerUse.Ref, outerUse.Ref)
}

// A catch clause's parameter is scoped to the catch body alone; it does not
// leak into code after the try statement, and does not collide with a
// same-named binding declared outside the try.
func TestResolveCatchParamScoping(t *testing.T) {
	outerDecl := ident("e")
	catchParam := ident("e")
	insideCatch := ident("e")
	afterTry := ident("e")
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: outerDecl, Init: &ast.Literal{Value: "outer"}},
		}},
		&ast.TryStmt{
			Block: &ast.BlockStmt{},
			Catch: &ast.CatchClause{
				Param: catchParam,
				Body:  &ast.BlockStmt{Body: []ast.Stmt{&ast.ExprStmt{Expr: insideCatch}}},
			},
		},
		&ast.ExprStmt{Expr: afterTry},
	}}
	require.NoError(t, Resolve(prog))

	assert.Same(t, catchParam.Ref, insideCatch.Ref)
	assert.Same(t, outerDecl.Ref, afterTry.Ref)
	assert.NotSame(t, catchParam.Ref, outerDecl.Ref)
}

// A function's parameters are scoped to its own body and shadow any
// same-named outer binding for the duration of the call.
func TestResolveParamShadowsOuterBinding(t *testing.T) {
	outerDecl := ident("x")
	param := ident("x")
	insideFn := ident("x")
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{
			{Id: outerDecl, Init: &ast.Literal{Value: float64(1)}},
		}},
		&ast.FunctionDecl{
			Name:   ident("f"),
			Params: []*ast.Identifier{param},
			Body:   &ast.BlockStmt{Body: []ast.Stmt{&ast.ReturnStmt{Arg: insideFn}}},
		},
	}}
	require.NoError(t, Resolve(prog))

	assert.Same(t, param.Ref, insideFn.Ref)
	assert.NotSame(t, param.Ref, outerDecl.Ref)
}

// An identifier that never resolves to any binding is reported as an error,
// not silently ignored.
func TestResolveUndefinedIdentifierErrors(t *testing.T) {
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ExprStmt{Expr: ident("neverDeclared")},
	}}
	err := Resolve(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neverDeclared")
}

// Redeclaring a `let` in the same block is an error; redeclaring a `var` is
// not (JS's own var semantics allow it).
func TestResolveRedeclarationRules(t *testing.T) {
	letProg := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{{Id: ident("x")}}},
		&ast.VarDeclStmt{Kind: ast.DeclLet, Decls: []*ast.Declarator{{Id: ident("x")}}},
	}}
	require.Error(t, Resolve(letProg))

	varProg := &ast.Program{Body: []ast.Stmt{
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{Id: ident("x")}}},
		&ast.VarDeclStmt{Kind: ast.DeclVar, Decls: []*ast.Declarator{{Id: ident("x")}}},
	}}
	require.NoError(t, Resolve(varProg))
}
