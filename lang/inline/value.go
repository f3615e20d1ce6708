package inline

import "github.com/mna/jsinline/lang/ast"

// isCheapValue reports whether e is storable for inlining without further
// hazard analysis: a literal, the undefined literal, or an identifier
// reference (spec.md §4.1's cheap-value classification). Any other shape -
// a call, a binary expression, a member access, a function expression - is
// not cheap: it may still be stored (see declareValue) but is only ever
// substituted back under the single-read declarator rule of spec.md §4.3,
// never treated as foldable like a literal or identifier would be.
func isCheapValue(e ast.Expr) bool {
	switch ast.Unwrap(e).(type) {
	case *ast.Literal, *ast.UndefinedExpr, *ast.Identifier:
		return true
	default:
		return false
	}
}

// containsThis reports whether e syntactically references `this` within
// the same this-binding context e itself would be evaluated in: it
// recurses into arrow function bodies (which share the enclosing this) but
// not into ordinary function or function-expression bodies (which
// introduce their own, different this).
func containsThis(e ast.Expr) bool {
	if e == nil {
		return false
	}
	switch e := e.(type) {
	case *ast.ThisExpr:
		return true
	case *ast.Identifier, *ast.Literal, *ast.UndefinedExpr:
		return false
	case *ast.BinaryExpr:
		return containsThis(e.Left) || containsThis(e.Right)
	case *ast.LogicalExpr:
		return containsThis(e.Left) || containsThis(e.Right)
	case *ast.UnaryExpr:
		return containsThis(e.Operand)
	case *ast.UpdateExpr:
		return containsThis(e.Operand)
	case *ast.AssignExpr:
		return containsThis(e.Left) || containsThis(e.Right)
	case *ast.CallExpr:
		if containsThis(e.Callee) {
			return true
		}
		for _, a := range e.Args {
			if containsThis(a) {
				return true
			}
		}
		return false
	case *ast.NewExpr:
		if containsThis(e.Callee) {
			return true
		}
		for _, a := range e.Args {
			if containsThis(a) {
				return true
			}
		}
		return false
	case *ast.MemberExpr:
		if e.Computed {
			return containsThis(e.Object) || containsThis(e.Property)
		}
		return containsThis(e.Object)
	case *ast.ConditionalExpr:
		return containsThis(e.Cond) || containsThis(e.Cons) || containsThis(e.Alt)
	case *ast.FunctionExpr:
		if !e.IsArrow {
			// a nested ordinary function introduces its own `this`; a `this`
			// written inside it does not refer to the binding being analyzed.
			return false
		}
		return containsThisInBlock(e.Body)
	case *ast.ParenExpr:
		return containsThis(e.Expr)
	default:
		return false
	}
}

func containsThisInBlock(b *ast.BlockStmt) bool {
	if b == nil {
		return false
	}
	for _, s := range b.Body {
		if containsThisInStmt(s) {
			return true
		}
	}
	return false
}

// containsThisInStmt is the statement-level counterpart of containsThis,
// needed because arrow function bodies can themselves contain arbitrary
// statements (spec.md's this-sensitivity applies uniformly inside them).
func containsThisInStmt(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		for _, d := range s.Decls {
			if containsThis(d.Init) {
				return true
			}
		}
		return false
	case *ast.ExprStmt:
		return containsThis(s.Expr)
	case *ast.IfStmt:
		if containsThis(s.Cond) || containsThisInBlock(s.Then) {
			return true
		}
		return containsThisInBlock(s.Else)
	case *ast.BlockStmt:
		return containsThisInBlock(s)
	case *ast.ForStmt:
		return containsThis(s.Cond) || containsThisInBlock(s.Body)
	case *ast.ForInStmt:
		return containsThis(s.Right) || containsThisInBlock(s.Body)
	case *ast.ForOfStmt:
		return containsThis(s.Right) || containsThisInBlock(s.Body)
	case *ast.WhileStmt:
		return containsThis(s.Cond) || containsThisInBlock(s.Body)
	case *ast.DoWhileStmt:
		return containsThis(s.Cond) || containsThisInBlock(s.Body)
	case *ast.TryStmt:
		if containsThisInBlock(s.Block) {
			return true
		}
		if s.Catch != nil && containsThisInBlock(s.Catch.Body) {
			return true
		}
		return containsThisInBlock(s.Finally)
	case *ast.ReturnStmt:
		return containsThis(s.Arg)
	case *ast.ThrowStmt:
		return containsThis(s.Arg)
	default:
		return false
	}
}
