package render

import (
	"fmt"

	"github.com/mna/jsinline/lang/ast"
)

// Operator precedence, loosely following JS's table - only as fine-grained
// as needed to decide when a child expression needs parentheses. Higher
// binds tighter.
const (
	precLowest = iota
	precAssign
	precConditional
	precLogicalOr
	precLogicalAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precCallOrMember
	precPrimary
)

var binaryPrec = map[string]int{
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational, "in": precRelational, "instanceof": precRelational,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
}

var logicalPrec = map[string]int{"||": precLogicalOr, "&&": precLogicalAnd}

// expr writes e, wrapping it in parentheses iff its own precedence is lower
// than minPrec (the precedence required by the context it's being written
// into) - always erring on the side of an extra, harmless parenthesis over a
// missing, meaning-changing one.
func (w *writer) expr(e ast.Expr, minPrec int) {
	p := w.exprPrec(e)
	if p < minPrec {
		w.printf("(")
		w.exprNode(e)
		w.printf(")")
		return
	}
	w.exprNode(e)
}

func (w *writer) exprPrec(e ast.Expr) int {
	switch e := e.(type) {
	case *ast.Identifier, *ast.Literal, *ast.UndefinedExpr, *ast.ThisExpr, *ast.ParenExpr:
		return precPrimary
	case *ast.MemberExpr, *ast.CallExpr, *ast.NewExpr:
		return precCallOrMember
	case *ast.UpdateExpr:
		return precPostfix
	case *ast.UnaryExpr:
		return precUnary
	case *ast.BinaryExpr:
		if prec, ok := binaryPrec[e.Op]; ok {
			return prec
		}
		return precAdditive
	case *ast.LogicalExpr:
		if prec, ok := logicalPrec[e.Op]; ok {
			return prec
		}
		return precLogicalOr
	case *ast.ConditionalExpr:
		return precConditional
	case *ast.AssignExpr:
		return precAssign
	case *ast.FunctionExpr:
		return precPrimary
	default:
		return precLowest
	}
}

func (w *writer) exprNode(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Identifier:
		w.printf("%s", e.Name)

	case *ast.Literal:
		w.literal(e)

	case *ast.UndefinedExpr:
		w.printf("undefined")

	case *ast.ThisExpr:
		w.printf("this")

	case *ast.BinaryExpr:
		prec := w.exprPrec(e)
		w.expr(e.Left, prec)
		w.printf(" %s ", e.Op)
		// the right operand of a left-associative binary operator needs a
		// strictly higher minimum precedence than the operator itself, or
		// `a - (b - c)` would render indistinguishably from `a - b - c`.
		w.expr(e.Right, prec+1)

	case *ast.LogicalExpr:
		prec := w.exprPrec(e)
		w.expr(e.Left, prec)
		w.printf(" %s ", e.Op)
		w.expr(e.Right, prec+1)

	case *ast.UnaryExpr:
		if isWordOperator(e.Op) {
			w.printf("%s ", e.Op)
		} else {
			w.printf("%s", e.Op)
		}
		w.expr(e.Operand, precUnary)

	case *ast.UpdateExpr:
		if e.Prefix {
			w.printf("%s", e.Op)
			w.expr(e.Operand, precUnary)
		} else {
			w.expr(e.Operand, precCallOrMember)
			w.printf("%s", e.Op)
		}

	case *ast.AssignExpr:
		w.expr(e.Left, precCallOrMember)
		w.printf(" %s ", e.Op)
		w.expr(e.Right, precAssign)

	case *ast.CallExpr:
		w.expr(e.Callee, precCallOrMember)
		w.printf("(")
		w.exprList(e.Args)
		w.printf(")")

	case *ast.NewExpr:
		w.printf("new ")
		w.expr(e.Callee, precCallOrMember)
		w.printf("(")
		w.exprList(e.Args)
		w.printf(")")

	case *ast.MemberExpr:
		w.expr(e.Object, precCallOrMember)
		if e.Computed {
			w.printf("[")
			w.expr(e.Property, precLowest)
			w.printf("]")
		} else {
			w.printf(".%s", e.Property.(*ast.Identifier).Name)
		}

	case *ast.ConditionalExpr:
		w.expr(e.Cond, precLogicalOr)
		w.printf(" ? ")
		w.expr(e.Cons, precAssign)
		w.printf(" : ")
		w.expr(e.Alt, precAssign)

	case *ast.FunctionExpr:
		w.function(e)

	case *ast.ParenExpr:
		w.expr(e.Expr, precLowest)

	default:
		w.err = fmt.Errorf("render: unhandled expression type %T", e)
	}
}

func (w *writer) exprList(args []ast.Expr) {
	for i, a := range args {
		if i > 0 {
			w.printf(", ")
		}
		w.expr(a, precAssign)
	}
}

func (w *writer) function(e *ast.FunctionExpr) {
	if e.IsArrow {
		w.printf("(%s) => ", w.params(e.Params))
		w.block(e.Body, 0)
		return
	}
	w.printf("function")
	if e.Name != nil {
		w.printf(" %s", e.Name.Name)
	}
	w.printf("(%s) ", w.params(e.Params))
	w.block(e.Body, 0)
}

func (w *writer) literal(l *ast.Literal) {
	switch v := l.Value.(type) {
	case nil:
		w.printf("null")
	case string:
		w.printf("%q", v)
	case bool:
		w.printf("%t", v)
	default:
		w.printf("%v", v)
	}
}

func isWordOperator(op string) bool {
	switch op {
	case "typeof", "void", "delete":
		return true
	default:
		return false
	}
}
