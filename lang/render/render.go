// Package render writes approximate JavaScript source text for a
// *ast.Program. It exists so a CLI user or a test can eyeball the effect of
// inlining on source size - it is not a code generator: no minification
// choices of its own, no source maps, no attempt at matching the original
// formatting. See lang/ast.Printer for a debug tree dump of the same AST.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mna/jsinline/lang/ast"
)

// Renderer writes JavaScript-ish source text for a Program to Output.
type Renderer struct {
	// Output is the io.Writer source text is written to.
	Output io.Writer

	// Indent is the string repeated once per nesting level. Defaults to two
	// spaces when empty.
	Indent string
}

// Render writes prog's source text to r.Output.
func (r *Renderer) Render(prog *ast.Program) error {
	indent := r.Indent
	if indent == "" {
		indent = "  "
	}
	w := &writer{w: r.Output, indent: indent}
	w.stmts(prog.Body, 0)
	return w.err
}

type writer struct {
	w      io.Writer
	indent string
	err    error
}

func (w *writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *writer) pad(depth int) { w.printf("%s", strings.Repeat(w.indent, depth)) }

func (w *writer) stmts(body []ast.Stmt, depth int) {
	for _, s := range body {
		w.stmt(s, depth)
	}
}

func (w *writer) block(b *ast.BlockStmt, depth int) {
	w.printf("{\n")
	w.stmts(b.Body, depth+1)
	w.pad(depth)
	w.printf("}")
}

func (w *writer) stmt(s ast.Stmt, depth int) {
	w.pad(depth)
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		w.varDecl(s)
		w.printf(";\n")

	case *ast.FunctionDecl:
		w.printf("function %s(%s) ", s.Name.Name, w.params(s.Params))
		w.block(s.Body, depth)
		w.printf("\n")

	case *ast.BlockStmt:
		w.block(s, depth)
		w.printf("\n")

	case *ast.ExprStmt:
		w.expr(s.Expr, precLowest)
		w.printf(";\n")

	case *ast.IfStmt:
		w.printf("if (")
		w.expr(s.Cond, precLowest)
		w.printf(") ")
		w.block(s.Then, depth)
		if s.Else != nil {
			w.printf(" else ")
			w.block(s.Else, depth)
		}
		w.printf("\n")

	case *ast.ForStmt:
		w.printf("for (")
		if s.Init != nil {
			w.forInit(s.Init)
		}
		w.printf("; ")
		if s.Cond != nil {
			w.expr(s.Cond, precLowest)
		}
		w.printf("; ")
		if s.Post != nil {
			w.forInit(s.Post)
		}
		w.printf(") ")
		w.block(s.Body, depth)
		w.printf("\n")

	case *ast.ForInStmt:
		w.printf("for (")
		w.forHead(s.Left, s.Decl)
		w.printf(" in ")
		w.expr(s.Right, precLowest)
		w.printf(") ")
		w.block(s.Body, depth)
		w.printf("\n")

	case *ast.ForOfStmt:
		w.printf("for (")
		w.forHead(s.Left, s.Decl)
		w.printf(" of ")
		w.expr(s.Right, precLowest)
		w.printf(") ")
		w.block(s.Body, depth)
		w.printf("\n")

	case *ast.WhileStmt:
		w.printf("while (")
		w.expr(s.Cond, precLowest)
		w.printf(") ")
		w.block(s.Body, depth)
		w.printf("\n")

	case *ast.DoWhileStmt:
		w.printf("do ")
		w.block(s.Body, depth)
		w.printf(" while (")
		w.expr(s.Cond, precLowest)
		w.printf(");\n")

	case *ast.TryStmt:
		w.printf("try ")
		w.block(s.Block, depth)
		if s.Catch != nil {
			w.printf(" catch ")
			if s.Catch.Param != nil {
				w.printf("(%s) ", s.Catch.Param.Name)
			}
			w.block(s.Catch.Body, depth)
		}
		if s.Finally != nil {
			w.printf(" finally ")
			w.block(s.Finally, depth)
		}
		w.printf("\n")

	case *ast.ReturnStmt:
		w.printf("return")
		if s.Arg != nil {
			w.printf(" ")
			w.expr(s.Arg, precLowest)
		}
		w.printf(";\n")

	case *ast.BreakStmt:
		w.printf("break;\n")

	case *ast.ContinueStmt:
		w.printf("continue;\n")

	case *ast.ThrowStmt:
		w.printf("throw ")
		w.expr(s.Arg, precLowest)
		w.printf(";\n")

	default:
		w.err = fmt.Errorf("render: unhandled statement type %T", s)
	}
}

// forInit renders the init/post clause of a classic for loop: either a bare
// expression statement or a var declaration, without the trailing semicolon
// a top-level statement would get.
func (w *writer) forInit(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		w.varDecl(s)
	case *ast.ExprStmt:
		w.expr(s.Expr, precLowest)
	default:
		w.err = fmt.Errorf("render: unhandled for-clause statement type %T", s)
	}
}

// forHead writes a for-in/for-of loop's left-hand target. ast.DeclVar is
// also DeclKind's zero value, used both for an actual `var` target and for a
// bare assignment target reusing an existing binding (e.g. `for (x in y)`);
// rendering both as a plain identifier is harmless since render never feeds
// its output back through a parser.
func (w *writer) forHead(left ast.Expr, kind ast.DeclKind) {
	if _, ok := left.(*ast.Identifier); ok && kind != ast.DeclVar {
		w.printf("%s ", kind.String())
	}
	w.expr(left, precLowest)
}

func (w *writer) varDecl(s *ast.VarDeclStmt) {
	w.printf("%s ", s.Kind.String())
	for i, d := range s.Decls {
		if i > 0 {
			w.printf(", ")
		}
		w.printf("%s", d.Id.Name)
		if d.Init != nil {
			w.printf(" = ")
			w.expr(d.Init, precAssign)
		}
	}
}

func (w *writer) params(ps []*ast.Identifier) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
