package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints an AST as an indented tree of node descriptions,
// one per line, using each node's String() method. It is a debug aid, not a
// code generator - see lang/render for JavaScript-ish source reconstruction.
type Printer struct {
	// Output is the io.Writer to print to.
	Output io.Writer
}

// Print walks n and writes its indented tree description to p.Output.
func (p *Printer) Print(n Node) error {
	pp := &printer{w: p.Output}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w     io.Writer
	depth int
	err   error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit || p.err != nil {
		p.depth--
		return nil
	}
	p.depth++
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat(". ", p.depth-1), n)
	}
	return p
}
