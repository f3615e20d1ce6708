package maincmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/jsinline/lang/ast"
	"github.com/mna/jsinline/lang/driver"
	"github.com/mna/jsinline/lang/inline"
	"github.com/mna/jsinline/lang/render"
	"github.com/mna/jsinline/lang/resolver"
)

// Inline resolves, runs the inlining pass to a fixed point, and prints the
// rewritten AST as a debug tree (see lang/ast.Printer).
func (c *Cmd) Inline(ctx context.Context, stdio mainer.Stdio, args []string) error {
	prog, err := c.loadAndFold(ctx, stdio, args)
	if err != nil {
		return printError(stdio, err)
	}
	printer := ast.Printer{Output: stdio.Stdout}
	if err := printer.Print(prog); err != nil {
		return printError(stdio, err)
	}
	return nil
}

// Render resolves, runs the inlining pass to a fixed point, and prints
// approximate JavaScript source for the rewritten program (see lang/render).
func (c *Cmd) Render(ctx context.Context, stdio mainer.Stdio, args []string) error {
	prog, err := c.loadAndFold(ctx, stdio, args)
	if err != nil {
		return printError(stdio, err)
	}
	r := render.Renderer{Output: stdio.Stdout, Indent: c.Indent}
	if err := r.Render(prog); err != nil {
		return printError(stdio, err)
	}
	return nil
}

// loadAndFold reads one JSON-encoded program (from a single file argument,
// or stdin when none is given), resolves it, and drives lang/inline.Pass to
// a fixed point through lang/driver.RunToFixedPoint.
func (c *Cmd) loadAndFold(ctx context.Context, stdio mainer.Stdio, args []string) (*ast.Program, error) {
	prog, err := readProgram(stdio, args)
	if err != nil {
		return nil, err
	}
	if err := resolver.Resolve(prog); err != nil {
		return nil, fmt.Errorf("resolving: %w", err)
	}

	pass := inline.New(inline.Config{})
	passes := []driver.RepeatablePass{pass}
	maxIter := c.MaxIterations
	if maxIter == 0 {
		maxIter = defaultMaxIterations
	}
	prog, _, err = driver.RunToFixedPoint(ctx, passes, prog, maxIter)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func readProgram(stdio mainer.Stdio, args []string) (*ast.Program, error) {
	var r io.Reader
	switch len(args) {
	case 0:
		r = stdio.Stdin
	case 1:
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	default:
		return nil, fmt.Errorf("at most one input file may be given, got %d", len(args))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	var prog ast.Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return &prog, nil
}
