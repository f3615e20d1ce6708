// Package resolver assigns a resolved identifier (spec.md §3's "Id") to
// every ast.Identifier in a program: the minimal name-resolution contract
// lang/inline requires of its input. Scoping follows ordinary JavaScript
// rules: function declarations and `var` hoist to the nearest enclosing
// function (or the program, at the top level); `let`/`const`/parameters/
// catch-parameters are block-scoped.
//
// This package exists to make lang/inline runnable and testable end to end;
// it is deliberately small relative to the pass itself (spec.md §1 keeps
// source parsing and name resolution out of scope for the pass, and this
// module does not attempt a production-grade resolver - no temporal dead
// zone tracking, no strict-mode redeclaration diagnostics, no modules).
package resolver

import "github.com/mna/jsinline/lang/ast"

// Kind classifies how a Binding came to exist, mirroring spec.md §3's
// binding-record `kind` field exactly so lang/inline can copy it onto its
// own per-run records without translation.
type Kind uint8

const (
	KindVar Kind = iota
	KindLet
	KindConst
	KindParam
	KindCatchParam
)

func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindLet:
		return "let"
	case KindConst:
		return "const"
	case KindParam:
		return "param"
	case KindCatchParam:
		return "catch-param"
	default:
		return "kind?"
	}
}

// Binding is the resolved identity of a declaration: the "(symbol,
// binding-tag) pair" of spec.md §3. Its own pointer identity is the tag -
// two ast.Identifier nodes denote the same binding iff their Ref fields
// point at the same *Binding.
type Binding struct {
	Name string
	Kind Kind

	// Decl is the identifier node at the declaration site (the parameter
	// name, the declarator's Id, the function's Name, or the catch clause's
	// Param).
	Decl *ast.Identifier
}
