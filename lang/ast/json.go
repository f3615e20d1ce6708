package ast

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON gives Program a stable on-disk fixture format
// for the CLI and tests: every node is encoded as {"type": "...", ...fields}
// so that the Expr/Stmt interfaces can be reconstructed on decode. This is
// not a serialization format meant for human authoring of large programs -
// it exists so test fixtures and CLI inputs can be checked into testdata/
// without a JS parser.

func (n *Program) UnmarshalJSON(data []byte) error {
	var raw struct {
		Body []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	body := make([]Stmt, len(raw.Body))
	for i, r := range raw.Body {
		s, err := decodeStmt(r)
		if err != nil {
			return fmt.Errorf("program.body[%d]: %w", i, err)
		}
		body[i] = s
	}
	n.Body = body
	return nil
}

type typed struct {
	Type string `json:"type"`
}

func decodeStmt(data []byte) (Stmt, error) {
	var t typed
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	switch t.Type {
	case "VarDeclStmt":
		var w struct {
			Kind  string            `json:"kind"`
			Decls []declaratorJSON  `json:"decls"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		decls := make([]*Declarator, len(w.Decls))
		for i, d := range w.Decls {
			decl, err := d.decode()
			if err != nil {
				return nil, err
			}
			decls[i] = decl
		}
		return &VarDeclStmt{Kind: declKindFromString(w.Kind), Decls: decls}, nil

	case "FunctionDecl":
		var w struct {
			Name   identJSON   `json:"name"`
			Params []identJSON `json:"params"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &FunctionDecl{Name: w.Name.decode(), Params: decodeIdents(w.Params), Body: body}, nil

	case "BlockStmt":
		return decodeBlock(data)

	case "ExprStmt":
		var w struct {
			Expr json.RawMessage `json:"expr"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		e, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: e}, nil

	case "IfStmt":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(w.Then)
		if err != nil {
			return nil, err
		}
		var elseBlk *BlockStmt
		if len(w.Else) > 0 {
			elseBlk, err = decodeBlock(w.Else)
			if err != nil {
				return nil, err
			}
		}
		return &IfStmt{Cond: cond, Then: then, Else: elseBlk}, nil

	case "ForStmt":
		var w struct {
			Init json.RawMessage `json:"init"`
			Cond json.RawMessage `json:"cond"`
			Post json.RawMessage `json:"post"`
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		var init, post Stmt
		var err error
		if len(w.Init) > 0 {
			if init, err = decodeStmt(w.Init); err != nil {
				return nil, err
			}
		}
		if len(w.Post) > 0 {
			if post, err = decodeStmt(w.Post); err != nil {
				return nil, err
			}
		}
		var cond Expr
		if len(w.Cond) > 0 {
			if cond, err = decodeExpr(w.Cond); err != nil {
				return nil, err
			}
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &ForStmt{Init: init, Cond: cond, Post: post, Body: body}, nil

	case "ForInStmt", "ForOfStmt":
		var w struct {
			Left  json.RawMessage `json:"left"`
			Decl  string          `json:"decl"`
			Right json.RawMessage `json:"right"`
			Body  json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		if t.Type == "ForInStmt" {
			return &ForInStmt{Left: left, Decl: declKindFromString(w.Decl), Right: right, Body: body}, nil
		}
		return &ForOfStmt{Left: left, Decl: declKindFromString(w.Decl), Right: right, Body: body}, nil

	case "WhileStmt":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Body: body}, nil

	case "DoWhileStmt":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Body json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		return &DoWhileStmt{Cond: cond, Body: body}, nil

	case "TryStmt":
		var w struct {
			Block   json.RawMessage `json:"block"`
			Catch   *struct {
				Param *identJSON      `json:"param"`
				Body  json.RawMessage `json:"body"`
			} `json:"catch"`
			Finally json.RawMessage `json:"finally"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		blk, err := decodeBlock(w.Block)
		if err != nil {
			return nil, err
		}
		var catch *CatchClause
		if w.Catch != nil {
			cbody, err := decodeBlock(w.Catch.Body)
			if err != nil {
				return nil, err
			}
			var param *Identifier
			if w.Catch.Param != nil {
				param = w.Catch.Param.decode()
			}
			catch = &CatchClause{Param: param, Body: cbody}
		}
		var finally *BlockStmt
		if len(w.Finally) > 0 {
			if finally, err = decodeBlock(w.Finally); err != nil {
				return nil, err
			}
		}
		return &TryStmt{Block: blk, Catch: catch, Finally: finally}, nil

	case "ReturnStmt":
		var w struct {
			Arg json.RawMessage `json:"arg"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		var arg Expr
		if len(w.Arg) > 0 {
			var err error
			if arg, err = decodeExpr(w.Arg); err != nil {
				return nil, err
			}
		}
		return &ReturnStmt{Arg: arg}, nil

	case "BreakStmt":
		return &BreakStmt{}, nil
	case "ContinueStmt":
		return &ContinueStmt{}, nil

	case "ThrowStmt":
		var w struct {
			Arg json.RawMessage `json:"arg"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		arg, err := decodeExpr(w.Arg)
		if err != nil {
			return nil, err
		}
		return &ThrowStmt{Arg: arg}, nil

	default:
		return nil, fmt.Errorf("unknown statement type %q", t.Type)
	}
}

func decodeBlock(data []byte) (*BlockStmt, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var w struct {
		Body []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	body := make([]Stmt, len(w.Body))
	for i, r := range w.Body {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, fmt.Errorf("block.body[%d]: %w", i, err)
		}
		body[i] = s
	}
	return &BlockStmt{Body: body}, nil
}

func decodeExpr(data []byte) (Expr, error) {
	var t typed
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	switch t.Type {
	case "Identifier":
		var w identJSON
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.decode(), nil

	case "Literal":
		var w struct {
			Value any `json:"value"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return &Literal{Value: w.Value}, nil

	case "UndefinedExpr":
		return &UndefinedExpr{}, nil
	case "ThisExpr":
		return &ThisExpr{}, nil

	case "BinaryExpr", "LogicalExpr":
		var w struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		if t.Type == "BinaryExpr" {
			return &BinaryExpr{Op: w.Op, Left: left, Right: right}, nil
		}
		return &LogicalExpr{Op: w.Op, Left: left, Right: right}, nil

	case "UnaryExpr":
		var w struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: w.Op, Operand: operand}, nil

	case "UpdateExpr":
		var w struct {
			Op      string          `json:"op"`
			Prefix  bool            `json:"prefix"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(w.Operand)
		if err != nil {
			return nil, err
		}
		return &UpdateExpr{Op: w.Op, Prefix: w.Prefix, Operand: operand}, nil

	case "AssignExpr":
		var w struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		left, err := decodeExpr(w.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(w.Right)
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Op: w.Op, Left: left, Right: right}, nil

	case "CallExpr", "NewExpr":
		var w struct {
			Callee json.RawMessage   `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		callee, err := decodeExpr(w.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]Expr, len(w.Args))
		for i, a := range w.Args {
			if args[i], err = decodeExpr(a); err != nil {
				return nil, err
			}
		}
		if t.Type == "CallExpr" {
			return &CallExpr{Callee: callee, Args: args}, nil
		}
		return &NewExpr{Callee: callee, Args: args}, nil

	case "MemberExpr":
		var w struct {
			Object   json.RawMessage `json:"object"`
			Property json.RawMessage `json:"property"`
			Computed bool            `json:"computed"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		obj, err := decodeExpr(w.Object)
		if err != nil {
			return nil, err
		}
		prop, err := decodeExpr(w.Property)
		if err != nil {
			return nil, err
		}
		return &MemberExpr{Object: obj, Property: prop, Computed: w.Computed}, nil

	case "ConditionalExpr":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Cons json.RawMessage `json:"cons"`
			Alt  json.RawMessage `json:"alt"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		cons, err := decodeExpr(w.Cons)
		if err != nil {
			return nil, err
		}
		alt, err := decodeExpr(w.Alt)
		if err != nil {
			return nil, err
		}
		return &ConditionalExpr{Cond: cond, Cons: cons, Alt: alt}, nil

	case "FunctionExpr":
		var w struct {
			Name    *identJSON      `json:"name"`
			Params  []identJSON     `json:"params"`
			Body    json.RawMessage `json:"body"`
			IsArrow bool            `json:"isArrow"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		body, err := decodeBlock(w.Body)
		if err != nil {
			return nil, err
		}
		var name *Identifier
		if w.Name != nil {
			name = w.Name.decode()
		}
		return &FunctionExpr{Name: name, Params: decodeIdents(w.Params), Body: body, IsArrow: w.IsArrow}, nil

	case "ParenExpr":
		var w struct {
			Expr json.RawMessage `json:"expr"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		e, err := decodeExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		return &ParenExpr{Expr: e}, nil

	default:
		return nil, fmt.Errorf("unknown expression type %q", t.Type)
	}
}

type identJSON struct {
	Name string `json:"name"`
}

func (w identJSON) decode() *Identifier { return &Identifier{Name: w.Name} }

func decodeIdents(ws []identJSON) []*Identifier {
	out := make([]*Identifier, len(ws))
	for i, w := range ws {
		out[i] = w.decode()
	}
	return out
}

type declaratorJSON struct {
	Id   identJSON       `json:"id"`
	Init json.RawMessage `json:"init"`
}

func (w declaratorJSON) decode() (*Declarator, error) {
	d := &Declarator{Id: w.Id.decode()}
	if len(w.Init) > 0 {
		e, err := decodeExpr(w.Init)
		if err != nil {
			return nil, err
		}
		d.Init = e
	}
	return d, nil
}

func declKindFromString(s string) DeclKind {
	switch s {
	case "let":
		return DeclLet
	case "const":
		return DeclConst
	default:
		return DeclVar
	}
}
