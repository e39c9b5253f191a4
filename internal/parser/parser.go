// Package parser builds the surface-grammar AST (here emitted directly as
// internal/ast's core forms, since this language's surface sugar is thin
// enough not to warrant a separate surface tree — see DESIGN.md) from a
// lumen token stream.
package parser

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/lexer"
)

// Parser is a recursive-descent, operator-precedence expression parser.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// New creates a Parser over a pre-tokenized source.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// ParseFile tokenizes and parses a complete lumen program, returning its
// top-level expression.
func ParseFile(file, source string) (ast.Node, error) {
	toks, err := lexer.Tokenize(file, source)
	if err != nil {
		return nil, err
	}
	p := New(toks)
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.EOF {
		return nil, fmt.Errorf("%s: unexpected trailing token %q", p.cur().Pos, p.cur().Literal)
	}
	return expr, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekN(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	if p.cur().Type != tt {
		return lexer.Token{}, fmt.Errorf("%s: expected %s, got %q", p.cur().Pos, what, p.cur().Literal)
	}
	return p.advance(), nil
}

// precedence table, lowest to highest, for binary operators.
var binPrec = map[lexer.TokenType]int{
	lexer.OR_OR:  1,
	lexer.AND_AND: 2,
	lexer.PIPE:   3,
	lexer.CARET:  4,
	lexer.AMP:    5,
	lexer.EQ:     6,
	lexer.NE:     6,
	lexer.LT:     7,
	lexer.LE:     7,
	lexer.GT:     7,
	lexer.GE:     7,
	lexer.SHL:    8,
	lexer.SHR:    8,
	lexer.PLUS:   9,
	lexer.MINUS:  9,
	lexer.STAR:   10,
	lexer.SLASH:  10,
	lexer.PERCENT: 10,
}

var binOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.PLUS:    ast.OpPlus,
	lexer.MINUS:   ast.OpMinus,
	lexer.STAR:    ast.OpMul,
	lexer.SLASH:   ast.OpDiv,
	lexer.PERCENT: ast.OpMod,
	lexer.SHL:     ast.OpShl,
	lexer.SHR:     ast.OpShr,
	lexer.AMP:     ast.OpBitAnd,
	lexer.PIPE:    ast.OpBitOr,
	lexer.CARET:   ast.OpBitXor,
	lexer.LT:      ast.OpLt,
	lexer.LE:      ast.OpLe,
	lexer.GT:      ast.OpGt,
	lexer.GE:      ast.OpGe,
	lexer.AND_AND: ast.OpAnd,
	lexer.OR_OR:   ast.OpOr,
}

// equalityTokens are not true core binary operators: internal/analyzer
// rewrites them into calls to the `equals` builtin (spec.md §4.F.4).
// We still parse them as a temporary Binary node tagged with a sentinel op
// so internal/analyzer has something to match on.
const (
	opEqualSentinel    ast.BinaryOp = 1000
	opNotEqualSentinel ast.BinaryOp = 1001
)

func (p *Parser) parseExpr(minPrec int) (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tt := p.cur().Type
		if tt == lexer.EQ || tt == lexer.NE {
			if minPrec > binPrec[lexer.EQ] {
				break
			}
			pos := p.cur().Pos
			isEq := tt == lexer.EQ
			p.advance()
			right, err := p.parseExpr(binPrec[lexer.EQ] + 1)
			if err != nil {
				return nil, err
			}
			op := opEqualSentinel
			if !isEq {
				op = opNotEqualSentinel
			}
			left = &ast.Binary{Base: ast.Base{P: pos}, Left: left, Right: right, Op: op}
			continue
		}

		prec, ok := binPrec[tt]
		if !ok || prec < minPrec {
			break
		}
		op := binOps[tt]
		pos := p.cur().Pos
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Base: ast.Base{P: pos}, Left: left, Right: right, Op: op}
	}

	return left, nil
}

func (p *Parser) parseUnary() (ast.Node, error) {
	pos := p.cur().Pos
	switch p.cur().Type {
	case lexer.BANG:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{P: pos}, Expr: e, Op: ast.OpNot}, nil
	case lexer.MINUS:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{P: pos}, Expr: e, Op: ast.OpNeg}, nil
	case lexer.PLUS:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{P: pos}, Expr: e, Op: ast.OpPos}, nil
	case lexer.TILDE:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{P: pos}, Expr: e, Op: ast.OpBitNot}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cur().Type {
		case lexer.DOT:
			pos := p.cur().Pos
			p.advance()
			name, err := p.expect(lexer.IDENT, "field name")
			if err != nil {
				return nil, err
			}
			if _, ok := expr.(*ast.Super); ok {
				expr = &ast.SuperIndex{Base: ast.Base{P: pos}, Index: &ast.LiteralString{Value: name.Literal}}
			} else {
				expr = &ast.Index{Base: ast.Base{P: pos}, Target: expr, Index: &ast.LiteralString{Value: name.Literal}}
			}
		case lexer.LBRACKET:
			pos := p.cur().Pos
			p.advance()
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
			if _, ok := expr.(*ast.Super); ok {
				expr = &ast.SuperIndex{Base: ast.Base{P: pos}, Index: idx}
			} else {
				expr = &ast.Index{Base: ast.Base{P: pos}, Target: expr, Index: idx}
			}
		case lexer.LPAREN:
			pos := p.cur().Pos
			args, tailstrict, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.Apply{Base: ast.Base{P: pos}, Target: expr, Args: args, TailStrict: tailstrict}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Arg, bool, error) {
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, false, err
	}
	var args []ast.Arg
	seenNamed := false
	for p.cur().Type != lexer.RPAREN {
		if len(args) > 0 {
			if _, err := p.expect(lexer.COMMA, ","); err != nil {
				return nil, false, err
			}
			if p.cur().Type == lexer.RPAREN {
				break
			}
		}
		name := ""
		if p.cur().Type == lexer.IDENT && p.peekN(1).Type == lexer.ASSIGN {
			name = p.advance().Literal
			p.advance() // '='
			seenNamed = true
		} else if seenNamed {
			return nil, false, fmt.Errorf("%s: positional argument after named argument", p.cur().Pos)
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, false, err
		}
		args = append(args, ast.Arg{Name: name, Value: val})
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, false, err
	}
	tailstrict := false
	if p.cur().Type == lexer.KW_TAILSTRICT {
		p.advance()
		tailstrict = true
	}
	return args, tailstrict, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.cur()
	pos := tok.Pos

	switch tok.Type {
	case lexer.KW_NULL:
		p.advance()
		return &ast.LiteralNull{Base: ast.Base{P: pos}}, nil
	case lexer.KW_TRUE:
		p.advance()
		return &ast.LiteralBoolean{Base: ast.Base{P: pos}, Value: true}, nil
	case lexer.KW_FALSE:
		p.advance()
		return &ast.LiteralBoolean{Base: ast.Base{P: pos}, Value: false}, nil
	case lexer.NUMBER:
		p.advance()
		var f float64
		if _, err := fmt.Sscanf(tok.Literal, "%g", &f); err != nil {
			return nil, fmt.Errorf("%s: malformed number %q", pos, tok.Literal)
		}
		return &ast.LiteralNumber{Base: ast.Base{P: pos}, Value: f}, nil
	case lexer.STRING, lexer.VERBATIM_STRING:
		p.advance()
		return &ast.LiteralString{Base: ast.Base{P: pos}, Value: tok.Value}, nil
	case lexer.KW_SELF:
		p.advance()
		return &ast.Self{Base: ast.Base{P: pos}}, nil
	case lexer.KW_SUPER:
		p.advance()
		return &ast.Super{Base: ast.Base{P: pos}}, nil
	case lexer.DOLLAR:
		p.advance()
		return &ast.Var{Base: ast.Base{P: pos}, Name: "$"}, nil
	case lexer.IDENT:
		p.advance()
		return &ast.Var{Base: ast.Base{P: pos}, Name: tok.Literal}, nil
	case lexer.LPAREN:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.LBRACKET:
		return p.parseArray(pos)
	case lexer.LBRACE:
		return p.parseObject(pos)
	case lexer.KW_LOCAL:
		return p.parseLocal(pos)
	case lexer.KW_IF:
		return p.parseIf(pos)
	case lexer.KW_FUNCTION:
		return p.parseFunction(pos)
	case lexer.KW_IMPORT:
		p.advance()
		s, err := p.expect(lexer.STRING, "import path string")
		if err != nil {
			return nil, err
		}
		return &ast.Import{Base: ast.Base{P: pos}, Path: s.Value}, nil
	case lexer.KW_IMPORTSTR:
		p.advance()
		s, err := p.expect(lexer.STRING, "importstr path string")
		if err != nil {
			return nil, err
		}
		return &ast.ImportStr{Base: ast.Base{P: pos}, Path: s.Value}, nil
	case lexer.KW_ERROR:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return &ast.Error{Base: ast.Base{P: pos}, Expr: e}, nil
	case lexer.KW_ASSERT:
		return p.parseTopAssert(pos)
	}

	return nil, fmt.Errorf("%s: unexpected token %q", pos, tok.Literal)
}

// parseTopAssert handles `assert cond [: msg]; rest` as sugar for
// `if cond then rest else error msg`.
func (p *Parser) parseTopAssert(pos lexer.Position) (ast.Node, error) {
	p.advance()
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	var msg ast.Node = &ast.LiteralString{Value: "Assertion failed"}
	if p.cur().Type == lexer.COLON {
		p.advance()
		msg, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI, ";"); err != nil {
		return nil, err
	}
	rest, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.If{
		Base: ast.Base{P: pos},
		Cond: cond,
		Then: rest,
		Else: &ast.Error{Base: ast.Base{P: pos}, Expr: msg},
	}, nil
}

func (p *Parser) parseArray(pos lexer.Position) (ast.Node, error) {
	p.advance() // [
	var elems []ast.Node
	for p.cur().Type != lexer.RBRACKET {
		if len(elems) > 0 {
			if _, err := p.expect(lexer.COMMA, ","); err != nil {
				return nil, err
			}
			if p.cur().Type == lexer.RBRACKET {
				break
			}
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return &ast.Array{Base: ast.Base{P: pos}, Elements: elems}, nil
}

func (p *Parser) parseLocal(pos lexer.Position) (ast.Node, error) {
	p.advance() // local
	var binds []ast.LocalBind
	for {
		name, err := p.expect(lexer.IDENT, "bound name")
		if err != nil {
			return nil, err
		}
		var val ast.Node
		if p.cur().Type == lexer.LPAREN {
			// function sugar: local f(x, y) = body;
			fn, err := p.parseFunctionTail(p.cur().Pos)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.ASSIGN, "="); err != nil {
				return nil, err
			}
			body, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			fn.Body = body
			val = fn
		} else {
			if _, err := p.expect(lexer.ASSIGN, "="); err != nil {
				return nil, err
			}
			val, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
		binds = append(binds, ast.LocalBind{Name: name.Literal, Value: val})
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.SEMI, ";"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Local{Base: ast.Base{P: pos}, Binds: binds, Body: body}, nil
}

func (p *Parser) parseIf(pos lexer.Position) (ast.Node, error) {
	p.advance() // if
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KW_THEN, "then"); err != nil {
		return nil, err
	}
	thenE, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	var elseE ast.Node = &ast.LiteralNull{Base: ast.Base{P: pos}}
	if p.cur().Type == lexer.KW_ELSE {
		p.advance()
		elseE, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Base: ast.Base{P: pos}, Cond: cond, Then: thenE, Else: elseE}, nil
}

// parseObject parses both plain object literals and single-clause object
// comprehensions (spec.md §4.F.6, §4.F.7). A comprehension is recognized by
// a lone `[nameExpr]: valueExpr for iterVar in arr` member list: once a
// `for` is seen, no other members are permitted, mirroring the source
// language's own grammar restriction.
func (p *Parser) parseObject(pos lexer.Position) (ast.Node, error) {
	p.advance() // {

	var fields []ast.ObjectField
	var asserts []ast.Node

	for p.cur().Type != lexer.RBRACE {
		if len(fields) > 0 || len(asserts) > 0 {
			if _, err := p.expect(lexer.COMMA, ","); err != nil {
				return nil, err
			}
			if p.cur().Type == lexer.RBRACE {
				break
			}
		}

		if p.cur().Type == lexer.KW_ASSERT {
			p.advance()
			cond, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			var msg ast.Node = &ast.LiteralString{Value: "Assertion failed"}
			if p.cur().Type == lexer.COLON {
				p.advance()
				msg, err = p.parseExpr(0)
				if err != nil {
					return nil, err
				}
			}
			asserts = append(asserts, &ast.If{
				Base: ast.Base{P: pos},
				Cond: &ast.Unary{Op: ast.OpNot, Expr: cond},
				Then: &ast.Error{Expr: msg},
				Else: &ast.LiteralNull{},
			})
			continue
		}

		var nameExpr ast.Node
		fieldPos := p.cur().Pos
		switch p.cur().Type {
		case lexer.IDENT, lexer.STRING, lexer.VERBATIM_STRING:
			tok := p.advance()
			lit := tok.Literal
			if tok.Type == lexer.STRING || tok.Type == lexer.VERBATIM_STRING {
				lit = tok.Value
			}
			nameExpr = &ast.LiteralString{Base: ast.Base{P: fieldPos}, Value: lit}
		case lexer.LBRACKET:
			p.advance()
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
				return nil, err
			}
			nameExpr = e

			// Object comprehension: `[nameExpr]: valueExpr for iterVar in arr`.
			if p.cur().Type == lexer.COLON {
				p.advance()
				valueExpr, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				if p.cur().Type == lexer.KW_FOR {
					p.advance()
					iterVar, err := p.expect(lexer.IDENT, "comprehension variable")
					if err != nil {
						return nil, err
					}
					if _, err := p.expect(lexer.KW_IN, "in"); err != nil {
						return nil, err
					}
					arr, err := p.parseExpr(0)
					if err != nil {
						return nil, err
					}
					if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
						return nil, err
					}
					return &ast.ObjectComprehensionSimple{
						Base:      ast.Base{P: pos},
						NameExpr:  nameExpr,
						ValueExpr: valueExpr,
						IterVar:   iterVar.Literal,
						Array:     arr,
					}, nil
				}
				fields = append(fields, ast.ObjectField{NameExpr: nameExpr, Hide: ast.HideVisible, Body: valueExpr})
				continue
			}
		default:
			return nil, fmt.Errorf("%s: expected field name or '}'", p.cur().Pos)
		}

		// Method sugar: `name(params): body`.
		var fn *ast.Function
		if p.cur().Type == lexer.LPAREN {
			f, err := p.parseFunctionTail(p.cur().Pos)
			if err != nil {
				return nil, err
			}
			fn = f
		}

		hide := ast.HideVisible
		plusField := false
		switch p.cur().Type {
		case lexer.COLON_COLON_COLON:
			p.advance()
			hide = ast.HideInherit
		case lexer.COLON_COLON:
			p.advance()
			hide = ast.HideHidden
		case lexer.PLUS_COLON:
			p.advance()
			plusField = true
		case lexer.COLON:
			p.advance()
		default:
			return nil, fmt.Errorf("%s: expected ':', '::', ':::' or '+:' after field name", p.cur().Pos)
		}

		body, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if fn != nil {
			fn.Body = body
			body = fn
		}
		if plusField {
			body = &ast.Binary{
				Base:  ast.Base{P: fieldPos},
				Left:  &ast.SuperIndex{Base: ast.Base{P: fieldPos}, Index: nameExpr},
				Right: body,
				Op:    ast.OpPlus,
			}
		}

		fields = append(fields, ast.ObjectField{NameExpr: nameExpr, Hide: hide, Body: body})
	}

	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return &ast.DesugaredObject{Base: ast.Base{P: pos}, Fields: fields, Asserts: asserts}, nil
}

func (p *Parser) parseFunction(pos lexer.Position) (ast.Node, error) {
	p.advance() // function
	return p.parseFunctionTail(pos)
}

// parseFunctionTail parses "(params) [body]" after the "function" keyword
// (or after the bound name, for `local f(...) = body;` sugar); Body is
// left nil when the caller will fill it in separately.
func (p *Parser) parseFunctionTail(pos lexer.Position) (*ast.Function, error) {
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.cur().Type != lexer.RPAREN {
		if len(params) > 0 {
			if _, err := p.expect(lexer.COMMA, ","); err != nil {
				return nil, err
			}
			if p.cur().Type == lexer.RPAREN {
				break
			}
		}
		name, err := p.expect(lexer.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		var def ast.Node
		if p.cur().Type == lexer.ASSIGN {
			p.advance()
			def, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ast.Param{Name: name.Literal, Default: def})
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	fn := &ast.Function{Base: ast.Base{P: pos}, Params: params}
	if p.cur().Type != lexer.ASSIGN && p.cur().Type != lexer.SEMI {
		body, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		fn.Body = body
	}
	return fn, nil
}
