// Package parser builds an ast.Block from a token.Token stream using a
// Pratt-style expression parser (spec.md §4.1, §4.6).
//
// The prefix/infix-function-table dispatch loop is grounded on the
// teacher's own parser
// (_examples/funvibe-funxy/internal/parser/expressions_core.go:
// parseExpression(precedence), prefixParseFns/infixParseFns maps), trimmed
// of funxy's newline-sensitivity and recursion-depth guards since Ember has
// no significant-newline rule and the grammar here is small enough that a
// runaway recursion guard is not worth the complexity it added upstream.
package parser

import (
	"fmt"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/errs"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/token"
)

// precedence levels, lowest to highest, per spec.md §4.6.
const (
	_ int = iota
	lowest
	orPrec
	andPrec
	cmpPrec
	bitOrPrec
	bitAndPrec
	shiftPrec
	addPrec
	mulPrec
	powPrec
	prefixPrec
	subscriptPrec
	callPrec
)

// itemPrec parses one comma-separated item of a tuple or list: it sits below
// lowest, so every infix operator still binds inside the item, while
// parseTupleLiteral (which only runs at lowest) does not swallow the commas
// that separate the items.
const itemPrec = lowest - 1

var precedences = map[token.Kind]int{
	token.OROR:   orPrec,
	token.ANDAND: andPrec,
	token.EQ:     cmpPrec, token.NE: cmpPrec, token.LE: cmpPrec, token.GE: cmpPrec,
	token.LT: cmpPrec, token.GT: cmpPrec,
	token.PIPE: bitOrPrec, token.BXOR: bitOrPrec,
	token.BAND:  bitAndPrec,
	token.SHL:   shiftPrec, token.SHR: shiftPrec,
	token.PLUS:  addPrec, token.MINUS: addPrec,
	token.STAR:  mulPrec, token.SLASH: mulPrec, token.PCT: mulPrec,
	token.POW: powPrec,
	// token.NOT in infix position is the binary subscript operator
	// (spec.md §4.6: "! (subscript, binary) = subscript"); in prefix
	// position the same token is unary "not" (parsePrefix), so it never
	// reaches this table during a prefix parse.
	token.NOT: subscriptPrec,
}

// opBuiltinName maps an operator token to the builtin function name the
// parser writes into an OpCall's callable Reference, which SymbolResolver
// then resolves like any other name (spec.md §4.6).
var opBuiltinName = map[token.Kind]string{
	token.OROR: "or", token.ANDAND: "and",
	token.EQ: "eq", token.NE: "ne", token.LE: "le", token.GE: "ge", token.LT: "lt", token.GT: "gt",
	token.PIPE: "bit_or", token.BXOR: "bit_xor", token.BAND: "bit_and",
	token.SHL: "shift_left", token.SHR: "shift_right",
	token.PLUS: "add", token.MINUS: "sub",
	token.STAR: "mul", token.SLASH: "div", token.PCT: "mod",
	token.POW: "exp",
	token.NOT: "subscript",
}

// Parser turns a token stream into an ast.Block.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  token.Token
	peek token.Token

	errs []error
}

// New creates a Parser over the given source text. Only peek is primed with
// the first token: parseStatements advances onto each statement's first
// token itself.
func New(file, input string) *Parser {
	p := &Parser{l: lexer.New(file, input), file: file}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	tok, err := p.l.NextToken()
	if err != nil {
		p.errs = append(p.errs, err)
	}
	p.peek = tok
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if !p.peekIs(k) {
		p.errorf(p.peek.Pos, "expected %s, got %s", k, p.peek.Kind)
		return token.Token{}, false
	}
	p.advance()
	return p.cur, true
}

func (p *Parser) errorf(pos token.Pos, format string, args ...any) {
	p.errs = append(p.errs, &errs.ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Kind]; ok {
		return pr
	}
	return lowest
}

// ParseModule parses a full source file into a single top-level Block,
// calling Block.Finish once on completion (spec.md §4.1).
func ParseModule(file, input string) (*ast.Block, []error) {
	p := New(file, input)
	block := p.parseStatements(token.EOF)
	block.Finish()
	return block, p.errs
}

// parseStatements reads statements until the next token is end or EOF (end
// is RBRACE for `{ ... }` bodies, EOF for a whole module). It is entered
// with cur on the token before the first statement and leaves cur on the
// last token before end.
func (p *Parser) parseStatements(end token.Kind) *ast.Block {
	b := &ast.Block{}
	for !p.peekIs(end) && !p.peekIs(token.EOF) {
		p.advance()
		stmt := p.parseStatement()
		if stmt != nil {
			b.Statements = append(b.Statements, stmt)
		}
		if p.peekIs(token.SEMI) {
			p.advance()
		}
	}
	return b
}

// parseStatement dispatches to a Definition when the current identifier is
// immediately followed by `:` (type annotation) or `=` (binding); spec.md
// §4.1's "var [: T] = expr" names the bound identifier "var", not a literal
// keyword — any bare name can open a Definition this way. Everything else
// is a bare-expression Invocation.
func (p *Parser) parseStatement() ast.Statement {
	if p.curIs(token.IDENT) && (p.peekIs(token.COLON) || p.peekIs(token.ASSIGN)) {
		return p.parseDefinition()
	}
	return p.parseInvocation()
}

func (p *Parser) parseDefinition() ast.Statement {
	pos := p.cur.Pos
	ident := ast.NewIdentifier(p.cur.Pos, p.cur.Lexeme)

	var typeAnn ast.Type
	if p.peekIs(token.COLON) {
		p.advance()
		p.advance()
		typeAnn = p.parseType()
	}
	if _, ok := p.expect(token.ASSIGN); !ok {
		return nil
	}
	p.advance()
	expr := p.parseExpression(lowest)
	return &ast.Definition{SourceInfo: ast.NewSourceInfo(pos), Variable: ident, TypeAnn: typeAnn, Expr: expr}
}

func (p *Parser) parseInvocation() ast.Statement {
	pos := p.cur.Pos
	expr := p.parseExpression(lowest)
	return &ast.Invocation{SourceInfo: ast.NewSourceInfo(pos), Expr: expr}
}

// parseExpression is the Pratt driver: a prefix parse produces the left
// operand, bare-call application binds to it immediately (so it is resolved
// as a single atomic operand before any infix operator ever sees it), then
// infix operators bind while the current precedence exceeds the outer
// caller's (spec.md §4.6).
func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	left = p.parseCallApplication(left, precedence)

	for precedence < p.peekPrecedence() {
		if !isBinaryOp(p.peek.Kind) {
			break
		}
		p.advance()
		left = p.parseInfix(left)
	}

	// The statement-level tuple literal (`a, b, c`) binds looser than any
	// infix operator, so it is layered on once the climb above is done, but
	// only at the statement boundary itself.
	left = p.parseTupleLiteral(left, precedence)
	return left
}

func isBinaryOp(k token.Kind) bool {
	_, ok := precedences[k]
	return ok
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur.Kind {
	case token.INT:
		return p.parseInteger()
	case token.FLOAT:
		return p.parseFloat()
	case token.CHAR:
		return p.parseChar()
	case token.STRING:
		return &ast.StringLit{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Value: p.cur.Lexeme}
	case token.RAWSTRING:
		return &ast.StringLit{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Value: p.cur.Lexeme, Raw: true}
	case token.IDENT:
		return &ast.Reference{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Identifier: ast.NewIdentifier(p.cur.Pos, p.cur.Lexeme)}
	case token.MINUS:
		return p.parseUnary(token.MINUS, "neg")
	case token.PLUS:
		return p.parseUnary(token.PLUS, "") // unary plus is a nop (spec.md §4.6)
	case token.NOT:
		return p.parseUnary(token.NOT, "not")
	case token.TILDE:
		return p.parseUnary(token.TILDE, "bit_not")
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseList()
	case token.LBRACE:
		return p.parseBraceFunction()
	case token.FUN:
		return p.parseFunLiteral()
	case token.IF:
		return p.parseCondition()
	default:
		p.errorf(p.cur.Pos, "unexpected token %s", p.cur.Kind)
		return nil
	}
}

func (p *Parser) parseInteger() ast.Expression {
	v, err := lexer.ParseIntLiteral(p.cur.Lexeme)
	if err != nil {
		p.errorf(p.cur.Pos, "invalid integer literal %q", p.cur.Lexeme)
	}
	return &ast.Integer{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Value: v}
}

func (p *Parser) parseFloat() ast.Expression {
	v, err := lexer.ParseFloatLiteral(p.cur.Lexeme)
	if err != nil {
		p.errorf(p.cur.Pos, "invalid float literal %q", p.cur.Lexeme)
	}
	return &ast.Float{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Value: v}
}

func (p *Parser) parseChar() ast.Expression {
	r := []rune(p.cur.Lexeme)
	var v rune
	if len(r) > 0 {
		v = r[0]
	}
	return &ast.CharLit{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Value: v}
}

// parseUnary handles prefix -, +, !, ~ (spec.md §4.6 prec 10). Unary plus
// parses its operand and discards the wrapper, matching "(unary plus: nop)".
func (p *Parser) parseUnary(op token.Kind, builtin string) ast.Expression {
	pos := p.cur.Pos
	p.advance()
	operand := p.parseExpression(prefixPrec)
	if builtin == "" {
		return operand
	}
	call := ast.Call{SourceInfo: ast.NewSourceInfo(pos), Args: []ast.Expression{operand}}
	ref := &ast.Reference{SourceInfo: ast.NewSourceInfo(pos), Identifier: ast.NewIdentifier(pos, builtin)}
	call.Callable = ref
	return &ast.OpCall{Call: call, Op: op}
}

// parseInfix handles every left-associative binary operator band plus the
// right-associative `**` (spec.md §4.6): it synthesises an OpCall whose
// Callable is a Reference to the operator's builtin name.
func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	opTok := p.cur
	prec := precedences[opTok.Kind]
	p.advance()
	nextPrec := prec
	if opTok.Kind == token.POW {
		nextPrec-- // right-associative: same-precedence RHS binds again
	}
	right := p.parseExpression(nextPrec)

	name := opBuiltinName[opTok.Kind]
	call := ast.Call{
		SourceInfo: ast.NewSourceInfo(opTok.Pos),
		Args:       []ast.Expression{left, right},
	}
	call.Callable = &ast.Reference{SourceInfo: ast.NewSourceInfo(opTok.Pos), Identifier: ast.NewIdentifier(opTok.Pos, name)}
	return &ast.OpCall{Call: call, Op: opTok.Kind}
}

// parseCallApplication implements bare-juxtaposition call syntax
// (`callable arg1 arg2 ...`). Per the original grammar's operand rule
// (`ExprOperand: sor<Call, ExprArgSafe, ExprPrefix>`), a call is resolved as
// a single atomic operand before any infix climbing ever sees the callable,
// so it binds tighter than every infix operator in both directions: `f x +
// y` is `add(f(x), y)` and `1 + f x` is `add(1, f(x))`, never the other way
// round.
//
// It is skipped while parsing a call's own argument (precedence == callPrec,
// the tier parseCallArgs uses): an argument must not itself swallow a
// further bare application, or `f x y` would misparse as `f(x(y))` instead
// of the intended two arguments `x`, `y`.
func (p *Parser) parseCallApplication(left ast.Expression, precedence int) ast.Expression {
	if precedence == callPrec {
		return left
	}
	if isArgStart(p.peek.Kind) {
		args := p.parseCallArgs()
		left = &ast.Call{SourceInfo: ast.NewSourceInfo(left.Pos()), Callable: left, Args: args}
	}
	return left
}

// parseTupleLiteral implements the statement-level tuple literal
// (`a, b, c`), which binds looser than any operator and is only recognised
// at the statement boundary (spec.md §4.1).
func (p *Parser) parseTupleLiteral(left ast.Expression, precedence int) ast.Expression {
	if precedence != lowest {
		return left
	}
	if p.peekIs(token.COMMA) {
		items := []ast.Expression{left}
		for p.peekIs(token.COMMA) {
			p.advance()
			p.advance()
			items = append(items, p.parseExpression(itemPrec))
		}
		left = &ast.Tuple{SourceInfo: ast.NewSourceInfo(items[0].Pos()), Items: items}
	}
	return left
}

// isArgStart reports whether tok can begin a bare call argument: any prefix
// expression starter except another operator or a statement terminator.
func isArgStart(k token.Kind) bool {
	switch k {
	case token.INT, token.FLOAT, token.CHAR, token.STRING, token.RAWSTRING, token.IDENT,
		token.LPAREN, token.LBRACKET, token.LBRACE, token.FUN, token.IF, token.TILDE:
		return true
	}
	return false
}

func (p *Parser) parseCallArgs() []ast.Expression {
	var args []ast.Expression
	for isArgStart(p.peek.Kind) {
		p.advance()
		args = append(args, p.parseExpression(callPrec))
	}
	return args
}

// parseParenOrTuple handles `( expr )` grouping; a parenthesised
// comma-sequence is itself just a Tuple expression per spec.md §4.1's
// statement-level tuple grammar.
func (p *Parser) parseParenOrTuple() ast.Expression {
	pos := p.cur.Pos
	p.advance()
	if p.curIs(token.RPAREN) {
		return &ast.VoidLiteral{SourceInfo: ast.NewSourceInfo(pos)}
	}
	first := p.parseExpression(lowest)
	items := []ast.Expression{first}
	for p.peekIs(token.COMMA) {
		p.advance()
		p.advance()
		items = append(items, p.parseExpression(lowest))
	}
	if _, ok := p.expect(token.RPAREN); !ok {
		return nil
	}
	if len(items) == 1 {
		return items[0]
	}
	return &ast.Tuple{SourceInfo: ast.NewSourceInfo(pos), Items: items}
}

func (p *Parser) parseList() ast.Expression {
	pos := p.cur.Pos
	var items []ast.Expression
	if !p.peekIs(token.RBRACKET) {
		p.advance()
		items = append(items, p.parseExpression(itemPrec))
		for p.peekIs(token.COMMA) {
			p.advance()
			p.advance()
			items = append(items, p.parseExpression(itemPrec))
		}
	}
	if _, ok := p.expect(token.RBRACKET); !ok {
		return nil
	}
	return &ast.List{SourceInfo: ast.NewSourceInfo(pos), Items: items}
}

// parseBraceFunction handles bare `{ ... }`, an anonymous nullary function
// (spec.md §4.1).
func (p *Parser) parseBraceFunction() ast.Expression {
	pos := p.cur.Pos
	body := p.parseStatements(token.RBRACE)
	body.Finish()
	if _, ok := p.expect(token.RBRACE); !ok {
		return nil
	}
	fnType := &ast.FunctionType{SourceInfo: ast.NewSourceInfo(pos)}
	return &ast.Function{SourceInfo: ast.NewSourceInfo(pos), TypeAnn: fnType, Body: body, Name: "<block>"}
}

// parseFunLiteral handles `fun |p1 p2 ...| -> T { body }` (spec.md §4.1):
// `|`-delimited parameters, each optionally annotated `name: Type`, and an
// optional `-> Result` (omitted means Auto, inferred from the body). An
// empty parameter list `||` lexes as the single OROR token.
func (p *Parser) parseFunLiteral() ast.Expression {
	pos := p.cur.Pos
	empty := p.peekIs(token.OROR)
	if empty {
		p.advance()
	} else if _, ok := p.expect(token.PIPE); !ok {
		return nil
	}
	var names []string
	var types []ast.Type
	for !empty && !p.peekIs(token.PIPE) {
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			return nil
		}
		names = append(names, nameTok.Lexeme)
		if p.peekIs(token.COLON) {
			p.advance()
			p.advance()
			types = append(types, p.parseType())
		} else {
			types = append(types, nil)
		}
	}
	if !empty {
		if _, ok := p.expect(token.PIPE); !ok {
			return nil
		}
	}

	var result ast.Type
	if p.peekIs(token.ARROW) {
		p.advance()
		p.advance()
		result = p.parseType()
	}

	fnType := &ast.FunctionType{SourceInfo: ast.NewSourceInfo(pos), ParamNames: names, ParamTypes: types, Result: result}

	if p.peekIs(token.LBRACE) {
		p.advance()
		body := p.parseStatements(token.RBRACE)
		body.Finish()
		if _, ok := p.expect(token.RBRACE); !ok {
			return nil
		}
		return &ast.Function{SourceInfo: ast.NewSourceInfo(pos), TypeAnn: fnType, Body: body, Name: "<lambda>"}
	}

	// lambda shorthand: `fun |p| expr` (or `fun |p| -> T expr`) with no
	// braces; the body is the single expression after the parameter list.
	p.advance()
	expr := p.parseExpression(lowest)
	body := &ast.Block{Statements: []ast.Statement{&ast.Invocation{Expr: expr}}}
	body.Finish()
	return &ast.Function{SourceInfo: ast.NewSourceInfo(pos), TypeAnn: fnType, Body: body, Name: "<lambda>"}
}

func (p *Parser) parseCondition() ast.Expression {
	pos := p.cur.Pos
	p.advance()
	cond := p.parseExpression(lowest)
	if _, ok := p.expect(token.THEN); !ok {
		return nil
	}
	p.advance()
	then := p.parseExpression(lowest)
	if _, ok := p.expect(token.ELSE); !ok {
		return nil
	}
	p.advance()
	els := p.parseExpression(lowest)
	return &ast.Condition{SourceInfo: ast.NewSourceInfo(pos), Cond: cond, Then: then, Else: els}
}

// parseType parses a type annotation: a TypeName, a `[T]` ListType, or a
// `|T1 T2| -> R` FunctionType used in parameter/variable position.
func (p *Parser) parseType() ast.Type {
	switch p.cur.Kind {
	case token.TYPENAME:
		return &ast.TypeName{SourceInfo: ast.NewSourceInfo(p.cur.Pos), Name: p.cur.Lexeme}
	case token.LBRACKET:
		pos := p.cur.Pos
		p.advance()
		elem := p.parseType()
		if _, ok := p.expect(token.RBRACKET); !ok {
			return nil
		}
		return &ast.ListType{SourceInfo: ast.NewSourceInfo(pos), Elem: elem}
	case token.PIPE:
		pos := p.cur.Pos
		var types []ast.Type
		for !p.peekIs(token.PIPE) {
			p.advance()
			types = append(types, p.parseType())
		}
		p.advance() // closing |
		var result ast.Type
		if p.peekIs(token.ARROW) {
			p.advance()
			p.advance()
			result = p.parseType()
		}
		names := make([]string, len(types))
		return &ast.FunctionType{SourceInfo: ast.NewSourceInfo(pos), ParamNames: names, ParamTypes: types, Result: result}
	default:
		p.errorf(p.cur.Pos, "expected type, got %s", p.cur.Kind)
		return nil
	}
}
