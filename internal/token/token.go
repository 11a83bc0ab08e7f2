// Package token defines the lexical tokens produced by the scanner and
// consumed by the parser.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	IDENT   // lowercase-initial identifier: x, make_list
	TYPENAME // uppercase-initial identifier: Int32, List
	INT
	FLOAT
	CHAR
	STRING
	RAWSTRING

	ASSIGN // =
	COLON  // :
	COMMA  // ,
	SEMI   // ;
	PIPE   // | (parameter delimiter)
	ARROW  // ->

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET

	// operators, in the precedence order of spec.md §4.6
	OROR   // ||
	ANDAND // &&
	EQ     // ==
	NE     // !=
	LE     // <=
	GE     // >=
	LT     // <
	GT     // >
	BOR    // |
	BXOR   // ^
	BAND   // &
	SHL    // <<
	SHR    // >>
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	PCT    // %
	POW    // **
	NOT    // ! (unary "not" in prefix position, binary "subscript" in infix position)
	TILDE  // ~

	// keywords
	FUN
	IF
	THEN
	ELSE
	CLASS
	INSTANCE
	WITH
	MATCH
	VAR
)

var names = map[Kind]string{
	ILLEGAL: "illegal", EOF: "eof",
	IDENT: "ident", TYPENAME: "typename", INT: "int", FLOAT: "float",
	CHAR: "char", STRING: "string", RAWSTRING: "rawstring",
	ASSIGN: "=", COLON: ":", COMMA: ",", SEMI: ";", PIPE: "|", ARROW: "->",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	OROR: "||", ANDAND: "&&", EQ: "==", NE: "!=", LE: "<=", GE: ">=", LT: "<", GT: ">",
	BOR: "|", BXOR: "^", BAND: "&", SHL: "<<", SHR: ">>",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PCT: "%", POW: "**",
	NOT: "!", TILDE: "~",
	FUN: "fun", IF: "if", THEN: "then", ELSE: "else",
	CLASS: "class", INSTANCE: "instance", WITH: "with", MATCH: "match", VAR: "var",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Keywords maps reserved words to their Kind. Anything not listed here that
// starts with a lowercase letter or underscore lexes as IDENT.
var Keywords = map[string]Kind{
	"fun": FUN, "if": IF, "then": THEN, "else": ELSE,
	"class": CLASS, "instance": INSTANCE, "with": WITH, "match": MATCH,
}

// Pos is a source location: a file name plus a line/column pair, together
// with enough of the surrounding line to render a caret-annotated snippet
// in diagnostics (spec.md §4.2, §7).
type Pos struct {
	File       string
	Line       int
	Column     int
	ByteInLine int
	LineText   string // the full text of Line, without trailing newline
}

// Caret renders a two-line "source line / caret" snippet the way parse and
// semantic errors are displayed.
func (p Pos) Caret() string {
	if p.LineText == "" {
		return ""
	}
	col := p.ByteInLine
	if col < 0 {
		col = 0
	}
	pad := make([]byte, col)
	for i := range pad {
		if i < len(p.LineText) && p.LineText[i] == '\t' {
			pad[i] = '\t'
		} else {
			pad[i] = ' '
		}
	}
	return p.LineText + "\n" + string(pad) + "^"
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Token is one lexeme plus its source position.
type Token struct {
	Kind    Kind
	Lexeme  string
	Pos     Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Lexeme, t.Pos)
}
