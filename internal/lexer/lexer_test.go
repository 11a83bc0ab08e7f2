package lexer

import (
	"testing"

	"github.com/emberlang/ember/internal/token"
)

func scanAll(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New("test.ember", input)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("lex error on %q: %v", input, err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func assertKinds(t *testing.T, input string, want ...token.Kind) {
	t.Helper()
	want = append(want, token.EOF)
	got := kinds(scanAll(t, input))
	if len(got) != len(want) {
		t.Fatalf("scanning %q: got %d tokens %v, want %d %v", input, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scanning %q: token %d: got %s, want %s", input, i, got[i], want[i])
		}
	}
}

func TestLexerPunctuationAndOperators(t *testing.T) {
	assertKinds(t, "+-*/%", token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PCT)
	assertKinds(t, "== != <= >= < >", token.EQ, token.NE, token.LE, token.GE, token.LT, token.GT)
	assertKinds(t, "&& || & | ^ ~", token.ANDAND, token.OROR, token.BAND, token.PIPE, token.BXOR, token.TILDE)
	assertKinds(t, "<< >> ** ->", token.SHL, token.SHR, token.POW, token.ARROW)
	assertKinds(t, "( ) { } [ ] , : ; =", token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.COLON, token.SEMI, token.ASSIGN)
}

func TestLexerIntAndFloat(t *testing.T) {
	toks := scanAll(t, "42 3.14 0")
	want := []struct {
		kind token.Kind
		lex  string
	}{
		{token.INT, "42"}, {token.FLOAT, "3.14"}, {token.INT, "0"}, {token.EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Lexeme != w.lex {
			t.Errorf("token %d: got %s(%q), want %s(%q)", i, toks[i].Kind, toks[i].Lexeme, w.kind, w.lex)
		}
	}
}

func TestLexerIdentifiersAndTypenames(t *testing.T) {
	assertKinds(t, "foo Bar baz_qux Int32", token.IDENT, token.TYPENAME, token.IDENT, token.TYPENAME)
}

func TestLexerKeywords(t *testing.T) {
	assertKinds(t, "fun if then else class instance with match",
		token.FUN, token.IF, token.THEN, token.ELSE, token.CLASS, token.INSTANCE, token.WITH, token.MATCH)
}

func TestLexerStringLiteral(t *testing.T) {
	toks := scanAll(t, `"hello\nworld"`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("got kind %s, want STRING", toks[0].Kind)
	}
	if toks[0].Lexeme != "hello\nworld" {
		t.Errorf("got lexeme %q, want %q", toks[0].Lexeme, "hello\nworld")
	}
}

func TestLexerCharLiteral(t *testing.T) {
	toks := scanAll(t, `'a' '\n'`)
	if toks[0].Kind != token.CHAR || toks[0].Lexeme != "a" {
		t.Errorf("got %s(%q), want CHAR(%q)", toks[0].Kind, toks[0].Lexeme, "a")
	}
	if toks[1].Kind != token.CHAR || toks[1].Lexeme != "\n" {
		t.Errorf("got %s(%q), want CHAR newline", toks[1].Kind, toks[1].Lexeme)
	}
}

func TestLexerRawString(t *testing.T) {
	toks := scanAll(t, `$-$raw \n "quoted" text$-$`)
	if toks[0].Kind != token.RAWSTRING {
		t.Fatalf("got kind %s, want RAWSTRING", toks[0].Kind)
	}
	want := `raw \n "quoted" text`
	if toks[0].Lexeme != want {
		t.Errorf("got lexeme %q, want %q", toks[0].Lexeme, want)
	}
}

func TestLexerComments(t *testing.T) {
	assertKinds(t, "1 // a comment\n+ 2", token.INT, token.PLUS, token.INT)
	assertKinds(t, "1 /* block\ncomment */ + 2", token.INT, token.PLUS, token.INT)
}

func TestLexerIllegalCharacter(t *testing.T) {
	l := New("test.ember", "@")
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected error for illegal character, got nil")
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New("test.ember", `"unterminated`)
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected error for unterminated string, got nil")
	}
}

func TestLexerPositionTracking(t *testing.T) {
	l := New("test.ember", "a\nb c")
	first, _ := l.NextToken()
	if first.Pos.Line != 1 {
		t.Errorf("got line %d, want 1", first.Pos.Line)
	}
	second, _ := l.NextToken()
	if second.Pos.Line != 2 {
		t.Errorf("got line %d, want 2", second.Pos.Line)
	}
	third, _ := l.NextToken()
	if third.Pos.Line != 2 {
		t.Errorf("got line %d, want 2", third.Pos.Line)
	}
}
