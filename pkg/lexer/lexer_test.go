package lexer

import "testing"

func tokenTypes(input string) []TokenType {
	l := New(input)
	var out []TokenType
	for {
		tok := l.NextToken()
		out = append(out, tok.Type)
		if tok.Type == EOF {
			return out
		}
	}
}

func TestOperators(t *testing.T) {
	got := tokenTypes("+ - * ** / % == != < > <= >= ! && || ? : .. ... ( ) ,")
	want := []TokenType{
		PLUS, MINUS, STAR, STARSTAR, SLASH, PERCENT, EQ, NE, LT, GT, LE, GE,
		BANG, ANDAND, OROR, QUESTION, COLON, DOTDOT, DOTDOTDOT, LPAREN, RPAREN, COMMA, EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	for _, lit := range []string{"0", "123", "1.5", "0.5", "5.", ".5", "1e10", "1.5e-10", "1E+5"} {
		l := New(lit)
		tok := l.NextToken()
		if tok.Type != NUMBER || tok.Literal != lit {
			t.Fatalf("lexing %q: got {%s %q}", lit, tok.Type, tok.Literal)
		}
		if eof := l.NextToken(); eof.Type != EOF {
			t.Fatalf("lexing %q: expected EOF after number, got %s %q", lit, eof.Type, eof.Literal)
		}
	}
}

func TestNumberFollowedByRange(t *testing.T) {
	// "1..5" must not be lexed as the single malformed number "1." followed
	// by ".5"; the dot only starts a fraction when followed by a digit.
	got := tokenTypes("1..5")
	want := []TokenType{NUMBER, DOTDOT, NUMBER, EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestIdentifiers(t *testing.T) {
	l := New("foo_bar123 x")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "foo_bar123" {
		t.Fatalf("got {%s %q}", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "x" {
		t.Fatalf("got {%s %q}", tok.Type, tok.Literal)
	}
}

func TestLineColumnTracking(t *testing.T) {
	l := New("a\nbb")
	first := l.NextToken()
	if first.Line != 1 || first.Column != 1 {
		t.Fatalf("expected 1:1, got %d:%d", first.Line, first.Column)
	}
	second := l.NextToken()
	if second.Line != 2 || second.Column != 1 {
		t.Fatalf("expected 2:1, got %d:%d", second.Line, second.Column)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != ILLEGAL || tok.Literal != "@" {
		t.Fatalf("got {%s %q}", tok.Type, tok.Literal)
	}
}
