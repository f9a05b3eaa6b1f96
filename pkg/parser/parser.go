// Package parser implements mathfun's recursive-descent parser: source
// text plus a caller-supplied argument list and context become a typed
// ast.Expr, or a positioned *mferrors.Error. See spec.md §4.2 for the
// full grammar; each grammar production below is one parse* method, the
// same shape the original mathfun C library's parser.c uses and the
// general recursive-descent approach paserati's pkg/parser follows.
package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/panzi/mathfun-sub000/pkg/ast"
	"github.com/panzi/mathfun-sub000/pkg/context"
	"github.com/panzi/mathfun-sub000/pkg/lexer"
	"github.com/panzi/mathfun-sub000/pkg/mferrors"
	"github.com/panzi/mathfun-sub000/pkg/source"
	"github.com/panzi/mathfun-sub000/pkg/value"
)

// Parser turns one source text into a typed AST against a fixed
// argument list and context.
type Parser struct {
	lex *lexer.Lexer
	src *source.File
	ctx *context.Context

	argNames []string
	argIndex map[string]int

	cur  lexer.Token
	peek lexer.Token
}

// ValidateArgNames checks the argument name list the way compile() must
// before it ever touches the lexer (spec.md §7: illegal_name and
// duplicate_argument are raised "from compile.argnames", not from the
// grammar).
func ValidateArgNames(argNames []string) error {
	seen := make(map[string]bool, len(argNames))
	for _, name := range argNames {
		if !context.ValidName(name) {
			return mferrors.New(mferrors.IllegalName, "illegal argument name: %q", name)
		}
		if seen[name] {
			return mferrors.New(mferrors.DuplicateArgument, "duplicate argument name: %q", name)
		}
		seen[name] = true
	}
	if len(argNames) > context.MaxFrameRegs {
		return mferrors.New(mferrors.TooManyArguments,
			"%d arguments given, more than the %d supported", len(argNames), context.MaxFrameRegs)
	}
	return nil
}

// New creates a Parser for src against ctx and argNames. Callers must
// run ValidateArgNames first; New does not repeat that check.
func New(src *source.File, ctx *context.Context, argNames []string) *Parser {
	p := &Parser{
		lex:      lexer.New(src.Content),
		src:      src,
		ctx:      ctx,
		argNames: argNames,
		argIndex: make(map[string]int, len(argNames)),
	}
	for i, name := range argNames {
		p.argIndex[name] = i
	}
	p.cur = p.lex.NextToken()
	p.peek = p.lex.NextToken()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

// Parse parses a complete expression and checks for trailing garbage.
func (p *Parser) Parse() (ast.Expr, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.EOF {
		return nil, p.errAt(mferrors.TrailingGarbage, p.cur, structuralSpan(p.cur),
			"trailing garbage after expression: %q", p.cur.Literal)
	}
	return expr, nil
}

// ---- position / error helpers ----

func (p *Parser) posAt(tok lexer.Token, span int) mferrors.Position {
	return mferrors.Position{
		Line: tok.Line, Column: tok.Column,
		ByteOffset: tok.StartPos, Span: span, Source: p.src,
	}
}

func (p *Parser) errAt(kind mferrors.Kind, tok lexer.Token, span int, format string, args ...interface{}) error {
	return mferrors.NewAt(kind, p.posAt(tok, span), format, args...)
}

func identSpan(tok lexer.Token) int { return len(tok.Literal) }

// structuralSpan is the distance from the start of tok to the current
// cursor; for a single already-consumed token that is just its length,
// matching spec.md's "distance from start-of-token to current cursor"
// rule for structural errors.
func structuralSpan(tok lexer.Token) int {
	if n := tok.EndPos - tok.StartPos; n > 0 {
		return n
	}
	return 1
}

// ---- expr ::= iif ----

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseIif() }

// iif ::= or_expr ( '?' or_expr ':' or_expr )?      (right-assoc)
//
// The then/else arms recurse into parseIif (not just or_expr) so chained
// ternaries (`a ? b : c ? d : e`) parse right-associatively without
// requiring parens around the nested conditional, matching the "(right-
// assoc)" annotation in spec.md's grammar.
func (p *Parser) parseIif() (ast.Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.QUESTION {
		return cond, nil
	}
	qTok := p.cur
	p.advance()

	if cond.Type() != value.Boolean {
		return nil, p.errAt(mferrors.TypeError, qTok, 1,
			"conditional requires a boolean condition, got %s", cond.Type())
	}

	then, err := p.parseIif()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.COLON {
		return nil, p.errAt(mferrors.ExpectedColon, p.cur, structuralSpan(p.cur), "expected ':' in conditional expression")
	}
	p.advance()

	els, err := p.parseIif()
	if err != nil {
		return nil, err
	}
	if then.Type() != els.Type() {
		return nil, p.errAt(mferrors.TypeError, qTok, 1,
			"conditional branches have different types: %s vs %s", then.Type(), els.Type())
	}
	return ast.NewIif(cond, then, els, p.posAt(qTok, 1)), nil
}

// or_expr ::= and_expr ('||' and_expr)*
func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.OROR {
		tok := p.cur
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if left.Type() != value.Boolean {
			return nil, p.errAt(mferrors.TypeError, tok, 1, "'||' requires boolean operands, left is %s", left.Type())
		}
		if right.Type() != value.Boolean {
			return nil, p.errAt(mferrors.TypeError, tok, 1, "'||' requires boolean operands, right is %s", right.Type())
		}
		left = ast.NewBinary(ast.OpOr, left, right, p.posAt(tok, 1))
	}
	return left, nil
}

// and_expr ::= not_expr ('&&' not_expr)*
func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.ANDAND {
		tok := p.cur
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if left.Type() != value.Boolean {
			return nil, p.errAt(mferrors.TypeError, tok, 1, "'&&' requires boolean operands, left is %s", left.Type())
		}
		if right.Type() != value.Boolean {
			return nil, p.errAt(mferrors.TypeError, tok, 1, "'&&' requires boolean operands, right is %s", right.Type())
		}
		left = ast.NewBinary(ast.OpAnd, left, right, p.posAt(tok, 1))
	}
	return left, nil
}

// not_expr ::= '!' not_expr | cmp_expr
func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Type == lexer.BANG {
		tok := p.cur
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if x.Type() != value.Boolean {
			return nil, p.errAt(mferrors.TypeError, tok, 1, "'!' requires a boolean operand, got %s", x.Type())
		}
		return ast.NewUnary(ast.OpNot, x, p.posAt(tok, 1)), nil
	}
	return p.parseCmp()
}

var cmpOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.EQ: ast.OpEq, lexer.NE: ast.OpNe,
	lexer.LT: ast.OpLt, lexer.GT: ast.OpGt,
	lexer.LE: ast.OpLe, lexer.GE: ast.OpGe,
}

// cmp_expr ::= in_expr (('=='|'!='|'<'|'>'|'<='|'>=') in_expr)?   (non-assoc)
func (p *Parser) parseCmp() (ast.Expr, error) {
	left, err := p.parseIn()
	if err != nil {
		return nil, err
	}
	op, ok := cmpOps[p.cur.Type]
	if !ok {
		return left, nil
	}
	tok := p.cur
	p.advance()
	right, err := p.parseIn()
	if err != nil {
		return nil, err
	}

	switch {
	case left.Type() == value.Number && right.Type() == value.Number:
		return ast.NewBinary(op, left, right, p.posAt(tok, 1)), nil
	case left.Type() == value.Boolean && right.Type() == value.Boolean:
		if op == ast.OpEq {
			return ast.NewBinary(ast.OpBEq, left, right, p.posAt(tok, 1)), nil
		}
		if op == ast.OpNe {
			return ast.NewBinary(ast.OpBNe, left, right, p.posAt(tok, 1)), nil
		}
		return nil, p.errAt(mferrors.TypeError, tok, 1, "%s is not defined for booleans", tok.Literal)
	default:
		return nil, p.errAt(mferrors.TypeError, tok, 1,
			"comparison operands have mismatched types: %s vs %s", left.Type(), right.Type())
	}
}

// in_expr ::= a_expr ('in' range)?
func (p *Parser) parseIn() (ast.Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("in") {
		return left, nil
	}
	tok := p.cur
	p.advance()

	if left.Type() != value.Number {
		return nil, p.errAt(mferrors.TypeError, tok, 1, "'in' requires a numeric value, got %s", left.Type())
	}

	rng, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	return ast.NewIn(left, rng, p.posAt(tok, 1)), nil
}

// range ::= a_expr ('..'|'...') a_expr
func (p *Parser) parseRange() (*ast.RangeExpr, error) {
	lo, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	var inclusive bool
	switch p.cur.Type {
	case lexer.DOTDOT:
		inclusive = false
	case lexer.DOTDOTDOT:
		inclusive = true
	default:
		return nil, p.errAt(mferrors.ExpectedNumber, p.cur, structuralSpan(p.cur), "expected '..' or '...' in range")
	}
	tok := p.cur
	p.advance()

	if lo.Type() != value.Number {
		return nil, p.errAt(mferrors.TypeError, tok, 1, "range bounds must be numeric")
	}

	hi, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if hi.Type() != value.Number {
		return nil, p.errAt(mferrors.TypeError, tok, 1, "range bounds must be numeric")
	}
	return ast.NewRange(lo, hi, inclusive, p.posAt(tok, 1)), nil
}

var addOps = map[lexer.TokenType]ast.BinaryOp{lexer.PLUS: ast.OpAdd, lexer.MINUS: ast.OpSub}

// a_expr ::= m_expr (('+'|'-') m_expr)*
func (p *Parser) parseAdd() (ast.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := addOps[p.cur.Type]
		if !ok {
			return left, nil
		}
		tok := p.cur
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		if err := p.requireNumeric(tok, left, right); err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right, p.posAt(tok, 1))
	}
}

var mulOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.STAR: ast.OpMul, lexer.SLASH: ast.OpDiv, lexer.PERCENT: ast.OpMod,
}

// m_expr ::= u_expr (('*'|'/'|'%') u_expr)*
func (p *Parser) parseMul() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := mulOps[p.cur.Type]
		if !ok {
			return left, nil
		}
		tok := p.cur
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if err := p.requireNumeric(tok, left, right); err != nil {
			return nil, err
		}
		left = ast.NewBinary(op, left, right, p.posAt(tok, 1))
	}
}

func (p *Parser) requireNumeric(tok lexer.Token, operands ...ast.Expr) error {
	for _, e := range operands {
		if e.Type() != value.Number {
			return p.errAt(mferrors.TypeError, tok, 1, "%q requires numeric operands, got %s", tok.Literal, e.Type())
		}
	}
	return nil
}

// u_expr ::= ('+'|'-') u_expr | power
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Type == lexer.PLUS {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if x.Type() != value.Number {
			return nil, p.errAt(mferrors.TypeError, p.cur, 1, "unary '+' requires a numeric operand")
		}
		return x, nil // unary plus is a no-op, no AST node needed
	}
	if p.cur.Type == lexer.MINUS {
		tok := p.cur
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if x.Type() != value.Number {
			return nil, p.errAt(mferrors.TypeError, tok, 1, "unary '-' requires a numeric operand, got %s", x.Type())
		}
		return ast.NewUnary(ast.OpNeg, x, p.posAt(tok, 1)), nil
	}
	return p.parsePower()
}

// power ::= atom ('**' u_expr)?      (right-assoc)
func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.STARSTAR {
		return left, nil
	}
	tok := p.cur
	p.advance()
	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if err := p.requireNumeric(tok, left, right); err != nil {
		return nil, err
	}
	return ast.NewBinary(ast.OpPow, left, right, p.posAt(tok, 1)), nil
}

// atom ::= number | 'true' | 'false'
//        | identifier ( '(' expr (',' expr)* ')' )?
//        | '(' expr ')'
func (p *Parser) parseAtom() (ast.Expr, error) {
	switch p.cur.Type {
	case lexer.NUMBER:
		return p.parseNumberLiteral()
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != lexer.RPAREN {
			return nil, p.errAt(mferrors.ExpectedCloseParen, p.cur, structuralSpan(p.cur), "expected ')'")
		}
		p.advance()
		return inner, nil
	case lexer.IDENT:
		return p.parseIdentOrCall()
	default:
		return nil, p.errAt(mferrors.ExpectedNumber, p.cur, structuralSpan(p.cur),
			"expected a number, identifier, or '(', got %q", p.cur.Literal)
	}
}

func (p *Parser) parseNumberLiteral() (ast.Expr, error) {
	tok := p.cur
	f, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return nil, p.errAt(mferrors.ExpectedNumber, tok, identSpan(tok), "invalid number literal %q", tok.Literal)
	}
	p.advance()
	return ast.NewConst(value.Num(f), p.posAt(tok, identSpan(tok))), nil
}

func (p *Parser) isKeyword(word string) bool {
	return p.cur.Type == lexer.IDENT && p.cur.Literal == word
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	tok := p.cur
	name := tok.Literal
	pos := p.posAt(tok, identSpan(tok))
	p.advance()

	if strings.EqualFold(name, "inf") {
		return ast.NewConst(value.Num(math.Inf(1)), pos), nil
	}
	if strings.EqualFold(name, "nan") {
		return ast.NewConst(value.Num(math.NaN()), pos), nil
	}
	if name == "true" {
		return ast.NewConst(value.Bool(true), pos), nil
	}
	if name == "false" {
		return ast.NewConst(value.Bool(false), pos), nil
	}

	if p.cur.Type == lexer.LPAREN {
		return p.parseCall(name, tok, pos)
	}

	if idx, ok := p.argIndex[name]; ok {
		// Arguments are always numbers in this language (no boolean
		// parameters are declared by callers, see spec.md §3); this is
		// enforced by the façade when it builds the argument list.
		return ast.NewArg(idx, name, value.Number, pos), nil
	}

	if p.ctx != nil {
		if decl := p.ctx.Lookup(name); decl != nil {
			if decl.IsFunct() {
				return nil, p.errAt(mferrors.NotAVariable, tok, identSpan(tok), "%q is a function, not a variable", name)
			}
			return ast.NewConst(decl.ConstValue(), pos), nil
		}
	}

	return nil, p.errAt(mferrors.UndefinedReference, tok, identSpan(tok), "undefined reference: %q", name)
}

func (p *Parser) parseCall(name string, nameTok lexer.Token, pos mferrors.Position) (ast.Expr, error) {
	if _, isArg := p.argIndex[name]; isArg {
		return nil, p.errAt(mferrors.NotAFunction, nameTok, identSpan(nameTok), "%q is an argument, not a function", name)
	}

	var decl *context.Decl
	if p.ctx != nil {
		decl = p.ctx.Lookup(name)
	}
	if decl == nil {
		return nil, p.errAt(mferrors.UndefinedReference, nameTok, identSpan(nameTok), "undefined reference: %q", name)
	}
	if !decl.IsFunct() {
		return nil, p.errAt(mferrors.NotAFunction, nameTok, identSpan(nameTok), "%q is not a function", name)
	}

	p.advance() // consume '('
	sig := decl.Signature()

	var args []ast.Expr
	if p.cur.Type != lexer.RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Type == lexer.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur.Type != lexer.RPAREN {
		return nil, p.errAt(mferrors.ExpectedCloseParen, p.cur, structuralSpan(p.cur), "expected ')' after arguments to %q", name)
	}
	p.advance()

	if len(args) != sig.Argc() {
		err := mferrors.NewAt(mferrors.IllegalNumberOfArguments, p.posAt(nameTok, identSpan(nameTok)),
			"%q expects %d argument(s), got %d", name, sig.Argc(), len(args))
		err.Name = name
		err.ExpectedArgc = sig.Argc()
		err.GotArgc = len(args)
		return nil, err
	}
	for i, arg := range args {
		if arg.Type() != sig.ArgTypes[i] {
			return nil, p.errAt(mferrors.TypeError, nameTok, identSpan(nameTok),
				"argument %d of %q: expected %s, got %s", i+1, name, sig.ArgTypes[i], arg.Type())
		}
	}
	return ast.NewCall(name, decl.Callback(), sig, args, pos), nil
}
