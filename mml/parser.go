package mml

import (
	"fmt"
)

type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Msg)
}

type Parser struct {
	lex *Lexer
	tok Token
}

// Parse parses a full source file.
func Parse(input []byte, file string) (*File, error) {
	p := &Parser{lex: NewLexer(input, file)}
	p.next()
	return p.parseFile(file)
}

func (p *Parser) next() {
	for {
		p.tok = p.lex.NextToken()
		if p.tok.Kind != TokenComment {
			return
		}
	}
}

func (p *Parser) errorf(pos Position, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, p.errorf(p.tok.Span.Start, "expected %s, found %s", kind, describeToken(p.tok))
	}
	tok := p.tok
	p.next()
	return tok, nil
}

func describeToken(t Token) string {
	switch t.Kind {
	case TokenEOF:
		return "end of file"
	case TokenError:
		return fmt.Sprintf("invalid token %q", t.Literal)
	case TokenIdent, TokenUIdent, TokenInt, TokenFloat, TokenString:
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}

func (p *Parser) parseFile(name string) (*File, error) {
	f := &File{Name: name}
	for {
		for p.tok.Kind == TokenSemiSemi {
			p.next()
		}
		if p.tok.Kind == TokenEOF {
			return f, nil
		}
		ph, err := p.parsePhrase()
		if err != nil {
			return nil, err
		}
		f.Phrases = append(f.Phrases, ph)
	}
}

func (p *Parser) parsePhrase() (Phrase, error) {
	start := p.tok.Span.Start
	switch p.tok.Kind {
	case TokenLet:
		b, err := p.parseBinding()
		if err != nil {
			return nil, err
		}
		// A toplevel let followed by "in" is an expression phrase, not
		// a definition.
		if p.tok.Kind == TokenIn {
			p.next()
			body, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			le := &LetExpr{B: b, Body: body, Loc: Span{Start: start, End: body.Span().End}}
			return &ExprPhrase{X: le, Loc: le.Loc}, nil
		}
		return &LetPhrase{B: b, Loc: Span{Start: start, End: b.RHS.Span().End}}, nil
	case TokenClass:
		return p.parseClassPhrase()
	case TokenHash:
		return p.parseDirective()
	default:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ExprPhrase{X: x, Loc: x.Span()}, nil
	}
}

// parseBinding consumes "let" ["rec"] pattern params* "=" expr.
func (p *Parser) parseBinding() (Binding, error) {
	p.next() // let
	var b Binding
	if p.tok.Kind == TokenRec {
		b.Rec = true
		p.next()
	}
	pat, err := p.parsePatternAtom()
	if err != nil {
		return b, err
	}
	b.Pat = pat
	for p.tok.Kind == TokenUnderscore || p.tok.Kind == TokenIdent || p.tok.Kind == TokenLParen {
		param, err := p.parsePatternAtom()
		if err != nil {
			return b, err
		}
		b.Params = append(b.Params, param)
	}
	if _, err := p.expect(TokenEq); err != nil {
		return b, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return b, err
	}
	b.RHS = rhs
	return b, nil
}

func (p *Parser) parseClassPhrase() (Phrase, error) {
	start := p.tok.Span.Start
	p.next() // class
	nameTok, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenEq); err != nil {
		return nil, err
	}
	value, err := p.parseClassExpr()
	if err != nil {
		return nil, err
	}
	return &ClassPhrase{
		Name:  nameTok.Literal,
		Value: value,
		Loc:   Span{Start: start, End: value.Span().End},
	}, nil
}

func (p *Parser) parseClassExpr() (ClassExpr, error) {
	switch p.tok.Kind {
	case TokenObject:
		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		return obj, nil
	case TokenIdent:
		nameTok := p.tok
		p.next()
		var args []Expr
		for atomStart(p.tok.Kind) {
			arg, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		end := nameTok.Span.End
		if len(args) > 0 {
			end = args[len(args)-1].Span().End
		}
		return &ClassApply{Name: nameTok.Literal, Args: args, Loc: Span{Start: nameTok.Span.Start, End: end}}, nil
	default:
		return nil, p.errorf(p.tok.Span.Start, "expected class body, found %s", describeToken(p.tok))
	}
}

func (p *Parser) parseDirective() (Phrase, error) {
	start := p.tok.Span.Start
	p.next() // #
	nameTok, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	d := &Directive{Name: nameTok.Literal, Loc: Span{Start: start, End: nameTok.Span.End}}
	if atomStart(p.tok.Kind) {
		arg, err := p.parseExprNoSeq()
		if err != nil {
			return nil, err
		}
		d.Arg = arg
		d.Loc.End = arg.Span().End
	}
	return d, nil
}

// parseExpr parses at sequence level: e1; e2; ...; en.
func (p *Parser) parseExpr() (Expr, error) {
	first, err := p.parseExprNoSeq()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokenSemi {
		return first, nil
	}
	exprs := []Expr{first}
	for p.tok.Kind == TokenSemi {
		p.next()
		e, err := p.parseExprNoSeq()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return &Seq{
		Exprs: exprs,
		Loc:   Span{Start: exprs[0].Span().Start, End: exprs[len(exprs)-1].Span().End},
	}, nil
}

// parseExprNoSeq parses one sequence element. The let, fun, function,
// match, and try forms extend greedily to the right; if branches stop
// before ";".
func (p *Parser) parseExprNoSeq() (Expr, error) {
	start := p.tok.Span.Start
	switch p.tok.Kind {
	case TokenLet:
		b, err := p.parseBinding()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenIn); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &LetExpr{B: b, Body: body, Loc: Span{Start: start, End: body.Span().End}}, nil
	case TokenFun:
		p.next()
		var params []Pat
		for {
			param, err := p.parsePatternAtom()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if p.tok.Kind == TokenArrow {
				break
			}
		}
		p.next() // ->
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Fun{Params: params, Body: body, Loc: Span{Start: start, End: body.Span().End}}, nil
	case TokenFunction:
		p.next()
		arms, err := p.parseArms()
		if err != nil {
			return nil, err
		}
		return &Function{Arms: arms, Loc: Span{Start: start, End: arms[len(arms)-1].Body.Span().End}}, nil
	case TokenMatch:
		p.next()
		scrut, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenWith); err != nil {
			return nil, err
		}
		arms, err := p.parseArms()
		if err != nil {
			return nil, err
		}
		return &Match{Scrut: scrut, Arms: arms, Loc: Span{Start: start, End: arms[len(arms)-1].Body.Span().End}}, nil
	case TokenTry:
		p.next()
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenWith); err != nil {
			return nil, err
		}
		arms, err := p.parseArms()
		if err != nil {
			return nil, err
		}
		return &Try{Body: body, Arms: arms, Loc: Span{Start: start, End: arms[len(arms)-1].Body.Span().End}}, nil
	case TokenIf:
		p.next()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenThen); err != nil {
			return nil, err
		}
		then, err := p.parseExprNoSeq()
		if err != nil {
			return nil, err
		}
		var els Expr
		end := then.Span().End
		if p.tok.Kind == TokenElse {
			p.next()
			els, err = p.parseExprNoSeq()
			if err != nil {
				return nil, err
			}
			end = els.Span().End
		}
		return &If{Cond: cond, Then: then, Else: els, Loc: Span{Start: start, End: end}}, nil
	case TokenWhile:
		p.next()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenDo); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		endTok, err := p.expect(TokenDone)
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body, Loc: Span{Start: start, End: endTok.Span.End}}, nil
	case TokenFor:
		p.next()
		varTok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEq); err != nil {
			return nil, err
		}
		from, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var down bool
		switch p.tok.Kind {
		case TokenTo:
		case TokenDownto:
			down = true
		default:
			return nil, p.errorf(p.tok.Span.Start, `expected "to" or "downto", found %s`, describeToken(p.tok))
		}
		p.next()
		to, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenDo); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		endTok, err := p.expect(TokenDone)
		if err != nil {
			return nil, err
		}
		return &For{Var: varTok.Literal, From: from, To: to, Down: down, Body: body, Loc: Span{Start: start, End: endTok.Span.End}}, nil
	default:
		return p.parseTuple()
	}
}

func (p *Parser) parseArms() ([]Arm, error) {
	if p.tok.Kind == TokenBar {
		p.next()
	}
	var arms []Arm
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		var guard Expr
		if p.tok.Kind == TokenWhen {
			p.next()
			guard, err = p.parseExprNoSeq()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(TokenArrow); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arms = append(arms, Arm{Pat: pat, Guard: guard, Body: body})
		if p.tok.Kind != TokenBar {
			return arms, nil
		}
		p.next()
	}
}

func (p *Parser) parseTuple() (Expr, error) {
	first, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokenComma {
		return first, nil
	}
	elems := []Expr{first}
	for p.tok.Kind == TokenComma {
		p.next()
		e, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &Tuple{
		Elems: elems,
		Loc:   Span{Start: elems[0].Span().Start, End: elems[len(elems)-1].Span().End},
	}, nil
}

// binaryLevels orders infix operators loosest first; every operator
// parses as a two-argument application of its identifier.
var binaryLevels = []map[TokenKind]string{
	{TokenOrOr: "||", TokenOr: "or"},
	{TokenAndAnd: "&&", TokenAmp: "&"},
	{TokenEq: "=", TokenLT: "<", TokenGT: ">", TokenLE: "<=", TokenGE: ">=", TokenNE: "<>"},
	{TokenCaret: "^"},
	{TokenPlus: "+", TokenMinus: "-"},
	{TokenStar: "*", TokenSlash: "/", TokenMod: "mod"},
}

func (p *Parser) parseBinary(level int) (Expr, error) {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binaryLevels[level][p.tok.Kind]
		if !ok {
			return left, nil
		}
		opSpan := p.tok.Span
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Apply{
			Fn:   &Ident{Name: op, Loc: opSpan},
			Args: []Expr{left, right},
			Loc:  Span{Start: left.Span().Start, End: right.Span().End},
		}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.tok.Kind != TokenMinus {
		return p.parseApply()
	}
	start := p.tok.Span.Start
	p.next()
	if p.tok.Kind == TokenInt || p.tok.Kind == TokenFloat {
		lit := p.tok
		p.next()
		kind := LitInt
		if lit.Kind == TokenFloat {
			kind = LitFloat
		}
		return &Lit{Kind: kind, Text: "-" + lit.Literal, Loc: Span{Start: start, End: lit.Span.End}}, nil
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: "-", Operand: operand, Loc: Span{Start: start, End: operand.Span().End}}, nil
}

func (p *Parser) parseApply() (Expr, error) {
	fn, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	var args []Expr
	for atomStart(p.tok.Kind) {
		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return fn, nil
	}
	return &Apply{
		Fn:   fn,
		Args: args,
		Loc:  Span{Start: fn.Span().Start, End: args[len(args)-1].Span().End},
	}, nil
}

func atomStart(kind TokenKind) bool {
	switch kind {
	case TokenIdent, TokenUIdent, TokenInt, TokenFloat, TokenString,
		TokenTrue, TokenFalse, TokenLParen, TokenBegin, TokenNew, TokenObject:
		return true
	}
	return false
}

func (p *Parser) parseAtom() (Expr, error) {
	tok := p.tok
	switch tok.Kind {
	case TokenIdent:
		p.next()
		return &Ident{Name: tok.Literal, Loc: tok.Span}, nil
	case TokenUIdent:
		p.next()
		return &Construct{Name: tok.Literal, Loc: tok.Span}, nil
	case TokenInt:
		p.next()
		return &Lit{Kind: LitInt, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenFloat:
		p.next()
		return &Lit{Kind: LitFloat, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenString:
		p.next()
		return &Lit{Kind: LitString, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenTrue, TokenFalse:
		p.next()
		return &Lit{Kind: LitBool, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenLParen:
		p.next()
		if p.tok.Kind == TokenRParen {
			end := p.tok.Span.End
			p.next()
			return &Lit{Kind: LitUnit, Text: "()", Loc: Span{Start: tok.Span.Start, End: end}}, nil
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case TokenBegin:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEnd); err != nil {
			return nil, err
		}
		return inner, nil
	case TokenNew:
		p.next()
		nameTok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		return &New{Name: nameTok.Literal, Loc: Span{Start: tok.Span.Start, End: nameTok.Span.End}}, nil
	case TokenObject:
		return p.parseObject()
	default:
		return nil, p.errorf(tok.Span.Start, "expected expression, found %s", describeToken(tok))
	}
}

func (p *Parser) parseObject() (*Object, error) {
	start := p.tok.Span.Start
	p.next() // object
	var fields []ObjField
	for p.tok.Kind != TokenEnd {
		fieldStart := p.tok.Span.Start
		switch p.tok.Kind {
		case TokenVal:
			p.next()
			nameTok, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenEq); err != nil {
				return nil, err
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, &ValField{
				Name:  nameTok.Literal,
				Value: value,
				Loc:   Span{Start: fieldStart, End: value.Span().End},
			})
		case TokenMethod:
			p.next()
			nameTok, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			var params []Pat
			for p.tok.Kind == TokenUnderscore || p.tok.Kind == TokenIdent || p.tok.Kind == TokenLParen {
				param, err := p.parsePatternAtom()
				if err != nil {
					return nil, err
				}
				params = append(params, param)
			}
			if _, err := p.expect(TokenEq); err != nil {
				return nil, err
			}
			body, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, &MethodField{
				Name:   nameTok.Literal,
				Params: params,
				Body:   body,
				Loc:    Span{Start: fieldStart, End: body.Span().End},
			})
		case TokenInitializer:
			p.next()
			body, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, &InitField{
				Body: body,
				Loc:  Span{Start: fieldStart, End: body.Span().End},
			})
		default:
			return nil, p.errorf(p.tok.Span.Start, "expected object field, found %s", describeToken(p.tok))
		}
	}
	endTok, err := p.expect(TokenEnd)
	if err != nil {
		return nil, err
	}
	return &Object{Fields: fields, Loc: Span{Start: start, End: endTok.Span.End}}, nil
}

func (p *Parser) parsePattern() (Pat, error) {
	first, err := p.parsePatternAppl()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokenComma {
		return first, nil
	}
	elems := []Pat{first}
	for p.tok.Kind == TokenComma {
		p.next()
		pat, err := p.parsePatternAppl()
		if err != nil {
			return nil, err
		}
		elems = append(elems, pat)
	}
	return &TuplePat{
		Elems: elems,
		Loc:   Span{Start: elems[0].Span().Start, End: elems[len(elems)-1].Span().End},
	}, nil
}

func (p *Parser) parsePatternAppl() (Pat, error) {
	if p.tok.Kind != TokenUIdent {
		return p.parsePatternAtom()
	}
	tok := p.tok
	p.next()
	if !patternAtomStart(p.tok.Kind) {
		return &ConstructPat{Name: tok.Literal, Loc: tok.Span}, nil
	}
	arg, err := p.parsePatternAtom()
	if err != nil {
		return nil, err
	}
	return &ConstructPat{
		Name: tok.Literal,
		Arg:  arg,
		Loc:  Span{Start: tok.Span.Start, End: arg.Span().End},
	}, nil
}

func patternAtomStart(kind TokenKind) bool {
	switch kind {
	case TokenUnderscore, TokenIdent, TokenUIdent, TokenInt, TokenFloat,
		TokenString, TokenTrue, TokenFalse, TokenLParen, TokenMinus:
		return true
	}
	return false
}

func (p *Parser) parsePatternAtom() (Pat, error) {
	tok := p.tok
	switch tok.Kind {
	case TokenUnderscore:
		p.next()
		return &WildPat{Loc: tok.Span}, nil
	case TokenIdent:
		p.next()
		return &IdentPat{Name: tok.Literal, Loc: tok.Span}, nil
	case TokenUIdent:
		p.next()
		return &ConstructPat{Name: tok.Literal, Loc: tok.Span}, nil
	case TokenInt:
		p.next()
		return &LitPat{Kind: LitInt, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenFloat:
		p.next()
		return &LitPat{Kind: LitFloat, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenString:
		p.next()
		return &LitPat{Kind: LitString, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenTrue, TokenFalse:
		p.next()
		return &LitPat{Kind: LitBool, Text: tok.Literal, Loc: tok.Span}, nil
	case TokenMinus:
		p.next()
		lit := p.tok
		kind := LitInt
		switch lit.Kind {
		case TokenInt:
		case TokenFloat:
			kind = LitFloat
		default:
			return nil, p.errorf(lit.Span.Start, "expected numeric literal, found %s", describeToken(lit))
		}
		p.next()
		return &LitPat{Kind: kind, Text: "-" + lit.Literal, Loc: Span{Start: tok.Span.Start, End: lit.Span.End}}, nil
	case TokenLParen:
		p.next()
		if p.tok.Kind == TokenRParen {
			end := p.tok.Span.End
			p.next()
			return &LitPat{Kind: LitUnit, Text: "()", Loc: Span{Start: tok.Span.Start, End: end}}, nil
		}
		inner, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errorf(tok.Span.Start, "expected pattern, found %s", describeToken(tok))
	}
}
