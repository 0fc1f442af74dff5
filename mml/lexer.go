package mml

type Lexer struct {
	input  []byte
	file   string
	pos    int
	line   int
	column int
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:  input,
		file:   file,
		pos:    0,
		line:   1,
		column: 1,
	}
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
		} else {
			break
		}
	}
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	startPos := l.Position()

	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: Span{Start: startPos, End: startPos}}
	}

	ch := l.peek()

	if ch == '(' && l.peekN(1) == '*' {
		return l.scanComment(startPos)
	}

	if isIdentStart(ch) {
		return l.scanIdentOrKeyword(startPos)
	}

	if isDigit(ch) {
		return l.scanNumber(startPos)
	}

	if ch == '"' {
		return l.scanString(startPos)
	}

	return l.scanOperator(startPos)
}

// scanComment consumes a (* ... *) comment, honoring nesting.
func (l *Lexer) scanComment(start Position) Token {
	l.advanceN(2)
	depth := 1
	for depth > 0 {
		if l.peek() == 0 {
			return l.token(TokenError, start)
		}
		if l.peek() == '(' && l.peekN(1) == '*' {
			l.advanceN(2)
			depth++
		} else if l.peek() == '*' && l.peekN(1) == ')' {
			l.advanceN(2)
			depth--
		} else {
			l.advance()
		}
	}
	return l.token(TokenComment, start)
}

func (l *Lexer) scanIdentOrKeyword(start Position) Token {
	first := l.peek()
	for isIdentPart(l.peek()) {
		l.advance()
	}
	// Dotted path: module-qualified names lex as a single identifier.
	dotted := false
	for l.peek() == '.' && isIdentStart(l.peekN(1)) {
		dotted = true
		l.advance()
		for isIdentPart(l.peek()) {
			l.advance()
		}
	}
	end := l.Position()
	literal := string(l.input[start.Offset:end.Offset])

	kind := TokenIdent
	switch {
	case dotted:
		// Classified by the final segment: a value path stays an
		// identifier, a constructor path is an upper identifier.
		if isUpper(lastSegmentStart(literal)) {
			kind = TokenUIdent
		}
	case literal == "_":
		kind = TokenUnderscore
	case isUpper(first):
		kind = TokenUIdent
	default:
		kind = LookupKeyword(literal)
	}
	return Token{Kind: kind, Span: Span{Start: start, End: end}, Literal: literal}
}

func (l *Lexer) scanNumber(start Position) Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	kind := TokenInt
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		kind = TokenFloat
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.token(kind, start)
}

func (l *Lexer) scanString(start Position) Token {
	l.advance() // opening quote
	for {
		ch := l.peek()
		if ch == 0 || ch == '\n' {
			return l.token(TokenError, start)
		}
		if ch == '\\' {
			l.advanceN(2)
			continue
		}
		l.advance()
		if ch == '"' {
			break
		}
	}
	return l.token(TokenString, start)
}

func (l *Lexer) scanOperator(start Position) Token {
	two := map[string]TokenKind{
		";;": TokenSemiSemi,
		"->": TokenArrow,
		"<=": TokenLE,
		">=": TokenGE,
		"<>": TokenNE,
		"&&": TokenAndAnd,
		"||": TokenOrOr,
	}
	if l.pos+1 < len(l.input) {
		if kind, ok := two[string(l.input[l.pos:l.pos+2])]; ok {
			l.advanceN(2)
			return l.token(kind, start)
		}
	}

	one := map[byte]TokenKind{
		'(': TokenLParen,
		')': TokenRParen,
		';': TokenSemi,
		',': TokenComma,
		'|': TokenBar,
		'#': TokenHash,
		'=': TokenEq,
		'<': TokenLT,
		'>': TokenGT,
		'&': TokenAmp,
		'+': TokenPlus,
		'-': TokenMinus,
		'*': TokenStar,
		'/': TokenSlash,
		'^': TokenCaret,
	}
	if kind, ok := one[l.peek()]; ok {
		l.advance()
		return l.token(kind, start)
	}

	l.advance()
	return l.token(TokenError, start)
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func lastSegmentStart(path string) byte {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1]
		}
	}
	return path[0]
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '\''
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}
