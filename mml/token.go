package mml

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

// Span covers a source region. Ghost spans mark nodes synthesized by the
// parser or the instrumenter rather than written in source.
type Span struct {
	Start Position
	End   Position
	Ghost bool
}

// GhostSpan returns a span with no source backing.
func GhostSpan() Span {
	return Span{Ghost: true}
}

// GhostAt returns a zero-width ghost span anchored at p.
func GhostAt(p Position) Span {
	return Span{Start: p, End: p, Ghost: true}
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenComment

	// Literals
	TokenIdent
	TokenUIdent
	TokenInt
	TokenFloat
	TokenString
	TokenTrue
	TokenFalse

	// Keywords
	TokenBegin
	TokenClass
	TokenDo
	TokenDone
	TokenDownto
	TokenElse
	TokenEnd
	TokenFor
	TokenFun
	TokenFunction
	TokenIf
	TokenIn
	TokenInitializer
	TokenLet
	TokenMatch
	TokenMethod
	TokenMod
	TokenNew
	TokenObject
	TokenOr
	TokenRec
	TokenThen
	TokenTo
	TokenTry
	TokenVal
	TokenWhen
	TokenWhile
	TokenWith

	// Operators and punctuation
	TokenLParen
	TokenRParen
	TokenSemiSemi
	TokenSemi
	TokenComma
	TokenArrow
	TokenBar
	TokenUnderscore
	TokenHash
	TokenEq
	TokenNE
	TokenLT
	TokenLE
	TokenGT
	TokenGE
	TokenAndAnd
	TokenAmp
	TokenOrOr
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenCaret
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:         "EOF",
	TokenError:       "Error",
	TokenComment:     "Comment",
	TokenIdent:       "Identifier",
	TokenUIdent:      "UpperIdentifier",
	TokenInt:         "IntLiteral",
	TokenFloat:       "FloatLiteral",
	TokenString:      "StringLiteral",
	TokenTrue:        "true",
	TokenFalse:       "false",
	TokenBegin:       "begin",
	TokenClass:       "class",
	TokenDo:          "do",
	TokenDone:        "done",
	TokenDownto:      "downto",
	TokenElse:        "else",
	TokenEnd:         "end",
	TokenFor:         "for",
	TokenFun:         "fun",
	TokenFunction:    "function",
	TokenIf:          "if",
	TokenIn:          "in",
	TokenInitializer: "initializer",
	TokenLet:         "let",
	TokenMatch:       "match",
	TokenMethod:      "method",
	TokenMod:         "mod",
	TokenNew:         "new",
	TokenObject:      "object",
	TokenOr:          "or",
	TokenRec:         "rec",
	TokenThen:        "then",
	TokenTo:          "to",
	TokenTry:         "try",
	TokenVal:         "val",
	TokenWhen:        "when",
	TokenWhile:       "while",
	TokenWith:        "with",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenSemiSemi:    ";;",
	TokenSemi:        ";",
	TokenComma:       ",",
	TokenArrow:       "->",
	TokenBar:         "|",
	TokenUnderscore:  "_",
	TokenHash:        "#",
	TokenEq:          "=",
	TokenNE:          "<>",
	TokenLT:          "<",
	TokenLE:          "<=",
	TokenGT:          ">",
	TokenGE:          ">=",
	TokenAndAnd:      "&&",
	TokenAmp:         "&",
	TokenOrOr:        "||",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenStar:        "*",
	TokenSlash:       "/",
	TokenCaret:       "^",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
}

var keywords = map[string]TokenKind{
	"begin":       TokenBegin,
	"class":       TokenClass,
	"do":          TokenDo,
	"done":        TokenDone,
	"downto":      TokenDownto,
	"else":        TokenElse,
	"end":         TokenEnd,
	"false":       TokenFalse,
	"for":         TokenFor,
	"fun":         TokenFun,
	"function":    TokenFunction,
	"if":          TokenIf,
	"in":          TokenIn,
	"initializer": TokenInitializer,
	"let":         TokenLet,
	"match":       TokenMatch,
	"method":      TokenMethod,
	"mod":         TokenMod,
	"new":         TokenNew,
	"object":      TokenObject,
	"or":          TokenOr,
	"rec":         TokenRec,
	"then":        TokenThen,
	"to":          TokenTo,
	"true":        TokenTrue,
	"try":         TokenTry,
	"val":         TokenVal,
	"when":        TokenWhen,
	"while":       TokenWhile,
	"with":        TokenWith,
}

func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return TokenIdent
}
