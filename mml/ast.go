package mml

// File is a parsed source file: a sequence of toplevel phrases.
type File struct {
	Name    string
	Phrases []Phrase
}

type Node interface {
	Span() Span
}

// Phrase is a toplevel unit: a definition, a class declaration, a
// directive, or a bare expression.
type Phrase interface {
	Node
	phraseNode()
}

type Expr interface {
	Node
	exprNode()
}

type Pat interface {
	Node
	patNode()
}

// Binding is the shared payload of let forms: pattern, optional
// function parameters, and the bound expression.
type Binding struct {
	Rec    bool
	Pat    Pat
	Params []Pat
	RHS    Expr
}

type LetPhrase struct {
	B   Binding
	Loc Span
}

type ExprPhrase struct {
	X   Expr
	Loc Span
}

type ClassPhrase struct {
	Name  string
	Value ClassExpr
	Loc   Span
}

// Directive is a toplevel #name phrase with an optional argument.
type Directive struct {
	Name string
	Arg  Expr
	Loc  Span
}

func (p *LetPhrase) Span() Span   { return p.Loc }
func (p *ExprPhrase) Span() Span  { return p.Loc }
func (p *ClassPhrase) Span() Span { return p.Loc }
func (p *Directive) Span() Span   { return p.Loc }

func (*LetPhrase) phraseNode()   {}
func (*ExprPhrase) phraseNode()  {}
func (*ClassPhrase) phraseNode() {}
func (*Directive) phraseNode()   {}

type LitKind int

const (
	LitUnit LitKind = iota
	LitInt
	LitFloat
	LitString
	LitBool
)

// Lit holds a literal in its source form; Text includes quoting for
// strings.
type Lit struct {
	Kind LitKind
	Text string
	Loc  Span
}

type Ident struct {
	Name string
	Loc  Span
}

// Construct references a variant constructor or module-level
// capitalized name.
type Construct struct {
	Name string
	Loc  Span
}

type Fun struct {
	Params []Pat
	Body   Expr
	Loc    Span
}

// Function is the one-argument pattern-match lambda form.
type Function struct {
	Arms []Arm
	Loc  Span
}

type LetExpr struct {
	B    Binding
	Body Expr
	Loc  Span
}

type Apply struct {
	Fn   Expr
	Args []Expr
	Loc  Span
}

// If holds a nil Else when the source has no alternative.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Loc  Span
}

type Seq struct {
	Exprs []Expr
	Loc   Span
}

type While struct {
	Cond Expr
	Body Expr
	Loc  Span
}

type For struct {
	Var  string
	From Expr
	To   Expr
	Down bool
	Body Expr
	Loc  Span
}

type Match struct {
	Scrut Expr
	Arms  []Arm
	Loc   Span
}

type Try struct {
	Body Expr
	Arms []Arm
	Loc  Span
}

type Tuple struct {
	Elems []Expr
	Loc   Span
}

type Unary struct {
	Op      string
	Operand Expr
	Loc     Span
}

type New struct {
	Name string
	Loc  Span
}

// Object is an immediate object literal; it also serves as a class
// body in a class declaration.
type Object struct {
	Fields []ObjField
	Loc    Span
}

// Arm is one pattern-match case; Guard may be nil.
type Arm struct {
	Pat   Pat
	Guard Expr
	Body  Expr
}

func (e *Lit) Span() Span       { return e.Loc }
func (e *Ident) Span() Span     { return e.Loc }
func (e *Construct) Span() Span { return e.Loc }
func (e *Fun) Span() Span       { return e.Loc }
func (e *Function) Span() Span  { return e.Loc }
func (e *LetExpr) Span() Span   { return e.Loc }
func (e *Apply) Span() Span     { return e.Loc }
func (e *If) Span() Span        { return e.Loc }
func (e *Seq) Span() Span       { return e.Loc }
func (e *While) Span() Span     { return e.Loc }
func (e *For) Span() Span       { return e.Loc }
func (e *Match) Span() Span     { return e.Loc }
func (e *Try) Span() Span       { return e.Loc }
func (e *Tuple) Span() Span     { return e.Loc }
func (e *Unary) Span() Span     { return e.Loc }
func (e *New) Span() Span       { return e.Loc }
func (e *Object) Span() Span    { return e.Loc }

func (*Lit) exprNode()       {}
func (*Ident) exprNode()     {}
func (*Construct) exprNode() {}
func (*Fun) exprNode()       {}
func (*Function) exprNode()  {}
func (*LetExpr) exprNode()   {}
func (*Apply) exprNode()     {}
func (*If) exprNode()        {}
func (*Seq) exprNode()       {}
func (*While) exprNode()     {}
func (*For) exprNode()       {}
func (*Match) exprNode()     {}
func (*Try) exprNode()       {}
func (*Tuple) exprNode()     {}
func (*Unary) exprNode()     {}
func (*New) exprNode()       {}
func (*Object) exprNode()    {}

// ClassExpr is the right-hand side of a class declaration: an object
// body or the application of another class to arguments.
type ClassExpr interface {
	Node
	classExprNode()
}

type ClassApply struct {
	Name string
	Args []Expr
	Loc  Span
}

func (c *ClassApply) Span() Span { return c.Loc }

func (*Object) classExprNode()     {}
func (*ClassApply) classExprNode() {}

type ObjField interface {
	Node
	objFieldNode()
}

type ValField struct {
	Name  string
	Value Expr
	Loc   Span
}

type MethodField struct {
	Name   string
	Params []Pat
	Body   Expr
	Loc    Span
}

type InitField struct {
	Body Expr
	Loc  Span
}

func (f *ValField) Span() Span    { return f.Loc }
func (f *MethodField) Span() Span { return f.Loc }
func (f *InitField) Span() Span   { return f.Loc }

func (*ValField) objFieldNode()    {}
func (*MethodField) objFieldNode() {}
func (*InitField) objFieldNode()   {}

type WildPat struct {
	Loc Span
}

type IdentPat struct {
	Name string
	Loc  Span
}

type LitPat struct {
	Kind LitKind
	Text string
	Loc  Span
}

type ConstructPat struct {
	Name string
	Arg  Pat
	Loc  Span
}

type TuplePat struct {
	Elems []Pat
	Loc   Span
}

func (p *WildPat) Span() Span      { return p.Loc }
func (p *IdentPat) Span() Span     { return p.Loc }
func (p *LitPat) Span() Span       { return p.Loc }
func (p *ConstructPat) Span() Span { return p.Loc }
func (p *TuplePat) Span() Span     { return p.Loc }

func (*WildPat) patNode()      {}
func (*IdentPat) patNode()     {}
func (*LitPat) patNode()       {}
func (*ConstructPat) patNode() {}
func (*TuplePat) patNode()     {}
