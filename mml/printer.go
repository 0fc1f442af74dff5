package mml

import (
	"strings"
)

// Precedence levels, loosest first. A child expression is
// parenthesized whenever its own level is below the level its
// context parses at.
const (
	levelSeq = iota + 1
	levelControl
	levelTuple
	levelOr
	levelAnd
	levelCmp
	levelConcat
	levelAdd
	levelMul
	levelUnary
	levelApply
	levelAtom
)

var infixLevels = map[string]int{
	"||": levelOr, "or": levelOr,
	"&&": levelAnd, "&": levelAnd,
	"=": levelCmp, "<": levelCmp, ">": levelCmp,
	"<=": levelCmp, ">=": levelCmp, "<>": levelCmp,
	"^": levelConcat,
	"+": levelAdd, "-": levelAdd,
	"*": levelMul, "/": levelMul, "mod": levelMul,
}

// Print renders a file in canonical form, one phrase per line. The
// output reparses to a structurally identical tree.
func Print(f *File) []byte {
	var b strings.Builder
	for i, ph := range f.Phrases {
		if i > 0 {
			b.WriteString("\n")
		}
		printPhrase(&b, ph)
		b.WriteString(" ;;\n")
	}
	return []byte(b.String())
}

func printPhrase(b *strings.Builder, ph Phrase) {
	switch x := ph.(type) {
	case *LetPhrase:
		printBinding(b, x.B)
	case *ExprPhrase:
		printExpr(b, x.X, levelSeq)
	case *ClassPhrase:
		b.WriteString("class ")
		b.WriteString(x.Name)
		b.WriteString(" = ")
		printClassExpr(b, x.Value)
	case *Directive:
		b.WriteString("#")
		b.WriteString(x.Name)
		if x.Arg != nil {
			b.WriteString(" ")
			printExpr(b, x.Arg, levelControl)
		}
	}
}

func printBinding(b *strings.Builder, bind Binding) {
	b.WriteString("let ")
	if bind.Rec {
		b.WriteString("rec ")
	}
	printPat(b, bind.Pat, true)
	for _, param := range bind.Params {
		b.WriteString(" ")
		printPat(b, param, true)
	}
	b.WriteString(" = ")
	printExpr(b, bind.RHS, levelSeq)
}

func printClassExpr(b *strings.Builder, ce ClassExpr) {
	switch x := ce.(type) {
	case *Object:
		printObject(b, x)
	case *ClassApply:
		b.WriteString(x.Name)
		for _, arg := range x.Args {
			b.WriteString(" ")
			printExpr(b, arg, levelAtom)
		}
	}
}

func exprLevel(e Expr) int {
	switch x := e.(type) {
	case *Seq:
		return levelSeq
	case *LetExpr, *Fun, *Function, *Match, *Try, *If, *While, *For:
		return levelControl
	case *Tuple:
		return levelTuple
	case *Apply:
		if op, ok := infixOp(x); ok {
			return infixLevels[op]
		}
		return levelApply
	case *Unary:
		return levelUnary
	case *Lit:
		if strings.HasPrefix(x.Text, "-") {
			return levelUnary
		}
		return levelAtom
	default:
		return levelAtom
	}
}

func infixOp(a *Apply) (string, bool) {
	if len(a.Args) != 2 {
		return "", false
	}
	id, ok := a.Fn.(*Ident)
	if !ok {
		return "", false
	}
	_, known := infixLevels[id.Name]
	return id.Name, known
}

func printExpr(b *strings.Builder, e Expr, level int) {
	if exprLevel(e) < level {
		b.WriteString("(")
		printExprBare(b, e)
		b.WriteString(")")
		return
	}
	printExprBare(b, e)
}

func printExprBare(b *strings.Builder, e Expr) {
	switch x := e.(type) {
	case *Lit:
		b.WriteString(x.Text)
	case *Ident:
		b.WriteString(x.Name)
	case *Construct:
		b.WriteString(x.Name)
	case *New:
		b.WriteString("new ")
		b.WriteString(x.Name)
	case *Unary:
		b.WriteString(x.Op)
		printExpr(b, x.Operand, levelUnary)
	case *Apply:
		if op, ok := infixOp(x); ok {
			lvl := infixLevels[op]
			printExpr(b, x.Args[0], lvl)
			b.WriteString(" ")
			b.WriteString(op)
			b.WriteString(" ")
			printExpr(b, x.Args[1], lvl+1)
			return
		}
		printExpr(b, x.Fn, levelAtom)
		for _, arg := range x.Args {
			b.WriteString(" ")
			printExpr(b, arg, levelAtom)
		}
	case *Tuple:
		for i, elem := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, elem, levelOr)
		}
	case *Seq:
		for i, elem := range x.Exprs {
			if i > 0 {
				b.WriteString("; ")
			}
			if i < len(x.Exprs)-1 && openEnded(elem) {
				b.WriteString("(")
				printExprBare(b, elem)
				b.WriteString(")")
				continue
			}
			printExpr(b, elem, levelControl)
		}
	case *LetExpr:
		printBinding(b, x.B)
		b.WriteString(" in ")
		printExpr(b, x.Body, levelSeq)
	case *Fun:
		b.WriteString("fun")
		for _, param := range x.Params {
			b.WriteString(" ")
			printPat(b, param, true)
		}
		b.WriteString(" -> ")
		printExpr(b, x.Body, levelSeq)
	case *Function:
		b.WriteString("function")
		printArms(b, x.Arms)
	case *Match:
		b.WriteString("match ")
		printExpr(b, x.Scrut, levelSeq)
		b.WriteString(" with")
		printArms(b, x.Arms)
	case *Try:
		b.WriteString("try ")
		printExpr(b, x.Body, levelSeq)
		b.WriteString(" with")
		printArms(b, x.Arms)
	case *If:
		b.WriteString("if ")
		printExpr(b, x.Cond, levelSeq)
		b.WriteString(" then ")
		if x.Else != nil && capturesElse(x.Then) {
			b.WriteString("(")
			printExprBare(b, x.Then)
			b.WriteString(")")
		} else {
			printExpr(b, x.Then, levelControl)
		}
		if x.Else != nil {
			b.WriteString(" else ")
			printExpr(b, x.Else, levelControl)
		}
	case *While:
		b.WriteString("while ")
		printExpr(b, x.Cond, levelSeq)
		b.WriteString(" do ")
		printExpr(b, x.Body, levelSeq)
		b.WriteString(" done")
	case *For:
		b.WriteString("for ")
		b.WriteString(x.Var)
		b.WriteString(" = ")
		printExpr(b, x.From, levelSeq)
		if x.Down {
			b.WriteString(" downto ")
		} else {
			b.WriteString(" to ")
		}
		printExpr(b, x.To, levelSeq)
		b.WriteString(" do ")
		printExpr(b, x.Body, levelSeq)
		b.WriteString(" done")
	case *Object:
		printObject(b, x)
	}
}

func printArms(b *strings.Builder, arms []Arm) {
	for i, arm := range arms {
		b.WriteString(" | ")
		printPat(b, arm.Pat, false)
		if arm.Guard != nil {
			b.WriteString(" when ")
			printExpr(b, arm.Guard, levelControl)
		}
		b.WriteString(" -> ")
		if i < len(arms)-1 && barCapturing(arm.Body) {
			b.WriteString("(")
			printExprBare(b, arm.Body)
			b.WriteString(")")
			continue
		}
		printExpr(b, arm.Body, levelSeq)
	}
}

func printObject(b *strings.Builder, obj *Object) {
	b.WriteString("object")
	for _, field := range obj.Fields {
		b.WriteString(" ")
		switch f := field.(type) {
		case *ValField:
			b.WriteString("val ")
			b.WriteString(f.Name)
			b.WriteString(" = ")
			printExpr(b, f.Value, levelSeq)
		case *MethodField:
			b.WriteString("method ")
			b.WriteString(f.Name)
			for _, param := range f.Params {
				b.WriteString(" ")
				printPat(b, param, true)
			}
			b.WriteString(" = ")
			printExpr(b, f.Body, levelSeq)
		case *InitField:
			b.WriteString("initializer ")
			printExpr(b, f.Body, levelSeq)
		}
	}
	b.WriteString(" end")
}

func printPat(b *strings.Builder, pat Pat, atom bool) {
	switch x := pat.(type) {
	case *WildPat:
		b.WriteString("_")
	case *IdentPat:
		b.WriteString(x.Name)
	case *LitPat:
		b.WriteString(x.Text)
	case *ConstructPat:
		if x.Arg == nil {
			b.WriteString(x.Name)
			return
		}
		if atom {
			b.WriteString("(")
		}
		b.WriteString(x.Name)
		b.WriteString(" ")
		printPatAtom(b, x.Arg)
		if atom {
			b.WriteString(")")
		}
	case *TuplePat:
		if atom {
			b.WriteString("(")
		}
		for i, elem := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			printPatAppl(b, elem)
		}
		if atom {
			b.WriteString(")")
		}
	}
}

func printPatAppl(b *strings.Builder, pat Pat) {
	if tp, ok := pat.(*TuplePat); ok {
		b.WriteString("(")
		printPat(b, tp, false)
		b.WriteString(")")
		return
	}
	printPat(b, pat, false)
}

func printPatAtom(b *strings.Builder, pat Pat) {
	switch x := pat.(type) {
	case *ConstructPat:
		if x.Arg != nil {
			b.WriteString("(")
			printPat(b, x, false)
			b.WriteString(")")
			return
		}
	case *TuplePat:
		b.WriteString("(")
		printPat(b, x, false)
		b.WriteString(")")
		return
	}
	printPat(b, pat, false)
}

// openEnded reports whether an expression printed bare would swallow
// a following "; ..." into its own body.
func openEnded(e Expr) bool {
	switch x := e.(type) {
	case *LetExpr, *Fun, *Function, *Match, *Try:
		return true
	case *If:
		if x.Else != nil {
			return openEnded(x.Else)
		}
		return openEnded(x.Then)
	case *Seq:
		return openEnded(x.Exprs[len(x.Exprs)-1])
	}
	return false
}

// barCapturing reports whether an expression printed bare would
// swallow a following "| ..." arm into its own arm list.
func barCapturing(e Expr) bool {
	switch x := e.(type) {
	case *Match, *Function, *Try:
		return true
	case *LetExpr:
		return barCapturing(x.Body)
	case *Fun:
		return barCapturing(x.Body)
	case *If:
		if x.Else != nil {
			return barCapturing(x.Else)
		}
		return barCapturing(x.Then)
	case *Seq:
		return barCapturing(x.Exprs[len(x.Exprs)-1])
	}
	return false
}

// capturesElse reports whether an expression printed bare would bind
// a following "else" to one of its own if nodes.
func capturesElse(e Expr) bool {
	switch x := e.(type) {
	case *If:
		if x.Else == nil {
			return true
		}
		return capturesElse(x.Else)
	case *LetExpr:
		return capturesElse(x.Body)
	case *Fun:
		return capturesElse(x.Body)
	case *Function:
		return capturesElse(x.Arms[len(x.Arms)-1].Body)
	case *Match:
		return capturesElse(x.Arms[len(x.Arms)-1].Body)
	case *Try:
		return capturesElse(x.Arms[len(x.Arms)-1].Body)
	case *Seq:
		return capturesElse(x.Exprs[len(x.Exprs)-1])
	}
	return false
}
