package cover

import (
	"github.com/mmltools/mmlcov/mml"
)

// lazyOps are the short-circuiting operators whose second operand may
// never run.
var lazyOps = map[string]bool{
	"&&": true,
	"&":  true,
	"||": true,
	"or": true,
}

// instrumenter rewrites one file's tree in place, registering points
// and splicing probes ahead of the expressions they mark.
type instrumenter struct {
	file  string
	mode  Mode
	reg   *KindRegistry
	table *PointTable
}

// bareForm reports expressions whose own form defines code rather
// than running it. A probe on a definition would count definitions,
// not executions, so these are never wrapped; their bodies still
// receive points through the regular traversal.
func bareForm(e mml.Expr) bool {
	switch e.(type) {
	case *mml.Fun, *mml.Function, *mml.Match, *mml.LetExpr:
		return true
	}
	return false
}

// wrap decides whether a candidate expression receives a point of the
// given kind and, if so, returns the probed replacement. The original
// expression is returned untouched when it is a bare definitional
// form, synthesized, of a disabled kind, or at an offset that already
// carries a point.
func (in *instrumenter) wrap(e mml.Expr, kind Kind) mml.Expr {
	if e == nil {
		return nil
	}
	if bareForm(e) {
		return e
	}
	if e.Span().Ghost {
		return e
	}
	if !in.reg.Enabled(kind) {
		return e
	}
	idx, alreadyMarked := in.table.Register(in.file, e.Span().Start.Offset, kind)
	if alreadyMarked {
		return e
	}
	return in.mode.probe(in.file, idx, e)
}

func (in *instrumenter) walkPhrase(ph mml.Phrase) {
	switch x := ph.(type) {
	case *mml.LetPhrase:
		x.B.RHS = in.wrap(in.walkExpr(x.B.RHS), KindBinding)
	case *mml.ExprPhrase:
		x.X = in.wrap(in.walkExpr(x.X), KindToplevelExpr)
	case *mml.ClassPhrase:
		switch v := x.Value.(type) {
		case *mml.Object:
			in.walkObject(v)
		case *mml.ClassApply:
			for i := range v.Args {
				v.Args[i] = in.wrap(in.walkExpr(v.Args[i]), KindClassExpr)
			}
		}
	case *mml.Directive:
		if x.Arg != nil {
			x.Arg = in.wrap(in.walkExpr(x.Arg), KindToplevelExpr)
		}
	}
}

// walkExpr transforms children bottom-up and returns the (mutated)
// node. Wrap requests are issued by the parent construct, so a node's
// own offset is only registered once its children are done.
func (in *instrumenter) walkExpr(e mml.Expr) mml.Expr {
	switch x := e.(type) {
	case *mml.Unary:
		x.Operand = in.walkExpr(x.Operand)
	case *mml.Apply:
		x.Fn = in.walkExpr(x.Fn)
		lazy := isLazyOp(x)
		for i := range x.Args {
			arg := in.walkExpr(x.Args[i])
			if lazy {
				arg = in.wrap(arg, KindLazyOperator)
			}
			x.Args[i] = arg
		}
	case *mml.Tuple:
		for i := range x.Elems {
			x.Elems[i] = in.walkExpr(x.Elems[i])
		}
	case *mml.Seq:
		// The first element keeps whatever kind the enclosing context
		// assigns to the sequence as a whole; the rest are Sequence.
		for i := range x.Exprs {
			el := in.walkExpr(x.Exprs[i])
			if i > 0 {
				el = in.wrap(el, KindSequence)
			}
			x.Exprs[i] = el
		}
	case *mml.Fun:
		x.Body = in.walkExpr(x.Body)
	case *mml.Function:
		in.walkArms(x.Arms)
	case *mml.LetExpr:
		x.B.RHS = in.walkExpr(x.B.RHS)
		x.Body = in.wrap(in.walkExpr(x.Body), KindBinding)
	case *mml.If:
		x.Cond = in.walkExpr(x.Cond)
		x.Then = in.wrap(in.walkExpr(x.Then), KindIfThen)
		if x.Else != nil {
			x.Else = in.wrap(in.walkExpr(x.Else), KindIfThen)
		}
	case *mml.While:
		x.Cond = in.walkExpr(x.Cond)
		x.Body = in.wrap(in.walkExpr(x.Body), KindWhile)
	case *mml.For:
		x.From = in.walkExpr(x.From)
		x.To = in.walkExpr(x.To)
		x.Body = in.wrap(in.walkExpr(x.Body), KindFor)
	case *mml.Match:
		x.Scrut = in.walkExpr(x.Scrut)
		in.walkArms(x.Arms)
	case *mml.Try:
		x.Body = in.wrap(in.walkExpr(x.Body), KindTry)
		in.walkArms(x.Arms)
	case *mml.Object:
		in.walkObject(x)
	}
	return e
}

func (in *instrumenter) walkArms(arms []mml.Arm) {
	for i := range arms {
		if arms[i].Guard != nil {
			arms[i].Guard = in.walkExpr(arms[i].Guard)
		}
		arms[i].Body = in.wrap(in.walkExpr(arms[i].Body), KindMatch)
	}
}

func (in *instrumenter) walkObject(obj *mml.Object) {
	for _, field := range obj.Fields {
		switch f := field.(type) {
		case *mml.ValField:
			f.Value = in.wrap(in.walkExpr(f.Value), KindClassVal)
		case *mml.MethodField:
			f.Body = in.wrap(in.walkExpr(f.Body), KindClassMeth)
		case *mml.InitField:
			f.Body = in.wrap(in.walkExpr(f.Body), KindClassInit)
		}
	}
}

func isLazyOp(a *mml.Apply) bool {
	if len(a.Args) != 2 {
		return false
	}
	id, ok := a.Fn.(*mml.Ident)
	return ok && lazyOps[id.Name]
}
