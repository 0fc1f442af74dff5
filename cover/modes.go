package cover

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mmltools/mmlcov/mml"
)

// Mode selects how instrumented code reports execution.
type Mode int

const (
	// ModeSafe calls the runtime on every point hit.
	ModeSafe Mode = iota
	// ModeFast counts hits in a per-file array, bracketing each update
	// with the runtime's before/after hooks.
	ModeFast
	// ModeFaster counts hits in a per-file array with no hook calls.
	ModeFaster
)

// ErrUnknownMode reports a mode name outside safe, fast, and faster.
var ErrUnknownMode = errors.New("unknown instrumentation mode")

func ParseMode(s string) (Mode, error) {
	switch s {
	case "safe":
		return ModeSafe, nil
	case "fast":
		return ModeFast, nil
	case "faster":
		return ModeFaster, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	case ModeFast:
		return "fast"
	case ModeFaster:
		return "faster"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Runtime entry points referenced by instrumented sources.
const (
	runtimeInit      = "Coverage.init"
	runtimeInitArray = "Coverage.init_with_array"
	runtimeMark      = "Coverage.mark"
	runtimeGetHooks  = "Coverage.get_hooks"
)

// Names injected into instrumented files. The prefix keeps them out of
// the way of user identifiers.
const (
	countersVar = "__mmlcov_counters"
	markFnVar   = "__mmlcov_mark"
	beforeVar   = "__mmlcov_before"
	afterVar    = "__mmlcov_after"
)

func ghostIdent(name string) *mml.Ident {
	return &mml.Ident{Name: name, Loc: mml.GhostSpan()}
}

func ghostIdentPat(name string) *mml.IdentPat {
	return &mml.IdentPat{Name: name, Loc: mml.GhostSpan()}
}

func ghostInt(v int) *mml.Lit {
	return &mml.Lit{Kind: mml.LitInt, Text: strconv.Itoa(v), Loc: mml.GhostSpan()}
}

func ghostString(s string) *mml.Lit {
	return &mml.Lit{Kind: mml.LitString, Text: strconv.Quote(s), Loc: mml.GhostSpan()}
}

func ghostBool(v bool) *mml.Lit {
	return &mml.Lit{Kind: mml.LitBool, Text: strconv.FormatBool(v), Loc: mml.GhostSpan()}
}

func ghostUnit() *mml.Lit {
	return &mml.Lit{Kind: mml.LitUnit, Text: "()", Loc: mml.GhostSpan()}
}

func ghostApply(fn string, args ...mml.Expr) *mml.Apply {
	return &mml.Apply{Fn: ghostIdent(fn), Args: args, Loc: mml.GhostSpan()}
}

func ghostLet(pat mml.Pat, rhs mml.Expr) *mml.LetPhrase {
	return &mml.LetPhrase{B: mml.Binding{Pat: pat, RHS: rhs}, Loc: mml.GhostSpan()}
}

// probe wraps an expression so that point idx is marked strictly
// before the expression evaluates. The result keeps the original
// expression's value and effects.
func (m Mode) probe(file string, idx int, original mml.Expr) mml.Expr {
	var mark mml.Expr
	if m == ModeSafe {
		mark = ghostApply(runtimeMark, ghostString(file), ghostInt(idx))
	} else {
		mark = ghostApply(markFnVar, ghostInt(idx))
	}
	return &mml.Seq{Exprs: []mml.Expr{mark, original}, Loc: mml.GhostAt(original.Span().Start)}
}

// setupPhrases returns the header phrases prepended to a file on first
// sight. count must be the file's final point count; the array modes
// size their counter storage with it, and the runtime rejects arrays
// whose length disagrees with the persisted point table.
func (m Mode) setupPhrases(file string, count int) []mml.Phrase {
	switch m {
	case ModeSafe:
		init := ghostApply(runtimeInit, ghostString(file))
		return []mml.Phrase{&mml.ExprPhrase{X: init, Loc: mml.GhostSpan()}}
	case ModeFast:
		return []mml.Phrase{
			counterArrayPhrase(count),
			registerArrayPhrase(file, false),
			ghostLet(
				&mml.TuplePat{
					Elems: []mml.Pat{ghostIdentPat(beforeVar), ghostIdentPat(afterVar)},
					Loc:   mml.GhostSpan(),
				},
				ghostApply(runtimeGetHooks, ghostUnit()),
			),
			ghostLet(ghostIdentPat(markFnVar), markFunction(true)),
		}
	case ModeFaster:
		return []mml.Phrase{
			counterArrayPhrase(count),
			registerArrayPhrase(file, true),
			ghostLet(ghostIdentPat(markFnVar), markFunction(false)),
		}
	}
	return nil
}

func counterArrayPhrase(count int) *mml.LetPhrase {
	return ghostLet(ghostIdentPat(countersVar),
		ghostApply("Array.make", ghostInt(count), ghostInt(0)))
}

func registerArrayPhrase(file string, extended bool) *mml.LetPhrase {
	return ghostLet(&mml.WildPat{Loc: mml.GhostSpan()},
		ghostApply(runtimeInitArray, ghostString(file), ghostIdent(countersVar), ghostBool(extended)))
}

// markFunction builds the per-file counter increment function. The
// increment saturates at max_int instead of wrapping, and is not
// atomic: concurrent instrumented code may undercount.
func markFunction(hooked bool) mml.Expr {
	saturated := &mml.If{
		Cond: ghostApply("<", ghostIdent("v"), ghostIdent("max_int")),
		Then: ghostApply("+", ghostIdent("v"), ghostInt(1)),
		Else: ghostIdent("v"),
		Loc:  mml.GhostSpan(),
	}
	update := &mml.LetExpr{
		B: mml.Binding{
			Pat: ghostIdentPat("v"),
			RHS: ghostApply("Array.get", ghostIdent(countersVar), ghostIdent("idx")),
		},
		Body: ghostApply("Array.set", ghostIdent(countersVar), ghostIdent("idx"), saturated),
		Loc:  mml.GhostSpan(),
	}
	var body mml.Expr = update
	if hooked {
		body = &mml.Seq{
			Exprs: []mml.Expr{
				ghostApply(beforeVar, ghostUnit()),
				update,
				ghostApply(afterVar, ghostUnit()),
			},
			Loc: mml.GhostSpan(),
		}
	}
	return &mml.Fun{
		Params: []mml.Pat{ghostIdentPat("idx")},
		Body:   body,
		Loc:    mml.GhostSpan(),
	}
}
