package cover

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-analyze/bulk"
)

// Kind classifies the source construct a coverage point marks.
type Kind int

const (
	KindBinding Kind = iota
	KindSequence
	KindFor
	KindIfThen
	KindTry
	KindWhile
	KindMatch
	KindClassExpr
	KindClassInit
	KindClassMeth
	KindClassVal
	KindToplevelExpr
	KindLazyOperator
	kindCount
)

var kindNames = map[Kind]string{
	KindBinding:      "binding",
	KindSequence:     "sequence",
	KindFor:          "for",
	KindIfThen:       "if-then",
	KindTry:          "try",
	KindWhile:        "while",
	KindMatch:        "match",
	KindClassExpr:    "class-expr",
	KindClassInit:    "class-init",
	KindClassMeth:    "class-meth",
	KindClassVal:     "class-val",
	KindToplevelExpr: "toplevel-expr",
	KindLazyOperator: "lazy-operator",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// kindCodes maps the single-character selectors accepted by the
// --enable and --disable flags to point kinds.
var kindCodes = map[byte]Kind{
	'b': KindBinding,
	's': KindSequence,
	'f': KindFor,
	'i': KindIfThen,
	't': KindTry,
	'w': KindWhile,
	'm': KindMatch,
	'c': KindClassExpr,
	'd': KindClassInit,
	'e': KindClassMeth,
	'v': KindClassVal,
	'p': KindToplevelExpr,
	'l': KindLazyOperator,
}

var kindToCode = make(map[Kind]byte, len(kindCodes))

func init() {
	for code, kind := range kindCodes {
		kindToCode[kind] = code
	}
}

// ErrUnknownKindCode reports a selector character outside the code table.
var ErrUnknownKindCode = errors.New("unknown point kind code")

// ParseKindCodes expands a selector string like "bsp" into kinds.
func ParseKindCodes(codes string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(codes))
	for i := 0; i < len(codes); i++ {
		k, ok := kindCodes[codes[i]]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownKindCode, string(codes[i]))
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// KindCode returns the selector code for a kind, or '?' when the kind
// is out of range.
func KindCode(k Kind) byte {
	if code, ok := kindToCode[k]; ok {
		return code
	}
	return '?'
}

// KindRegistry tracks which point kinds instrumentation may produce.
// Every kind starts enabled.
type KindRegistry struct {
	disabled map[Kind]bool
}

func NewKindRegistry() *KindRegistry {
	return &KindRegistry{disabled: make(map[Kind]bool, kindCount)}
}

// SetEnabled turns production of one kind on or off.
func (r *KindRegistry) SetEnabled(k Kind, enabled bool) {
	r.disabled[k] = !enabled
}

// Apply interprets a selector string, enabling or disabling every kind
// it names. Later applications win over earlier ones.
func (r *KindRegistry) Apply(codes string, enable bool) error {
	kinds, err := ParseKindCodes(codes)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		r.SetEnabled(k, enable)
	}
	return nil
}

// Enabled reports whether points of the given kind may be produced.
func (r *KindRegistry) Enabled(k Kind) bool {
	return !r.disabled[k]
}

// DisabledCodes returns the selector codes of every disabled kind in
// stable order. The result keys cached instrumentation results.
func (r *KindRegistry) DisabledCodes() string {
	kinds := bulk.SliceFilter(func(k Kind) bool {
		return r.disabled[k]
	}, bulk.MapKeysSlice(r.disabled))
	slices.Sort(kinds)
	codes := make([]byte, len(kinds))
	for i, k := range kinds {
		codes[i] = KindCode(k)
	}
	return string(codes)
}
