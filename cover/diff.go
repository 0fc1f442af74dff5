package cover

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders the change from original to instrumented source
// as a unified diff for preview output.
func UnifiedDiff(name string, original, instrumented []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(instrumented)),
		FromFile: name,
		ToFile:   name + " (instrumented)",
		Context:  3,
	})
}
