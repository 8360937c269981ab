// Package diff renders line diffs for test failures.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Lines returns "" when want and got hold the same lines, otherwise the
// edits that turn got into want.
func Lines(want, got []string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(strings.Join(got, "\n")+"\n", strings.Join(want, "\n")+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	changed := false
	var sb strings.Builder
	sb.WriteString("\n\nto convert ACTUAL ⏩️ EXPECTED:\n\nadd:    ➕\nremove: ➖\n\n")
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, changed = "➕", true
		case diffmatchpatch.DiffDelete:
			prefix, changed = "➖", true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + line)
		}
	}
	if !changed {
		return ""
	}
	return sb.String()
}
