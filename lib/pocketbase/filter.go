package pocketbase

import (
	"fmt"
	"strings"
)

// Filter renders a PocketBase filter expression, substituting each {}
// placeholder with the corresponding argument. strings are quoted and
// escaped; everything else renders through fmt.
func Filter(expr string, args ...any) string {
	var b strings.Builder
	rest := expr
	for _, arg := range args {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(renderValue(arg))
		rest = rest[idx+2:]
	}
	b.WriteString(rest)
	return b.String()
}

func renderValue(v any) string {
	switch x := v.(type) {
	case string:
		return `"` + escapeString(x) + `"`
	case fmt.Stringer:
		return `"` + escapeString(x.String()) + `"`
	default:
		return fmt.Sprint(x)
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
