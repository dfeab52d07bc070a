package enrich

import (
	"regexp"
	"strings"

	"github.com/medalline/enrich/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// BuildQuery substitutes product fields into a search template. Unresolved
// placeholders are dropped and whitespace collapsed. A template whose
// placeholders all failed to resolve yields "", which callers skip — a
// query of nothing but boilerplate words finds the wrong product.
func BuildQuery(template string, fields model.Fields) string {
	resolved := 0
	placeholders := 0

	out := placeholderPattern.ReplaceAllStringFunc(template, func(ph string) string {
		placeholders++
		name := strings.Trim(ph, "{}")
		v, ok := fields[name]
		if !ok || v.IsEmpty() {
			return ""
		}
		resolved++
		return v.Text()
	})

	if placeholders > 0 && resolved == 0 {
		return ""
	}
	return strings.Join(strings.Fields(out), " ")
}
