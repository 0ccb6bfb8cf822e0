// Package template implements the prompt substitution engine. Templates use
// {{ key }} placeholders resolved against a string-keyed context. Rendering
// is best-effort: placeholders with no matching key are left untouched so a
// half-configured prompt still produces usable output.
package template

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Engine renders template strings. It is stateless and safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Render substitutes {{ key }} placeholders with values from context.
// Unknown keys are left unresolved; a nil context is a no-op render.
func (e *Engine) Render(tmpl string, context map[string]string) string {
	if tmpl == "" || !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := context[key]; ok {
			return value
		}
		return match
	})
}
