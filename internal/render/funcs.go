package render

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"
)

// markdownEscaper escapes the entities of Telegram's legacy Markdown mode.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

func funcs() template.FuncMap {
	return template.FuncMap{
		"capitalize": Capitalize,
		"escape":     EscapeMarkdown,
		"replace":    replace,
		"upper":      func(v any) string { return strings.ToUpper(toString(v)) },
		"lower":      func(v any) string { return strings.ToLower(toString(v)) },
		"join":       join,
	}
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(v any) string {
	s := toString(v)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func EscapeMarkdown(v any) string {
	return markdownEscaper.Replace(toString(v))
}

// replace is argument-ordered for pipelines: {{.event | replace "_" "-"}}.
func replace(old, new string, v any) string {
	return strings.ReplaceAll(toString(v), old, new)
}

func join(sep string, v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, sep)
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, toString(p))
		}
		return strings.Join(parts, sep)
	default:
		return toString(v)
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
