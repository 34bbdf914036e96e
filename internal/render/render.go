// Package render turns alert fields into Telegram Markdown text.
//
// Templates use text/template syntax against the map built by alert.Event.Fields.
// Referencing a field that does not exist is an execution error; Render then
// returns FallbackText so a broken template never blocks a notification.
package render

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// FallbackText replaces the message when the template cannot be executed.
const FallbackText = "Something bad has happened but we can't render your message template."

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = "{{if .customer}}Customer: `{{.customer}}` {{end}}\n" +
	"\n" +
	"*[{{capitalize .status}}] {{.environment}} {{capitalize .severity}}*\n" +
	"{{replace \"_\" \"\\\\_\" .event}} {{capitalize .resource}}\n" +
	"\n" +
	"```\n" +
	"{{.text}}\n" +
	"```\n"

type Renderer struct {
	tmpl *template.Template
}

// New parses src. An empty src selects DefaultTemplate.
// Parse errors are returned; they are a configuration problem, not a render failure.
func New(src string) (*Renderer, error) {
	if strings.TrimSpace(src) == "" {
		src = DefaultTemplate
	}
	t, err := template.New("message").
		Funcs(funcs()).
		Option("missingkey=error").
		Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse message template: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Execute renders data and reports any execution error as-is.
func (r *Renderer) Execute(data map[string]any) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Render always returns usable text. On failure the text is FallbackText and
// err carries the cause for logging.
func (r *Renderer) Render(data map[string]any) (text string, err error) {
	out, err := r.Execute(data)
	if err != nil {
		return FallbackText, err
	}
	return out, nil
}

// LoadSource resolves the configured template value.
// An existing regular file is read; any other non-empty value is the template itself.
func LoadSource(value string) (string, error) {
	if value == "" {
		return DefaultTemplate, nil
	}
	fi, err := os.Stat(value)
	if err != nil || !fi.Mode().IsRegular() {
		return value, nil
	}
	b, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("read template %q: %w", value, err)
	}
	return string(b), nil
}
