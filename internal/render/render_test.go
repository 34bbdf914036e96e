package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tgalert/internal/alert"
)

func sampleEvent() *alert.Event {
	return &alert.Event{
		ID:          "7a3f1c2e-0000",
		Resource:    "web01",
		Event:       "node_down",
		Environment: "Production",
		Status:      alert.StatusOpen,
		Severity:    "CRITICAL",
		Customer:    "acme",
		Text:        "disk full",
		Attributes:  map[string]any{"region": "eu-west"},
	}
}

func TestDefaultTemplate(t *testing.T) {
	t.Parallel()
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := r.Render(sampleEvent().Fields())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Customer: `acme` \n" +
		"\n" +
		"*[Open] Production Critical*\n" +
		"node\\_down Web01\n" +
		"\n" +
		"```\n" +
		"disk full\n" +
		"```\n"
	if got != want {
		t.Fatalf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestDefaultTemplateEscapesOnlyUnderscores(t *testing.T) {
	t.Parallel()
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ev := sampleEvent()
	ev.Event = "disk_full*[sda]`"

	got, err := r.Render(ev.Fields())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "disk\\_full*[sda]` Web01\n"; !strings.Contains(got, want) {
		t.Fatalf("Render = %q, want event line %q", got, want)
	}
}

func TestDefaultTemplateWithoutCustomer(t *testing.T) {
	t.Parallel()
	r, err := New(DefaultTemplate)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ev := sampleEvent()
	ev.Customer = ""

	got, err := r.Render(ev.Fields())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "Customer:") {
		t.Fatalf("customer line rendered without customer: %q", got)
	}
	if !strings.HasPrefix(got, "\n\n*[Open] Production Critical*") {
		t.Fatalf("unexpected header: %q", got)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	t.Parallel()
	r, err := New("{{upper .severity}} {{.region}} {{join \",\" .tags}}")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ev := sampleEvent()
	ev.Tags = []string{"a", "b"}
	fields := ev.Fields()

	first, err := r.Render(fields)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, _ := r.Render(fields)
	if first != second {
		t.Fatalf("Render not idempotent: %q vs %q", first, second)
	}
	if first != "CRITICAL eu-west a,b" {
		t.Fatalf("Render = %q", first)
	}
}

func TestRenderUndefinedFieldFallsBack(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
	}{
		{name: "top level", src: "{{.no_such_field}}"},
		{name: "attribute", src: "{{.attributes.missing}}"},
		{name: "inside conditional", src: "{{if .customer}}{{.account_manager}}{{end}}"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := New(tt.src)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got, err := r.Render(sampleEvent().Fields())
			if err == nil {
				t.Fatal("expected render error to be reported")
			}
			if got != FallbackText {
				t.Fatalf("Render = %q, want fallback", got)
			}
		})
	}
}

func TestNewRejectsBrokenTemplate(t *testing.T) {
	t.Parallel()
	if _, err := New("{{if .customer}"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := New("{{shout .event}}"); err == nil {
		t.Fatal("expected unknown function error")
	}
}

func TestLoadSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "msg.tmpl")
	if err := os.WriteFile(path, []byte("from file {{.id}}"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "empty selects default", value: "", want: DefaultTemplate},
		{name: "existing file", value: path, want: "from file {{.id}}"},
		{name: "literal", value: "*{{.event}}*", want: "*{{.event}}*"},
		{name: "missing path is literal", value: filepath.Join(dir, "nope.tmpl"), want: filepath.Join(dir, "nope.tmpl")},
		{name: "directory is literal", value: dir, want: dir},
	}
	for _, tt := range tests {
		got, err := LoadSource(tt.value)
		if err != nil {
			t.Fatalf("%s: LoadSource error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: LoadSource = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFuncs(t *testing.T) {
	t.Parallel()
	if got := Capitalize("hELLO world"); got != "Hello world" {
		t.Fatalf("Capitalize = %q", got)
	}
	if got := Capitalize(""); got != "" {
		t.Fatalf("Capitalize(empty) = %q", got)
	}
	if got := Capitalize(alert.SeverityMajor); got != "Major" {
		t.Fatalf("Capitalize(Severity) = %q", got)
	}
	if got := EscapeMarkdown("a_b*c`d[e"); got != "a\\_b\\*c\\`d\\[e" {
		t.Fatalf("EscapeMarkdown = %q", got)
	}
	if got := replace("_", "-", "node_down_now"); got != "node-down-now" {
		t.Fatalf("replace = %q", got)
	}
	if got := join("|", []any{"a", 1}); got != "a|1" {
		t.Fatalf("join = %q", got)
	}
}
