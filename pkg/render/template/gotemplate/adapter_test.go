package gotemplate

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEngine_RenderTemplateFromFS(t *testing.T) {
	files := fstest.MapFS{
		"knack/scalar.tmpl": {Data: []byte(`<span>{{ label }}</span>{{ value|safe }}`)},
	}
	engine, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	var out strings.Builder
	got, err := engine.RenderTemplate("knack/scalar", map[string]any{"label": "<A>", "value": "<b>x</b>"}, &out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<span>&lt;A&gt;</span><b>x</b>`
	if got != want || out.String() != want {
		t.Fatalf("unexpected output %q / %q", got, out.String())
	}
}

func TestEngine_RenderStringWithGlobalsAndFilters(t *testing.T) {
	engine, err := New(WithFS(fstest.MapFS{}), WithGlobalData(map[string]any{"site": "Acme"}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		s, _ := input.(string)
		return strings.ToUpper(s), nil
	}); err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("register filter: %v", err)
	}

	got, err := engine.Render(`{{ site }} {{ name|shout }}`, struct {
		Name string `json:"name"`
	}{Name: "jo"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Acme JO" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error without a template source")
	}
	engine, err := New(WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}
