package markup

import (
	"context"
	"errors"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/model"
	"github.com/goliatone/go-knackobject/pkg/render"
)

func scalar(key, label, html string) *model.ScalarField {
	return &model.ScalarField{Schema: knack.FieldSchema{Key: key, Label: label, Type: knack.FieldTypeScalar}, HTML: html}
}

func render0(t *testing.T, tree model.Tree, options render.RenderOptions) string {
	t.Helper()
	out, err := New().Render(context.Background(), tree, options)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func TestRender_ScalarField(t *testing.T) {
	got := render0(t, model.Tree{scalar("field_1", "Name", "<b>Jo</b>")}, render.RenderOptions{})
	want := `<div><span class="kn-label">Name</span><span class="kn-value"><b>Jo</b></span></div>`
	if got != want {
		t.Fatalf("unexpected output:\n got %s\nwant %s", got, want)
	}
}

func TestRender_EmptyTree(t *testing.T) {
	if got := render0(t, model.Tree{}, render.RenderOptions{}); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
	if got := render0(t, nil, render.RenderOptions{}); got != "" {
		t.Fatalf("expected empty output for nil tree, got %q", got)
	}
}

func TestRender_ConnectionHeaderOnlyAtTopLevel(t *testing.T) {
	leaf := scalar("field_3", "City", "Oslo")
	nested := &model.ConnectionField{
		Schema: knack.FieldSchema{Key: "field_2", Label: "Office", Type: knack.FieldTypeConnection},
		Connections: []model.Connection{{
			ID:      "o1",
			Records: model.Tree{leaf},
			Body:    &model.RecordList{Records: model.Tree{leaf}},
		}},
	}
	childRecords := model.Tree{scalar("field_10", "Company", "Acme"), nested}
	tree := model.Tree{&model.ConnectionField{
		Schema: knack.FieldSchema{Key: "field_1", Label: "Employer", Type: knack.FieldTypeConnection},
		Connections: []model.Connection{{
			ID:      "c1",
			Records: childRecords,
			Body:    &model.RecordList{Records: childRecords},
		}},
	}}

	got := render0(t, tree, render.RenderOptions{})
	want := `<h2>Employer</h2>` +
		`<div><span class="kn-label">Company</span><span class="kn-value">Acme</span></div>` +
		`<div><span class="kn-label">City</span><span class="kn-value">Oslo</span></div>`
	if got != want {
		t.Fatalf("unexpected output:\n got %s\nwant %s", got, want)
	}
	if strings.Count(got, "<h2>") != 1 {
		t.Fatalf("nested connection must not emit a header")
	}
}

func TestRender_LabelValuePair(t *testing.T) {
	title := scalar("field_20", "Title", "Size")
	details := scalar("field_21", "Details", "Large")
	pairing := model.Pairing{Key: "Title", Value: "Details"}

	tests := []struct {
		name    string
		records model.Tree
		want    string
	}{
		{
			name:    "key then value",
			records: model.Tree{title, details},
			want:    `<h2>Facts</h2><div class="kn-label">Size</div><div class="kn-value">Large</div>`,
		},
		{
			name:    "value then key",
			records: model.Tree{details, title},
			want: `<h2>Facts</h2>` +
				`<div><span class="kn-label">Details</span><span class="kn-value">Large</span></div>` +
				`<div><span class="kn-label">Title</span><span class="kn-value">Size</span></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := model.Tree{&model.ConnectionField{
				Schema: knack.FieldSchema{Key: "field_2", Label: "Facts", Type: knack.FieldTypeConnection},
				Connections: []model.Connection{{
					ID:      "f1",
					Records: tt.records,
					Body:    pairing.Classify(tt.records),
				}},
			}}
			if got := render0(t, tree, render.RenderOptions{}); got != tt.want {
				t.Fatalf("unexpected output:\n got %s\nwant %s", got, tt.want)
			}
		})
	}

	valueOnly := render0(t, model.Tree{&model.LabelValuePair{Value: details}}, render.RenderOptions{})
	if valueOnly != `<div class="kn-value">Large</div>` {
		t.Fatalf("unexpected value-only output %s", valueOnly)
	}
}

func TestRender_TruncatedConnectionsAreSkipped(t *testing.T) {
	tree := model.Tree{&model.ConnectionField{
		Schema:      knack.FieldSchema{Key: "field_2", Label: "Manager", Type: knack.FieldTypeConnection},
		Connections: []model.Connection{{ID: "a", Truncated: true, Records: model.Tree{}, Body: &model.RecordList{}}},
	}}
	if got := render0(t, tree, render.RenderOptions{}); got != "<h2>Manager</h2>" {
		t.Fatalf("unexpected output %s", got)
	}
}

func TestRender_EscapesLabelsAndSanitizesValues(t *testing.T) {
	tree := model.Tree{scalar("field_1", "A & <B>", `<a href="https://x.test" onclick="evil()">x</a><script>alert(1)</script>`)}

	raw := render0(t, tree, render.RenderOptions{})
	if !strings.Contains(raw, `A &amp; &lt;B&gt;`) {
		t.Fatalf("label not escaped: %s", raw)
	}
	if !strings.Contains(raw, "<script>") {
		t.Fatalf("display html should pass through unsanitized by default")
	}

	clean := render0(t, tree, render.RenderOptions{Sanitize: true})
	if strings.Contains(clean, "<script>") || strings.Contains(clean, "onclick") {
		t.Fatalf("sanitized output still carries unsafe markup: %s", clean)
	}
	if !strings.Contains(clean, `href="https://x.test"`) {
		t.Fatalf("sanitizer dropped the link: %s", clean)
	}
}

func TestRender_ThemeTokensOverrideClasses(t *testing.T) {
	options := render.RenderOptions{Theme: &theme.RendererConfig{Tokens: map[string]string{
		render.TokenLabelClass: "label",
		render.TokenValueClass: "value",
	}}}
	got := render0(t, model.Tree{scalar("field_1", "Name", "Jo")}, options)
	if got != `<div><span class="label">Name</span><span class="value">Jo</span></div>` {
		t.Fatalf("unexpected output %s", got)
	}
}

func TestRender_UnsupportedShape(t *testing.T) {
	tests := []struct {
		name string
		tree model.Tree
		path string
	}{
		{name: "nil node", tree: model.Tree{nil}, path: "[0]"},
		{name: "pair without value", tree: model.Tree{&model.LabelValuePair{}}, path: "[0]"},
		{
			name: "connection with nil body",
			tree: model.Tree{scalar("field_1", "Name", "Jo"), &model.ConnectionField{
				Schema:      knack.FieldSchema{Key: "field_2", Label: "Company"},
				Connections: []model.Connection{{ID: "c1"}},
			}},
			path: "[1].field_2[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Render(context.Background(), tt.tree, render.RenderOptions{})
			var shapeErr *render.UnsupportedShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected unsupported shape error, got %v", err)
			}
			if shapeErr.Path != tt.path {
				t.Fatalf("unexpected path %q, want %q", shapeErr.Path, tt.path)
			}
			if out != nil {
				t.Fatalf("expected no partial output, got %q", out)
			}
		})
	}
}
