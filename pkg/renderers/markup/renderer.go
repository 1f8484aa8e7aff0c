package markup

import (
	"context"
	"html"
	"strings"

	"github.com/goliatone/go-knackobject/pkg/model"
	"github.com/goliatone/go-knackobject/pkg/render"
)

// Name is the registry name of the renderer.
const Name = "markup"

// Renderer writes HTML with a strings.Builder, one method per node variant.
type Renderer struct{}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the markup renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render renders the tree. An empty tree renders to an empty fragment.
func (r *Renderer) Render(ctx context.Context, tree model.Tree, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := &writer{options: options}
	if err := w.tree(tree, 0, ""); err != nil {
		return nil, err
	}
	return []byte(w.String()), nil
}

type writer struct {
	strings.Builder
	options render.RenderOptions
}

func (w *writer) tree(tree model.Tree, level int, path string) error {
	for idx, node := range tree {
		if err := w.node(node, level, render.ChildPath(path, idx)); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) node(node model.Node, level int, path string) error {
	switch n := node.(type) {
	case *model.ScalarField:
		if n == nil {
			break
		}
		w.scalar(n)
		return nil
	case *model.ConnectionField:
		if n == nil {
			break
		}
		return w.connectionField(n, level, path)
	case *model.LabelValuePair:
		if n == nil || n.Value == nil {
			break
		}
		w.pair(n)
		return nil
	case *model.RecordList:
		if n == nil {
			break
		}
		return w.tree(n.Records, level+2, path)
	}
	return &render.UnsupportedShapeError{Path: path, Node: node}
}

func (w *writer) connectionField(field *model.ConnectionField, level int, path string) error {
	path = render.FieldPath(path, field.Schema.Key)
	if level == 0 {
		w.WriteString("<h2>")
		w.WriteString(html.EscapeString(field.Schema.Label))
		w.WriteString("</h2>")
	}
	for idx, conn := range field.Connections {
		if conn.Truncated {
			continue
		}
		if err := w.node(conn.Body, level+1, render.ChildPath(path, idx)); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) scalar(field *model.ScalarField) {
	w.WriteString(`<div><span class="`)
	w.WriteString(html.EscapeString(w.options.LabelClass()))
	w.WriteString(`">`)
	w.WriteString(html.EscapeString(field.Schema.Label))
	w.WriteString(`</span><span class="`)
	w.WriteString(html.EscapeString(w.options.ValueClass()))
	w.WriteString(`">`)
	w.WriteString(w.options.DisplayValue(field.HTML))
	w.WriteString(`</span></div>`)
}

func (w *writer) pair(pair *model.LabelValuePair) {
	if pair.Label != nil {
		w.WriteString(`<div class="`)
		w.WriteString(html.EscapeString(w.options.LabelClass()))
		w.WriteString(`">`)
		w.WriteString(w.options.DisplayValue(pair.Label.HTML))
		w.WriteString(`</div>`)
	}
	w.WriteString(`<div class="`)
	w.WriteString(html.EscapeString(w.options.ValueClass()))
	w.WriteString(`">`)
	w.WriteString(w.options.DisplayValue(pair.Value.HTML))
	w.WriteString(`</div>`)
}
