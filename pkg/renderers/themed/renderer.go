// Package themed renders resolved record trees through pongo2 partials that a
// go-theme selection can override per theme and variant.
package themed

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-knackobject/pkg/model"
	"github.com/goliatone/go-knackobject/pkg/render"
	rendertemplate "github.com/goliatone/go-knackobject/pkg/render/template"
	"github.com/goliatone/go-knackobject/pkg/render/template/gotemplate"
)

// Name is the registry name of the renderer.
const Name = "themed"

type Option func(*config)

type config struct {
	templateFS   fs.FS
	templatesDir string
}

// WithTemplatesFS supplies an alternate template bundle. Partials not present
// in the bundle fail at render time.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads partials from a directory on disk laid out like the
// built-in bundle (knack/scalar.tmpl and so on). Partials missing from the
// directory fall back to the template bundle.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(path)
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the themed renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	if cfg.templatesDir != "" {
		info, err := os.Stat(cfg.templatesDir)
		if err != nil {
			return nil, fmt.Errorf("themed renderer: templates dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("themed renderer: templates dir %s is not a directory", cfg.templatesDir)
		}
	}

	engine, err := gotemplate.New(
		gotemplate.WithBaseDir(cfg.templatesDir),
		gotemplate.WithFS(cfg.templateFS),
		gotemplate.WithExtension(".tmpl"),
	)
	if err != nil {
		return nil, fmt.Errorf("themed renderer: configure template renderer: %w", err)
	}
	return &Renderer{templates: engine}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render walks the tree with the same dispatch as the markup renderer, one
// partial per emitted element.
func (r *Renderer) Render(ctx context.Context, tree model.Tree, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("themed renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &walker{
		templates: r.templates,
		options:   options,
		partials:  partials(options),
	}
	if err := w.tree(tree, 0, ""); err != nil {
		return nil, err
	}
	return []byte(w.out.String()), nil
}

func partials(options render.RenderOptions) map[string]string {
	out := render.DefaultPartials()
	if options.Theme == nil {
		return out
	}
	for key, value := range options.Theme.Partials {
		if strings.TrimSpace(value) != "" {
			out[key] = value
		}
	}
	return out
}

type walker struct {
	templates rendertemplate.TemplateRenderer
	options   render.RenderOptions
	partials  map[string]string
	out       strings.Builder
}

func (w *walker) tree(tree model.Tree, level int, path string) error {
	for idx, node := range tree {
		if err := w.node(node, level, render.ChildPath(path, idx)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) node(node model.Node, level int, path string) error {
	switch n := node.(type) {
	case *model.ScalarField:
		if n == nil {
			break
		}
		return w.partial(render.PartialScalar, map[string]any{
			"label": n.Schema.Label,
			"key":   n.Schema.Key,
			"value": w.options.DisplayValue(n.HTML),
		})
	case *model.ConnectionField:
		if n == nil {
			break
		}
		return w.connectionField(n, level, path)
	case *model.LabelValuePair:
		if n == nil || n.Value == nil {
			break
		}
		data := map[string]any{
			"has_label": n.Label != nil,
			"value":     w.options.DisplayValue(n.Value.HTML),
		}
		if n.Label != nil {
			data["label"] = w.options.DisplayValue(n.Label.HTML)
		}
		return w.partial(render.PartialPair, data)
	case *model.RecordList:
		if n == nil {
			break
		}
		return w.tree(n.Records, level+2, path)
	}
	return &render.UnsupportedShapeError{Path: path, Node: node}
}

func (w *walker) connectionField(field *model.ConnectionField, level int, path string) error {
	path = render.FieldPath(path, field.Schema.Key)
	if level == 0 {
		if err := w.partial(render.PartialSection, map[string]any{
			"label": field.Schema.Label,
			"key":   field.Schema.Key,
		}); err != nil {
			return err
		}
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

func (w *walker) partial(name string, data map[string]any) error {
	data["label_class"] = w.options.LabelClass()
	data["value_class"] = w.options.ValueClass()
	if w.options.Theme != nil {
		data["theme"] = map[string]any{
			"name":    w.options.Theme.Theme,
			"variant": w.options.Theme.Variant,
			"tokens":  w.options.Theme.Tokens,
		}
	}

	template := w.partials[name]
	if template == "" {
		return fmt.Errorf("themed renderer: partial %q is not configured", name)
	}
	if _, err := w.templates.RenderTemplate(template, data, &w.out); err != nil {
		return fmt.Errorf("themed renderer: render %s: %w", name, err)
	}
	return nil
}
