package render

import theme "github.com/goliatone/go-theme"

// Default class names emitted around labels and values.
const (
	DefaultLabelClass = "kn-label"
	DefaultValueClass = "kn-value"
)

// Theme tokens renderers read to override the default class names.
const (
	TokenLabelClass = "knack.label-class"
	TokenValueClass = "knack.value-class"
)

// RenderOptions carries per-request renderer settings.
type RenderOptions struct {
	// Theme supplies partial overrides and tokens resolved through go-theme.
	// Renderers that do not use templates still honour the class tokens.
	Theme *theme.RendererConfig

	// Sanitize passes display HTML through an allow-list policy before it is
	// emitted. Labels are always escaped.
	Sanitize bool
}

// LabelClass returns the label class, honouring the theme token.
func (o RenderOptions) LabelClass() string {
	return o.token(TokenLabelClass, DefaultLabelClass)
}

// ValueClass returns the value class, honouring the theme token.
func (o RenderOptions) ValueClass() string {
	return o.token(TokenValueClass, DefaultValueClass)
}

func (o RenderOptions) token(name, fallback string) string {
	if o.Theme == nil {
		return fallback
	}
	if value := o.Theme.Tokens[name]; value != "" {
		return value
	}
	return fallback
}
