package render

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Partial names the themed renderer looks up.
const (
	PartialScalar  = "knack.scalar"
	PartialPair    = "knack.pair"
	PartialSection = "knack.section"
)

// DefaultPartials maps partial names to the embedded templates.
func DefaultPartials() map[string]string {
	return map[string]string{
		PartialScalar:  "knack/scalar.tmpl",
		PartialPair:    "knack/pair.tmpl",
		PartialSection: "knack/section.tmpl",
	}
}

// ConfigFromSelection flattens a go-theme selection into the renderer config:
// fallbacks first, then manifest templates, then variant templates. Tokens
// merge the same way and are mirrored as CSS custom properties.
func ConfigFromSelection(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	cfg := &theme.RendererConfig{
		Partials: make(map[string]string, len(fallbacks)),
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}
	for key, value := range fallbacks {
		cfg.Partials[key] = value
	}
	if selection == nil {
		return cfg
	}

	cfg.Theme = selection.Theme
	cfg.Variant = selection.Variant

	manifest := selection.Manifest
	if manifest == nil {
		return cfg
	}

	prefix := manifest.Assets.Prefix
	files := map[string]string{}
	mergeInto(cfg.Partials, manifest.Templates)
	mergeInto(cfg.Tokens, manifest.Tokens)
	mergeInto(files, manifest.Assets.Files)

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		mergeInto(cfg.Partials, variant.Templates)
		mergeInto(cfg.Tokens, variant.Tokens)
		mergeInto(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	for key, value := range cfg.Tokens {
		cfg.CSSVars[cssVarName(key)] = value
	}

	cfg.AssetURL = func(key string) string {
		file := files[key]
		if file == "" {
			return ""
		}
		if prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
	return cfg
}

func mergeInto(dst, src map[string]string) {
	for key, value := range src {
		if strings.TrimSpace(value) == "" {
			continue
		}
		dst[key] = value
	}
}

func cssVarName(token string) string {
	replacer := strings.NewReplacer(".", "-", "_", "-", " ", "-")
	return "--" + replacer.Replace(strings.ToLower(token))
}
