package render

import (
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"
)

func TestConfigFromSelection_MergesManifestAndVariant(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":         "#123456",
			TokenLabelClass: "acme-label",
		},
		Templates: map[string]string{
			PartialScalar: "themes/acme/scalar.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Templates: map[string]string{
					PartialPair: "themes/acme/dark/pair.tmpl",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"vendor": "vendor.dark.js",
					},
				},
			},
		},
	}

	cfg := ConfigFromSelection(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: manifest}, DefaultPartials())

	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected theme %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.Partials[PartialScalar] != "themes/acme/scalar.tmpl" {
		t.Fatalf("expected manifest override, got %s", cfg.Partials[PartialScalar])
	}
	if cfg.Partials[PartialPair] != "themes/acme/dark/pair.tmpl" {
		t.Fatalf("expected variant override, got %s", cfg.Partials[PartialPair])
	}
	if cfg.Partials[PartialSection] != DefaultPartials()[PartialSection] {
		t.Fatalf("fallback partial not applied for section")
	}
	if cfg.Tokens["brand"] != "#654321" || cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("variant tokens not merged: %v %v", cfg.Tokens, cfg.CSSVars)
	}
	if cfg.CSSVars["--knack-label-class"] != "acme-label" {
		t.Fatalf("dotted token not mapped to css var: %v", cfg.CSSVars)
	}
	if got := cfg.AssetURL("vendor"); got != "/assets/themes/acme/vendor.dark.js" {
		t.Fatalf("unexpected vendor asset url %s", got)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("unexpected stylesheet url %s", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for unknown asset, got %s", got)
	}

	options := RenderOptions{Theme: cfg}
	if options.LabelClass() != "acme-label" || options.ValueClass() != DefaultValueClass {
		t.Fatalf("unexpected classes %s/%s", options.LabelClass(), options.ValueClass())
	}
}

func TestConfigFromSelection_NilSelectionKeepsFallbacks(t *testing.T) {
	cfg := ConfigFromSelection(nil, DefaultPartials())
	if len(cfg.Partials) != 3 || cfg.AssetURL != nil {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestSanitizeValue(t *testing.T) {
	got := SanitizeValue(`<p class="note">Hi<img src="x" onerror="evil()"></p><script>x</script>`)
	if strings.Contains(got, "onerror") || strings.Contains(got, "<script>") {
		t.Fatalf("unsafe markup kept: %s", got)
	}
	if !strings.Contains(got, `class="note"`) {
		t.Fatalf("class attribute dropped: %s", got)
	}
	if SanitizeValue("") != "" {
		t.Fatalf("empty input should stay empty")
	}
}
