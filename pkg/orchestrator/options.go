package orchestrator

import (
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-knackobject/pkg/config"
	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/render"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithConfig supplies credentials, the default subject and rendering knobs.
func WithConfig(cfg config.Config) Option {
	return func(o *Orchestrator) {
		o.cfg = cfg
	}
}

// WithFetcher injects a custom fetcher; the default is the HTTP client built
// from the config.
func WithFetcher(fetcher knack.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithResolver injects a custom resolver.
func WithResolver(resolver Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = resolver
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits one.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer applied to every tree before
// rendering, including trees supplied through Resolved.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithLogger injects a zap logger shared with the default resolver.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithThemeSelector resolves a go-theme selection per request; name and
// variant are used when the request does not name its own.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithThemeFallbacks sets partials used when the selected theme does not
// override them.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		if len(fallbacks) == 0 {
			return
		}
		if o.themeFallbacks == nil {
			o.themeFallbacks = make(map[string]string, len(fallbacks))
		}
		for key, value := range fallbacks {
			o.themeFallbacks[key] = value
		}
	}
}
