package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-knackobject/internal/knack/client"
	"github.com/goliatone/go-knackobject/pkg/config"
	"github.com/goliatone/go-knackobject/pkg/host"
	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/model"
	"github.com/goliatone/go-knackobject/pkg/mount"
	"github.com/goliatone/go-knackobject/pkg/render"
	"github.com/goliatone/go-knackobject/pkg/renderers/markup"
	"github.com/goliatone/go-knackobject/pkg/renderers/themed"
	"github.com/goliatone/go-knackobject/pkg/resolver"
)

// Resolver resolves one record into a tree.
type Resolver interface {
	Resolve(ctx context.Context, objectID, recordID string) (model.Tree, error)
}

// Orchestrator coordinates the pipeline from API records to mounted HTML. It
// builds the HTTP fetcher, resolver and renderer registry from the config
// unless they are injected.
type Orchestrator struct {
	cfg             config.Config
	fetcher         knack.Fetcher
	resolver        Resolver
	registry        *render.Registry
	defaultRenderer string
	transformers    []Transformer
	logger          *zap.Logger
	themeSelector   theme.ThemeSelector
	themeName       string
	themeVariant    string
	themeFallbacks  map[string]string
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Construction
// errors (bad credentials, unusable renderers) surface from Err and from
// every pipeline call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    config.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Err reports a construction failure.
func (o *Orchestrator) Err() error {
	return o.initialiseErr
}

// Config returns the configuration in use.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Fetcher returns the fetcher in use; nil when a resolver was injected alone.
func (o *Orchestrator) Fetcher() knack.Fetcher {
	return o.fetcher
}

// Request describes one render.
type Request struct {
	// Subject selects what to render. Nil means DefaultRecord().
	Subject Subject

	// Renderer names the renderer; empty uses the default renderer.
	Renderer string

	// ElementID overrides the configured mount target.
	ElementID string

	// ThemeName and ThemeVariant override the selector defaults.
	ThemeName    string
	ThemeVariant string
}

// Resolve turns a subject into a tree, fetching when needed.
func (o *Orchestrator) Resolve(ctx context.Context, subject Subject) (model.Tree, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	if subject == nil {
		subject = DefaultRecord()
	}

	var (
		objectID string
		recordID string
	)
	switch s := subject.(type) {
	case resolvedTree:
		return s.tree, nil
	case defaultRecord:
		objectID, recordID = o.cfg.ObjectID, o.cfg.RecordID
	case recordRef:
		objectID, recordID = s.objectID, s.recordID
		if objectID == "" {
			objectID = o.cfg.ObjectID
		}
	default:
		return nil, fmt.Errorf("orchestrator: unsupported subject %T", subject)
	}

	if objectID == "" || recordID == "" {
		return nil, errors.New("orchestrator: object id and record id are required")
	}
	if o.resolver == nil {
		return nil, errors.New("orchestrator: resolver is nil")
	}

	tree, err := o.resolver.Resolve(ctx, objectID, recordID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve %s/%s: %w", objectID, recordID, err)
	}
	if o.cfg.Debug {
		o.debugTree(objectID, recordID, tree)
	}
	return tree, nil
}

// Template resolves the subject when needed and renders it to HTML.
func (o *Orchestrator) Template(ctx context.Context, req Request) ([]byte, error) {
	tree, err := o.Resolve(ctx, req.Subject)
	if err != nil {
		return nil, err
	}

	for _, t := range o.transformers {
		tree, err = t.Transform(ctx, tree)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: transform tree: %w", err)
		}
	}

	renderer, err := o.registry.Resolve(req.Renderer, o.defaultRenderer)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	options := render.RenderOptions{Sanitize: o.cfg.Sanitize}
	options.Theme, err = o.themeConfig(req)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, tree, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	if o.cfg.Debug {
		o.logger.Info("rendered html",
			zap.String("renderer", renderer.Name()),
			zap.String("html", string(output)),
		)
	}
	return output, nil
}

// Render templates the request and appends the HTML to the page. It reports
// whether a mount target was found.
func (o *Orchestrator) Render(ctx context.Context, page *html.Node, req Request) (bool, error) {
	if page == nil {
		return false, errors.New("orchestrator: page is required")
	}
	output, err := o.Template(ctx, req)
	if err != nil {
		return false, err
	}

	elementID := req.ElementID
	if elementID == "" {
		elementID = o.cfg.ElementID
	}
	mounted, err := mount.Mount(page, string(output), elementID)
	if err != nil {
		return false, fmt.Errorf("orchestrator: %w", err)
	}
	if !mounted {
		o.logger.Debug("no mount target found", zap.String("element", elementID))
	}
	return mounted, nil
}

// EventName returns the render event of the configured view.
func (o *Orchestrator) EventName() string {
	return host.EventName(o.cfg.ViewID)
}

// Handler renders the default record into every page it receives.
func (o *Orchestrator) Handler() host.Handler {
	return func(ctx context.Context, page *html.Node) error {
		_, err := o.Render(ctx, page, Request{Subject: DefaultRecord()})
		return err
	}
}

// Bind subscribes Handler to the configured view's render event.
func (o *Orchestrator) Bind(bus *host.Bus) error {
	if bus == nil {
		return errors.New("orchestrator: bus is nil")
	}
	if o.cfg.ViewID == "" {
		return errors.New("orchestrator: view id is required to bind render events")
	}
	return bus.Subscribe(o.EventName(), o.Handler())
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) themeConfig(req Request) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	name, variant := req.ThemeName, req.ThemeVariant
	if name == "" {
		name = o.themeName
	}
	if variant == "" {
		variant = o.themeVariant
	}

	selection, err := o.themeSelector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme %q/%q: %w", name, variant, err)
	}

	fallbacks := render.DefaultPartials()
	for key, value := range o.themeFallbacks {
		fallbacks[key] = value
	}
	return render.ConfigFromSelection(selection, fallbacks), nil
}

func (o *Orchestrator) debugTree(objectID, recordID string, tree model.Tree) {
	encoded, err := json.Marshal(tree)
	if err != nil {
		o.logger.Warn("encode tree for debug output", zap.Error(err))
		return
	}
	o.logger.Info("knack object",
		zap.String("object", objectID),
		zap.String("record", recordID),
		zap.String("tree", string(encoded)),
	)
}

func (o *Orchestrator) applyDefaults() {
	if o.resolver == nil {
		if o.fetcher == nil {
			fetcher, err := client.New(knack.NewClientOptions(
				knack.WithBaseURL(o.cfg.BaseURL),
				knack.WithCredentials(o.cfg.AppID, o.cfg.APIKey),
				knack.WithRequestTimeout(o.cfg.Timeout),
				knack.WithSkipLabels(o.cfg.SkipRecord...),
				knack.WithContractValidation(o.cfg.StrictContract),
			))
			if err != nil {
				o.initialiseErr = fmt.Errorf("orchestrator: default fetcher: %w", err)
				return
			}
			o.fetcher = fetcher
		}
		o.resolver = resolver.New(o.fetcher, ResolverOptions(o.cfg, o.logger)...)
	}

	if o.registry == nil {
		themedRenderer, err := themed.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: themed renderer: %w", err)
			return
		}
		registry, err := render.NewRegistry(markup.New(), themedRenderer)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: renderer registry: %w", err)
			return
		}
		o.registry = registry
	}

	if o.defaultRenderer == "" {
		o.defaultRenderer = o.cfg.Renderer
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = markup.Name
	}
}

// ResolverOptions maps config settings onto resolver options.
func ResolverOptions(cfg config.Config, logger *zap.Logger) []resolver.Option {
	options := []resolver.Option{
		resolver.WithPairing(cfg.TemplateKey, cfg.TemplateValue),
		resolver.WithLogger(logger),
	}
	if cfg.MaxDepth != 0 {
		options = append(options, resolver.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.Concurrency > 0 {
		options = append(options, resolver.WithConcurrency(cfg.Concurrency))
	}
	if cfg.MaxInFlight > 0 {
		options = append(options, resolver.WithMaxInFlight(cfg.MaxInFlight))
	}
	if cfg.Cycle == config.CycleFail {
		options = append(options, resolver.WithCyclePolicy(resolver.CycleFail))
	}
	return options
}
