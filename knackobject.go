// Package knackobject renders Knack records, with every connected record
// resolved, into HTML mounted on a host page.
//
// The root package re-exports the common entry points; the pipeline stages
// live under pkg/.
package knackobject

import (
	"context"
	"errors"
	"io/fs"

	"golang.org/x/net/html"

	"github.com/goliatone/go-knackobject/internal/knack/client"
	"github.com/goliatone/go-knackobject/pkg/config"
	"github.com/goliatone/go-knackobject/pkg/host"
	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/orchestrator"
	"github.com/goliatone/go-knackobject/pkg/renderers/themed"
	"github.com/goliatone/go-knackobject/pkg/resolver"
)

// Config aliases config.Config so callers can configure the pipeline from
// the top-level module.
type Config = config.Config

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// FetchError aliases knack.FetchError for callers matching fetch failures.
type FetchError = knack.FetchError

// DefaultConfig returns the documented configuration defaults.
func DefaultConfig() Config {
	return config.Default()
}

// NewClient builds the HTTP fetcher backed by the internal implementation
// while keeping the concrete type hidden from consumers.
func NewClient(options ...knack.ClientOption) (knack.Fetcher, error) {
	c, err := client.New(knack.NewClientOptions(options...))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewResolver constructs a relational resolver over fetcher.
func NewResolver(fetcher knack.Fetcher, options ...resolver.Option) *resolver.Resolver {
	return resolver.New(fetcher, options...)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// EventName returns the host event name fired when viewID renders.
func EventName(viewID string) string {
	return host.EventName(viewID)
}

// EmbeddedTemplates exposes the themed renderer templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return themed.TemplatesFS()
}

// Open validates cfg and builds an orchestrator for it. When cfg.RenderNow is
// set and page is not nil, the default record is rendered into page before
// Open returns; otherwise the caller binds the orchestrator to a bus or
// renders on demand.
func Open(ctx context.Context, cfg Config, page *html.Node, options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	all := append([]orchestrator.Option{orchestrator.WithConfig(cfg)}, options...)
	orch := orchestrator.New(all...)
	if err := orch.Err(); err != nil {
		return nil, err
	}

	if cfg.RenderNow && page != nil {
		if !cfg.HasDefaultRecord() {
			return nil, errors.New("knackobject: renderNow requires objectId and recordId")
		}
		if _, err := orch.Render(ctx, page, Request{Subject: orchestrator.DefaultRecord()}); err != nil {
			return nil, err
		}
	}
	return orch, nil
}
