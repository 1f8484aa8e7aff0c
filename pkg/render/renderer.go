package render

import (
	"context"

	"github.com/goliatone/go-knackobject/pkg/model"
)

// Renderer converts a resolved tree into markup.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, tree model.Tree, options RenderOptions) ([]byte, error)
}
