// Package template defines the template engine seam used by template-driven
// renderers. Adapters live in subpackages.
package template
