// Package model defines the resolved record tree handed from the resolver to
// renderers. Each node is one variant of a closed set (scalar field,
// connection field, label/value pair, record list) chosen once during
// resolution, so renderers dispatch on Kind instead of probing shapes.
package model
