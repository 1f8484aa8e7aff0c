// Package render defines the renderer contract, the name-keyed renderer
// registry and the options shared by every renderer of resolved record trees.
package render
