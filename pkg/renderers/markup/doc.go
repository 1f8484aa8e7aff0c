// Package markup renders resolved record trees as the fixed kn-label/kn-value
// HTML fragments Knack pages style out of the box.
package markup
