package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-knackobject/pkg/model"
)

// Transformer rewrites a resolved tree before it is rendered.
type Transformer interface {
	Transform(ctx context.Context, tree model.Tree) (model.Tree, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, tree model.Tree) (model.Tree, error)

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, tree model.Tree) (model.Tree, error) {
	if fn == nil {
		return tree, nil
	}
	return fn(ctx, tree)
}

// LabelPreset relabels fields by key and hides fields by key, at every depth.
// The YAML shape is:
//
//	labels:
//	  field_1: Full name
//	hide: [field_9]
type LabelPreset struct {
	Labels map[string]string `yaml:"labels"`
	Hide   []string          `yaml:"hide"`
}

// NewLabelPreset parses a YAML preset document.
func NewLabelPreset(data []byte) (*LabelPreset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("label preset: document is empty")
	}
	var preset LabelPreset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&preset); err != nil {
		return nil, fmt.Errorf("label preset: parse document: %w", err)
	}
	return &preset, nil
}

// Transform returns a relabelled copy of tree; the input is not modified.
func (p *LabelPreset) Transform(_ context.Context, tree model.Tree) (model.Tree, error) {
	if p == nil {
		return tree, nil
	}
	hidden := make(map[string]struct{}, len(p.Hide))
	for _, key := range p.Hide {
		hidden[key] = struct{}{}
	}
	return p.apply(tree, hidden), nil
}

func (p *LabelPreset) apply(tree model.Tree, hidden map[string]struct{}) model.Tree {
	if tree == nil {
		return nil
	}
	out := make(model.Tree, 0, len(tree))
	for _, node := range tree {
		switch n := node.(type) {
		case *model.ScalarField:
			if _, skip := hidden[n.Schema.Key]; skip {
				continue
			}
			out = append(out, p.scalar(n))
		case *model.ConnectionField:
			if _, skip := hidden[n.Schema.Key]; skip {
				continue
			}
			clone := *n
			clone.Schema.Label = p.label(n.Schema.Key, n.Schema.Label)
			clone.Connections = make([]model.Connection, len(n.Connections))
			for idx, conn := range n.Connections {
				conn.Records = p.apply(conn.Records, hidden)
				conn.Body = p.body(conn.Body, conn.Records)
				clone.Connections[idx] = conn
			}
			out = append(out, &clone)
		default:
			out = append(out, node)
		}
	}
	return out
}

// body keeps the pairing decided at resolution time while pointing it at the
// relabelled fields.
func (p *LabelPreset) body(body model.Node, records model.Tree) model.Node {
	switch b := body.(type) {
	case *model.LabelValuePair:
		pair := &model.LabelValuePair{}
		for _, node := range records {
			scalar, ok := node.(*model.ScalarField)
			if !ok {
				continue
			}
			if b.Label != nil && scalar.Schema.Key == b.Label.Schema.Key {
				pair.Label = scalar
			}
			if b.Value != nil && scalar.Schema.Key == b.Value.Schema.Key {
				pair.Value = scalar
			}
		}
		if pair.Value == nil {
			return &model.RecordList{Records: records}
		}
		return pair
	case *model.RecordList:
		return &model.RecordList{Records: records}
	default:
		return body
	}
}

func (p *LabelPreset) scalar(field *model.ScalarField) *model.ScalarField {
	clone := *field
	clone.Schema.Label = p.label(field.Schema.Key, field.Schema.Label)
	return &clone
}

func (p *LabelPreset) label(key, fallback string) string {
	if label, ok := p.Labels[key]; ok && label != "" {
		return label
	}
	return fallback
}
