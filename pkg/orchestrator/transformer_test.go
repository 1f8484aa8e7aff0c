package orchestrator

import (
	"context"
	"testing"

	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/model"
)

func scalarField(key, label, html string) *model.ScalarField {
	return &model.ScalarField{Schema: knack.FieldSchema{Key: key, Label: label, Type: knack.FieldTypeScalar}, HTML: html}
}

func TestLabelPreset_RelabelsAtEveryDepthWithoutMutatingInput(t *testing.T) {
	title := scalarField("field_20", "Title", "Size")
	details := scalarField("field_21", "Details", "Large")
	note := scalarField("field_22", "Note", "n")
	records := model.Tree{title, details}
	tree := model.Tree{
		scalarField("field_1", "Name", "Jo"),
		&model.ConnectionField{
			Schema: knack.FieldSchema{Key: "field_2", Label: "Facts", Type: knack.FieldTypeConnection},
			Connections: []model.Connection{
				{ID: "f1", Records: records, Body: &model.LabelValuePair{Label: title, Value: details}},
				{ID: "f2", Records: model.Tree{note}, Body: &model.RecordList{Records: model.Tree{note}}},
			},
		},
	}

	preset, err := NewLabelPreset([]byte("labels:\n  field_1: Full name\n  field_2: Key facts\n  field_21: Body\nhide: [field_22]\n"))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	out, err := preset.Transform(context.Background(), tree)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if out[0].(*model.ScalarField).Schema.Label != "Full name" {
		t.Fatalf("top-level label not replaced")
	}
	conn := out[1].(*model.ConnectionField)
	if conn.Schema.Label != "Key facts" {
		t.Fatalf("connection label not replaced")
	}
	pair, ok := conn.Connections[0].Body.(*model.LabelValuePair)
	if !ok || pair.Value.Schema.Label != "Body" || pair.Label.Schema.Label != "Title" {
		t.Fatalf("pair not rebuilt over relabelled fields: %+v", conn.Connections[0].Body)
	}
	list, ok := conn.Connections[1].Body.(*model.RecordList)
	if !ok || len(list.Records) != 0 {
		t.Fatalf("hidden field still listed: %+v", conn.Connections[1].Body)
	}

	if details.Schema.Label != "Details" || tree[0].(*model.ScalarField).Schema.Label != "Name" {
		t.Fatalf("input tree was modified")
	}
}

func TestLabelPreset_HidingPairValueFallsBackToList(t *testing.T) {
	title := scalarField("field_20", "Title", "Size")
	details := scalarField("field_21", "Details", "Large")
	tree := model.Tree{&model.ConnectionField{
		Schema:      knack.FieldSchema{Key: "field_2", Label: "Facts", Type: knack.FieldTypeConnection},
		Connections: []model.Connection{{ID: "f1", Records: model.Tree{title, details}, Body: &model.LabelValuePair{Label: title, Value: details}}},
	}}

	preset := &LabelPreset{Hide: []string{"field_21"}}
	out, err := preset.Transform(context.Background(), tree)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	body := out[0].(*model.ConnectionField).Connections[0].Body
	if list, ok := body.(*model.RecordList); !ok || len(list.Records) != 1 {
		t.Fatalf("expected record list with the remaining field, got %#v", body)
	}
}

func TestNewLabelPreset_Errors(t *testing.T) {
	if _, err := NewLabelPreset(nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := NewLabelPreset([]byte("relabel: {}\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
