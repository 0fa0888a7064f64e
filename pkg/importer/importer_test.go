package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/model"
)

func newImporter() *Importer {
	return New(logging.NewNopLogger(), metrics.NewRegistry())
}

const validDoc = `{
	"project": {"id": "p1", "name": "Werk Nord", "number": "2024-017"},
	"storeys": [
		{"id": "st1", "name": "EG", "elevation": 0},
		{"id": "st2", "name": "OG", "elevation": 3.2}
	],
	"spaces": [
		{"id": "s1", "storey_id": "st1", "name": "Lager", "usage": "lager",
		 "footprint_m2": 24, "height_m": 3.0,
		 "ex_zone": "Zone 1", "substances": "Aceton"},
		{"id": "s2", "storey_id": "st1", "name": "Flur",
		 "footprint_m2": 12, "height_m": 3.0},
		{"id": "s3", "storey_id": "st2", "name": "Büro",
		 "footprint_m2": 18, "height_m": 2.8,
		 "height_zones": [{"area_m2": 10, "height_m": 2.8}, {"area_m2": 8, "height_m": 1.6}]}
	],
	"elements": [
		{"id": "w1", "storey_id": "st1", "kind": "wall", "name": "Wand",
		 "length_m": 4, "width_m": 0.24, "height_m": 3.0,
		 "fire_rating": "F90", "load_bearing": true,
		 "bounds_space_ids": ["s1", "s2"]},
		{"id": "d1", "storey_id": "st1", "kind": "door", "name": "Tür",
		 "width_m": 0.95, "height_m": 2.13,
		 "bounds_space_ids": ["s2"]},
		{"id": "x1", "storey_id": "st1", "kind": "", "name": "Einbauteil",
		 "properties": {"hersteller": "ACME"}}
	]
}`

func TestImportValidDocument(t *testing.T) {
	snap, result, err := newImporter().Import(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if snap.Project.ID != "p1" || snap.Project.Name != "Werk Nord" {
		t.Errorf("project = %+v", snap.Project)
	}
	if result.Storeys != 2 || result.Spaces != 3 || result.Elements != 3 {
		t.Errorf("counts = %+v", result)
	}
	if len(result.Rejections) != 0 {
		t.Errorf("unexpected rejections: %+v", result.Rejections)
	}

	s1 := snap.Spaces["s1"]
	if s1.Hazard == nil || s1.Hazard.Zone != model.Zone1 || !s1.Hazard.Explicit {
		t.Errorf("s1 hazard = %+v", s1.Hazard)
	}
	if s1.Hazard.Substances != "Aceton" {
		t.Errorf("s1 substances = %q", s1.Hazard.Substances)
	}

	if len(snap.Spaces["s3"].HeightZones) != 2 {
		t.Errorf("s3 height zones = %d, want 2", len(snap.Spaces["s3"].HeightZones))
	}

	w1 := snap.Elements["w1"]
	if w1.FireClass == nil || w1.FireClass.Minutes != 90 {
		t.Errorf("w1 fire class = %v", w1.FireClass)
	}
	if snap.Elements["x1"].Kind != model.KindOther {
		t.Errorf("empty kind should map to other, got %v", snap.Elements["x1"].Kind)
	}
	if snap.Elements["x1"].Properties["hersteller"] != "ACME" {
		t.Error("element properties not carried")
	}
}

func TestImportDerivesAdjacency(t *testing.T) {
	snap, result, err := newImporter().Import(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.AdjacencyEdges != 1 {
		t.Fatalf("adjacency edges = %d, want 1", result.AdjacencyEdges)
	}
	edge := snap.Adjacency[0]
	if edge.From != "s1" || edge.To != "s2" || edge.ElementID != "w1" {
		t.Errorf("edge = %+v", edge)
	}
}

func TestImportGeneratesMissingIDs(t *testing.T) {
	doc := `{
		"project": {"name": "Unbenannt"},
		"storeys": [{"name": "EG"}],
		"spaces": [{"storey_id": "missing", "name": "Raum"}]
	}`
	snap, result, err := newImporter().Import(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if snap.Project.ID == "" {
		t.Error("project id not generated")
	}
	// project + storey ids generated; the space is rejected before id
	// bookkeeping matters.
	if result.GeneratedIDs < 2 {
		t.Errorf("GeneratedIDs = %d, want >= 2", result.GeneratedIDs)
	}
	if len(result.Rejections) != 1 || result.Rejections[0].Reason != "unknown_storey" {
		t.Errorf("rejections = %+v", result.Rejections)
	}
}

func TestImportRejectsDuplicatesAndDanglingRefs(t *testing.T) {
	doc := `{
		"project": {"id": "p1", "name": "Werk"},
		"storeys": [{"id": "st1", "name": "EG"}],
		"spaces": [
			{"id": "s1", "storey_id": "st1", "name": "A"},
			{"id": "s1", "storey_id": "st1", "name": "A kopie"}
		],
		"elements": [
			{"id": "w1", "storey_id": "st1", "kind": "wall",
			 "bounds_space_ids": ["s1", "ghost"]}
		]
	}`
	snap, result, err := newImporter().Import(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.Spaces != 1 {
		t.Errorf("spaces = %d, want 1", result.Spaces)
	}
	reasons := make(map[string]int)
	for _, r := range result.Rejections {
		reasons[r.Reason]++
	}
	if reasons["duplicate_id"] != 1 || reasons["unknown_bounded_space"] != 1 {
		t.Errorf("rejection reasons = %v", reasons)
	}
	if got := snap.Elements["w1"].BoundsSpaceIDs; len(got) != 1 || got[0] != "s1" {
		t.Errorf("w1 bounds = %v", got)
	}
}

func TestImportInvalidJSON(t *testing.T) {
	_, _, err := newImporter().Import(strings.NewReader("{not json"))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !errors.Is(err, model.ErrIncompleteData) {
		t.Errorf("err = %v, want ErrIncompleteData", err)
	}
}

func TestImportValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing project name", `{"project": {}, "storeys": [{"name": "EG"}]}`},
		{"no storeys", `{"project": {"name": "Werk"}, "storeys": []}`},
		{"invalid kind", `{
			"project": {"name": "Werk"},
			"storeys": [{"id": "st1", "name": "EG"}],
			"elements": [{"storey_id": "st1", "kind": "roofzzz"}]
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newImporter().Import(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, model.ErrIncompleteData) {
				t.Errorf("err = %v, want ErrIncompleteData", err)
			}
		})
	}
}

func TestImportInvalidExZoneRejectsMarkerOnly(t *testing.T) {
	doc := `{
		"project": {"id": "p1", "name": "Werk"},
		"storeys": [{"id": "st1", "name": "EG"}],
		"spaces": [{"id": "s1", "storey_id": "st1", "name": "Raum", "ex_zone": "Zone 99"}]
	}`
	snap, result, err := newImporter().Import(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if snap.Spaces["s1"] == nil {
		t.Fatal("space should be kept despite invalid zone marker")
	}
	if snap.Spaces["s1"].Hazard != nil {
		t.Error("invalid zone must not produce a hazard marker")
	}
	if len(result.Rejections) != 1 || result.Rejections[0].Reason != "invalid_ex_zone" {
		t.Errorf("rejections = %+v", result.Rejections)
	}
}
