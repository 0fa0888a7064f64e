// Package model holds the in-memory building model graph: a flat,
// id-indexed arena of storeys, spaces and building elements plus the
// adjacency edges between spaces. All relations are stored as string id
// references resolved through the arena, never as pointers, so the
// naturally cyclic containment structure (storey -> space -> bounding
// wall -> storey) cannot form ownership cycles.
//
// The arena is treated as an immutable snapshot by every analysis
// package; the single sanctioned mutation is the idempotent write-back
// of derived quantities (see quantity.ApplyDerived).
package model

import (
	"sort"
	"strings"
)

// ElementKind is the closed set of building element variants.
type ElementKind string

const (
	KindWall   ElementKind = "wall"
	KindDoor   ElementKind = "door"
	KindWindow ElementKind = "window"
	KindSlab   ElementKind = "slab"
	KindStair  ElementKind = "stair"
	KindRamp   ElementKind = "ramp"
	KindOther  ElementKind = "other"
)

// Project is the root aggregate. It owns its storeys by id; deleting a
// project cascades to every descendant held in the same snapshot.
type Project struct {
	ID     string
	Name   string
	Number string
}

// Storey is one floor level of the project.
type Storey struct {
	ID        string
	ProjectID string
	Name      string
	// Elevation is the height above project origin in meters. Storeys
	// are expected to strictly increase in elevation in vertical order;
	// violations are reported by the checker, not rejected.
	Elevation float64
}

// HeightZone is a sub-area of a space under a sloped ceiling, used by
// the WoFlV height weighting. Spaces with a flat ceiling carry none.
type HeightZone struct {
	AreaM2  float64
	HeightM float64
}

// HazardMarker is a declared explosive-atmosphere classification on a
// space, as imported from the model author.
type HazardMarker struct {
	Zone       ExZone
	Substances string
	// Explicit records that the zone was declared by the author rather
	// than derived, and must never be lowered by propagation.
	Explicit bool
}

// Space is a room. Geometry fields are nilable: missing values are
// reported per entity by the analyses instead of failing a batch.
type Space struct {
	ID       string
	StoreyID string
	Name     string
	Number   string
	LongName string
	Usage    string

	// FootprintM2 is the net floor footprint; GrossFootprintM2 the
	// footprint including construction intrusions, when modeled.
	FootprintM2      *float64
	GrossFootprintM2 *float64
	HeightM          *float64
	VolumeM3         *float64

	// HeightZones subdivides the footprint for sloped ceilings. When
	// present their areas are weighted individually under WoFlV.
	HeightZones []HeightZone

	// BoundaryIDs references the bounding elements (walls, openings).
	// Non-owning: the elements live in the arena.
	BoundaryIDs []string

	Hazard *HazardMarker

	// Properties carries imported attributes that have no typed field.
	Properties map[string]string

	// Derived, written back by ApplyDerived only.
	DerivedVolumeM3 *float64
}

// DisplayName returns number + name when both are present.
func (s *Space) DisplayName() string {
	if s.Number != "" && s.Name != "" {
		return s.Number + " - " + s.Name
	}
	if s.Number != "" {
		return s.Number
	}
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Area returns the primary footprint area, preferring the net value.
func (s *Space) Area() (float64, bool) {
	if s.FootprintM2 != nil {
		return *s.FootprintM2, true
	}
	if s.GrossFootprintM2 != nil {
		return *s.GrossFootprintM2, true
	}
	return 0, false
}

// MaterialLayer is one layer of a layered element build-up.
type MaterialLayer struct {
	Material   string
	ThicknessM float64
	Order      int
}

// Element is a building element. Shared fields live here; the per-kind
// fields (LoadBearing for walls, clear width for doors) are nilable and
// meaningful only for the kinds that carry them.
type Element struct {
	ID       string
	StoreyID string
	Kind     ElementKind
	Name     string
	TypeName string
	Tag      string

	LengthM  *float64
	WidthM   *float64
	HeightM  *float64
	AreaM2   *float64
	VolumeM3 *float64

	PositionX *float64
	PositionY *float64

	Material  string
	Layers    []MaterialLayer
	FireClass *FireRating
	Acoustic  string

	LoadBearing *bool
	External    *bool
	// GasTight marks a barrier that stops Ex-zone propagation. Fire
	// rating does not: the two propagation rules use independent
	// barrier predicates.
	GasTight bool

	// BoundsSpaceIDs lists the spaces this element bounds (one for an
	// outer wall, two for a shared one). Non-owning, weak references.
	BoundsSpaceIDs []string

	// Properties carries imported attributes that have no typed field.
	Properties map[string]string
}

// IsDrywall reports whether the element is a non-load-bearing
// partition (Trockenbau). It matches partition material keywords first
// and falls back to the explicit load-bearing flag on walls.
func (e *Element) IsDrywall() bool {
	if e.Kind != KindWall {
		return false
	}
	for _, layer := range e.Layers {
		if containsDrywallKeyword(layer.Material) {
			return true
		}
	}
	if containsDrywallKeyword(e.Material) || containsDrywallKeyword(e.TypeName) {
		return true
	}
	return e.LoadBearing != nil && !*e.LoadBearing
}

// AdjacencyEdge connects two spaces through the element separating
// them. Edges are undirected; From/To ordering is not significant.
type AdjacencyEdge struct {
	From      string
	To        string
	ElementID string
}

// Snapshot is the immutable arena an analysis run operates on.
type Snapshot struct {
	Project   Project
	Storeys   map[string]*Storey
	Spaces    map[string]*Space
	Elements  map[string]*Element
	Adjacency []AdjacencyEdge
}

// NewSnapshot returns an empty snapshot for the given project.
func NewSnapshot(p Project) *Snapshot {
	return &Snapshot{
		Project:  p,
		Storeys:  make(map[string]*Storey),
		Spaces:   make(map[string]*Space),
		Elements: make(map[string]*Element),
	}
}

// SpaceIDs returns all space ids in lexicographic order. Every
// analysis iterates the arena through these ordered accessors so that
// identical snapshots produce byte-identical output.
func (s *Snapshot) SpaceIDs() []string {
	ids := make([]string, 0, len(s.Spaces))
	for id := range s.Spaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ElementIDs returns all element ids in lexicographic order.
func (s *Snapshot) ElementIDs() []string {
	ids := make([]string, 0, len(s.Elements))
	for id := range s.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StoreyIDs returns storey ids ordered by elevation, then id.
func (s *Snapshot) StoreyIDs() []string {
	ids := make([]string, 0, len(s.Storeys))
	for id := range s.Storeys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.Storeys[ids[i]], s.Storeys[ids[j]]
		if a.Elevation != b.Elevation {
			return a.Elevation < b.Elevation
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Neighbors returns the adjacency edges touching the given space.
func (s *Snapshot) Neighbors(spaceID string) []AdjacencyEdge {
	var out []AdjacencyEdge
	for _, e := range s.Adjacency {
		if e.From == spaceID || e.To == spaceID {
			out = append(out, e)
		}
	}
	return out
}

var drywallKeywords = []string{
	"gips", "gypsum", "drywall", "rigips", "knauf",
	"fermacell", "plasterboard", "trockenbau",
}

func containsDrywallKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range drywallKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
