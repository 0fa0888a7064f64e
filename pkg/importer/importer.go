// Package importer ingests the JSON building-snapshot exchange format
// produced by the upstream model extraction. Import is lenient: an
// entity with a broken containment reference is rejected and counted,
// everything else is loaded, and semantic problems (missing geometry,
// implausible values) are left to the checker.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/model"
)

// Document is the wire shape of one exchanged building snapshot.
type Document struct {
	Project  ProjectDoc   `json:"project" validate:"required"`
	Storeys  []StoreyDoc  `json:"storeys" validate:"required,min=1,dive"`
	Spaces   []SpaceDoc   `json:"spaces" validate:"dive"`
	Elements []ElementDoc `json:"elements" validate:"dive"`
}

// ProjectDoc identifies the project. A missing id is generated.
type ProjectDoc struct {
	ID     string `json:"id"`
	Name   string `json:"name" validate:"required"`
	Number string `json:"number"`
}

// StoreyDoc is one floor level.
type StoreyDoc struct {
	ID        string  `json:"id"`
	Name      string  `json:"name" validate:"required"`
	Elevation float64 `json:"elevation"`
}

// HeightZoneDoc subdivides a space footprint under a sloped ceiling.
type HeightZoneDoc struct {
	AreaM2  float64 `json:"area_m2" validate:"gt=0"`
	HeightM float64 `json:"height_m" validate:"gt=0"`
}

// SpaceDoc is one room. Geometry fields are optional on the wire.
type SpaceDoc struct {
	ID       string `json:"id"`
	StoreyID string `json:"storey_id" validate:"required"`
	Name     string `json:"name"`
	Number   string `json:"number"`
	LongName string `json:"long_name"`
	Usage    string `json:"usage"`

	FootprintM2      *float64 `json:"footprint_m2"`
	GrossFootprintM2 *float64 `json:"gross_footprint_m2"`
	HeightM          *float64 `json:"height_m"`
	VolumeM3         *float64 `json:"volume_m3"`

	HeightZones []HeightZoneDoc `json:"height_zones" validate:"dive"`

	ExZone     string `json:"ex_zone"`
	Substances string `json:"substances"`

	Properties map[string]string `json:"properties"`
}

// LayerDoc is one material layer of a layered element build-up.
type LayerDoc struct {
	Material   string  `json:"material" validate:"required"`
	ThicknessM float64 `json:"thickness_m"`
	Order      int     `json:"order"`
}

// ElementDoc is one building element.
type ElementDoc struct {
	ID       string `json:"id"`
	StoreyID string `json:"storey_id" validate:"required"`
	Kind     string `json:"kind" validate:"omitempty,oneof=wall door window slab stair ramp other"`
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	Tag      string `json:"tag"`

	LengthM  *float64 `json:"length_m"`
	WidthM   *float64 `json:"width_m"`
	HeightM  *float64 `json:"height_m"`
	AreaM2   *float64 `json:"area_m2"`
	VolumeM3 *float64 `json:"volume_m3"`

	PositionX *float64 `json:"position_x"`
	PositionY *float64 `json:"position_y"`

	Material   string     `json:"material"`
	Layers     []LayerDoc `json:"layers" validate:"dive"`
	FireRating string     `json:"fire_rating"`
	Acoustic   string     `json:"acoustic"`

	LoadBearing *bool `json:"load_bearing"`
	External    *bool `json:"external"`
	GasTight    bool  `json:"gas_tight"`

	BoundsSpaceIDs []string `json:"bounds_space_ids"`

	Properties map[string]string `json:"properties"`
}

// Rejection records one entity dropped during import.
type Rejection struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Result summarizes one import.
type Result struct {
	ProjectID      string      `json:"project_id"`
	Storeys        int         `json:"storeys"`
	Spaces         int         `json:"spaces"`
	Elements       int         `json:"elements"`
	AdjacencyEdges int         `json:"adjacency_edges"`
	GeneratedIDs   int         `json:"generated_ids"`
	Rejections     []Rejection `json:"rejections,omitempty"`
}

// Importer builds model snapshots from exchange documents.
type Importer struct {
	validate *validator.Validate
	logger   logging.Logger
	metrics  *metrics.Registry
}

// New returns an importer. A nil logger or registry falls back to the
// package defaults.
func New(logger logging.Logger, reg *metrics.Registry) *Importer {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Importer{
		validate: validator.New(),
		logger:   logger.With(logging.Component("importer")),
		metrics:  reg,
	}
}

// Import reads one JSON document and builds a snapshot. Structural
// problems (unparsable JSON, failed document validation) abort the
// import; per-entity problems become rejections in the result.
func (im *Importer) Import(r io.Reader) (*model.Snapshot, *Result, error) {
	start := time.Now()

	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		im.metrics.RecordImport("error", time.Since(start))
		return nil, nil, &model.GraphError{
			Op: "Import", Entity: "document", Cause: model.ErrIncompleteData,
			Context: fmt.Sprintf("decode: %v", err),
		}
	}
	if err := im.validate.Struct(&doc); err != nil {
		im.metrics.RecordImport("error", time.Since(start))
		return nil, nil, &model.GraphError{
			Op: "Import", Entity: "document", Cause: model.ErrIncompleteData,
			Context: err.Error(),
		}
	}

	snap, result := im.build(&doc)

	im.metrics.RecordImport("success", time.Since(start))
	im.metrics.ImportEntitiesTotal.WithLabelValues("storey").Add(float64(result.Storeys))
	im.metrics.ImportEntitiesTotal.WithLabelValues("space").Add(float64(result.Spaces))
	im.metrics.ImportEntitiesTotal.WithLabelValues("element").Add(float64(result.Elements))
	for _, rej := range result.Rejections {
		im.metrics.ImportRejectionTotal.WithLabelValues(rej.Reason).Inc()
	}

	im.logger.Info("snapshot imported",
		logging.ProjectID(snap.Project.ID),
		logging.Int("storeys", result.Storeys),
		logging.Int("spaces", result.Spaces),
		logging.Int("elements", result.Elements),
		logging.Int("adjacency_edges", result.AdjacencyEdges),
		logging.Int("rejections", len(result.Rejections)),
		logging.Latency(time.Since(start)),
	)
	return snap, result, nil
}

func (im *Importer) build(doc *Document) (*model.Snapshot, *Result) {
	result := &Result{}
	ensureID := func(id string) string {
		if id != "" {
			return id
		}
		result.GeneratedIDs++
		return uuid.NewString()
	}

	project := model.Project{
		ID:     ensureID(doc.Project.ID),
		Name:   doc.Project.Name,
		Number: doc.Project.Number,
	}
	snap := model.NewSnapshot(project)
	result.ProjectID = project.ID

	for _, sd := range doc.Storeys {
		id := ensureID(sd.ID)
		if _, dup := snap.Storeys[id]; dup {
			result.Rejections = append(result.Rejections, Rejection{
				Entity: "storey", ID: id, Reason: "duplicate_id",
			})
			continue
		}
		snap.Storeys[id] = &model.Storey{
			ID: id, ProjectID: project.ID,
			Name: sd.Name, Elevation: sd.Elevation,
		}
		result.Storeys++
	}

	for _, sd := range doc.Spaces {
		id := ensureID(sd.ID)
		if _, dup := snap.Spaces[id]; dup {
			result.Rejections = append(result.Rejections, Rejection{
				Entity: "space", ID: id, Reason: "duplicate_id",
			})
			continue
		}
		if _, ok := snap.Storeys[sd.StoreyID]; !ok {
			result.Rejections = append(result.Rejections, Rejection{
				Entity: "space", ID: id, Reason: "unknown_storey",
			})
			continue
		}
		sp := &model.Space{
			ID: id, StoreyID: sd.StoreyID,
			Name: sd.Name, Number: sd.Number, LongName: sd.LongName, Usage: sd.Usage,
			FootprintM2:      sd.FootprintM2,
			GrossFootprintM2: sd.GrossFootprintM2,
			HeightM:          sd.HeightM,
			VolumeM3:         sd.VolumeM3,
			Properties:       sd.Properties,
		}
		for _, hz := range sd.HeightZones {
			sp.HeightZones = append(sp.HeightZones, model.HeightZone{
				AreaM2: hz.AreaM2, HeightM: hz.HeightM,
			})
		}
		if sd.ExZone != "" {
			zone, ok := model.ParseExZone(sd.ExZone)
			if !ok {
				result.Rejections = append(result.Rejections, Rejection{
					Entity: "space", ID: id, Reason: "invalid_ex_zone",
				})
			} else if zone.Hazardous() {
				sp.Hazard = &model.HazardMarker{
					Zone: zone, Substances: sd.Substances, Explicit: true,
				}
			}
		}
		snap.Spaces[id] = sp
		result.Spaces++
	}

	for _, ed := range doc.Elements {
		id := ensureID(ed.ID)
		if _, dup := snap.Elements[id]; dup {
			result.Rejections = append(result.Rejections, Rejection{
				Entity: "element", ID: id, Reason: "duplicate_id",
			})
			continue
		}
		if _, ok := snap.Storeys[ed.StoreyID]; !ok {
			result.Rejections = append(result.Rejections, Rejection{
				Entity: "element", ID: id, Reason: "unknown_storey",
			})
			continue
		}
		el := &model.Element{
			ID: id, StoreyID: ed.StoreyID, Kind: elementKind(ed.Kind),
			Name: ed.Name, TypeName: ed.TypeName, Tag: ed.Tag,
			LengthM: ed.LengthM, WidthM: ed.WidthM, HeightM: ed.HeightM,
			AreaM2: ed.AreaM2, VolumeM3: ed.VolumeM3,
			PositionX: ed.PositionX, PositionY: ed.PositionY,
			Material: ed.Material, Acoustic: ed.Acoustic,
			FireClass:   model.ParseFireRating(ed.FireRating),
			LoadBearing: ed.LoadBearing,
			External:    ed.External,
			GasTight:    ed.GasTight,
			Properties:  ed.Properties,
		}
		for _, ld := range ed.Layers {
			el.Layers = append(el.Layers, model.MaterialLayer{
				Material: ld.Material, ThicknessM: ld.ThicknessM, Order: ld.Order,
			})
		}
		// Keep only resolvable space bounds; the rest would poison the
		// adjacency derivation.
		for _, sid := range ed.BoundsSpaceIDs {
			if _, ok := snap.Spaces[sid]; ok {
				el.BoundsSpaceIDs = append(el.BoundsSpaceIDs, sid)
			} else {
				result.Rejections = append(result.Rejections, Rejection{
					Entity: "element", ID: id, Reason: "unknown_bounded_space",
				})
			}
		}
		snap.Elements[id] = el
		result.Elements++
	}

	snap.Adjacency = deriveAdjacency(snap)
	result.AdjacencyEdges = len(snap.Adjacency)
	return snap, result
}

func elementKind(kind string) model.ElementKind {
	switch model.ElementKind(kind) {
	case model.KindWall, model.KindDoor, model.KindWindow,
		model.KindSlab, model.KindStair, model.KindRamp:
		return model.ElementKind(kind)
	default:
		return model.KindOther
	}
}

// deriveAdjacency connects every pair of spaces bounded by the same
// element. Edges are normalized (From < To) and sorted so identical
// documents produce identical snapshots.
func deriveAdjacency(snap *model.Snapshot) []model.AdjacencyEdge {
	seen := make(map[string]bool)
	var edges []model.AdjacencyEdge
	for _, eid := range snap.ElementIDs() {
		bounds := snap.Elements[eid].BoundsSpaceIDs
		for i := 0; i < len(bounds); i++ {
			for j := i + 1; j < len(bounds); j++ {
				from, to := bounds[i], bounds[j]
				if from == to {
					continue
				}
				if to < from {
					from, to = to, from
				}
				key := from + "\x00" + to + "\x00" + eid
				if seen[key] {
					continue
				}
				seen[key] = true
				edges = append(edges, model.AdjacencyEdge{From: from, To: to, ElementID: eid})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.ElementID < b.ElementID
	})
	return edges
}
