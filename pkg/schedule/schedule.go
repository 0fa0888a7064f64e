// Package schedule assembles construction schedules (Raumbuch, door,
// window, wall and drywall lists) from a model snapshot. Assembly is a
// pure read: running the same schedule twice over the same snapshot
// yields identical rows in identical order.
package schedule

import (
	"sort"

	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/quantity"
)

// Kind selects which schedule to assemble.
type Kind string

const (
	KindRooms   Kind = "rooms"
	KindDoors   Kind = "doors"
	KindWindows Kind = "windows"
	KindWalls   Kind = "walls"
	KindDrywall Kind = "drywall"
)

// Kinds lists every schedule kind in assembly order.
var Kinds = []Kind{KindRooms, KindDoors, KindWindows, KindWalls, KindDrywall}

// Row is one line of a schedule. Numeric fields are nil when the
// underlying entity does not carry them.
type Row struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	TypeName   string   `json:"type_name,omitempty"`
	StoreyName string   `json:"storey_name,omitempty"`
	Tag        string   `json:"tag,omitempty"`
	WidthM     *float64 `json:"width_m,omitempty"`
	HeightM    *float64 `json:"height_m,omitempty"`
	LengthM    *float64 `json:"length_m,omitempty"`
	AreaM2     *float64 `json:"area_m2,omitempty"`
	VolumeM3   *float64 `json:"volume_m3,omitempty"`

	Properties map[string]string `json:"properties,omitempty"`

	storeyElevation float64
}

// Schedule is an assembled list with its totals.
type Schedule struct {
	Kind          Kind    `json:"kind"`
	ProjectID     string  `json:"project_id"`
	Rows          []Row   `json:"rows"`
	TotalCount    int     `json:"total_count"`
	TotalAreaM2   float64 `json:"total_area_m2,omitempty"`
	TotalLengthM  float64 `json:"total_length_m,omitempty"`
	TotalVolumeM3 float64 `json:"total_volume_m3,omitempty"`
}

// Options filter a schedule run.
type Options struct {
	// StoreyID restricts rows to one storey when set.
	StoreyID string
	// LoadBearingOnly and ExternalOnly apply to wall schedules.
	LoadBearingOnly bool
	ExternalOnly    bool
}

// DefaultOptions returns the unfiltered options.
func DefaultOptions() Options { return Options{} }

// Builder assembles schedules from snapshots.
type Builder struct {
	calc *quantity.Calculator
}

// NewBuilder returns a builder using the calculator for room volumes.
func NewBuilder(calc *quantity.Calculator) *Builder {
	return &Builder{calc: calc}
}

// Build assembles the requested schedule. Unknown kinds return
// ErrRuleVersionMismatch.
func (b *Builder) Build(snap *model.Snapshot, kind Kind, opts Options) (*Schedule, error) {
	switch kind {
	case KindRooms:
		return b.buildRooms(snap, opts), nil
	case KindDoors:
		return b.buildElements(snap, KindDoors, opts, model.KindDoor), nil
	case KindWindows:
		return b.buildElements(snap, KindWindows, opts, model.KindWindow), nil
	case KindWalls:
		return b.buildElements(snap, KindWalls, opts, model.KindWall), nil
	case KindDrywall:
		return b.buildElements(snap, KindDrywall, opts, model.KindWall), nil
	default:
		return nil, model.RuleVersionError("BuildSchedule", string(kind))
	}
}

func (b *Builder) buildRooms(snap *model.Snapshot, opts Options) *Schedule {
	sched := &Schedule{Kind: KindRooms, ProjectID: snap.Project.ID}
	volumes := b.calc.ComputeVolumes(snap)

	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if opts.StoreyID != "" && sp.StoreyID != opts.StoreyID {
			continue
		}
		row := Row{
			ID:   sp.ID,
			Name: sp.Name,
			Tag:  sp.Number,
			Properties: map[string]string{
				"usage": sp.Usage,
			},
		}
		if st, ok := snap.Storeys[sp.StoreyID]; ok {
			row.StoreyName = st.Name
			row.storeyElevation = st.Elevation
		}
		if area, ok := sp.Area(); ok {
			a := area
			row.AreaM2 = &a
			sched.TotalAreaM2 += a
		}
		if v, ok := volumes[id]; ok && !v.Incomplete {
			vol := v.VolumeM3
			row.VolumeM3 = &vol
			sched.TotalVolumeM3 += vol
		}
		sched.Rows = append(sched.Rows, row)
	}
	finishSchedule(sched)
	return sched
}

func (b *Builder) buildElements(snap *model.Snapshot, kind Kind, opts Options, elemKind model.ElementKind) *Schedule {
	sched := &Schedule{Kind: kind, ProjectID: snap.Project.ID}

	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		if el.Kind != elemKind {
			continue
		}
		if opts.StoreyID != "" && el.StoreyID != opts.StoreyID {
			continue
		}
		if kind == KindDrywall && !el.IsDrywall() {
			continue
		}
		if kind == KindWalls {
			if opts.LoadBearingOnly && (el.LoadBearing == nil || !*el.LoadBearing) {
				continue
			}
			if opts.ExternalOnly && (el.External == nil || !*el.External) {
				continue
			}
		}

		row := Row{
			ID:       el.ID,
			Name:     el.Name,
			TypeName: el.TypeName,
			Tag:      el.Tag,
			WidthM:   el.WidthM,
			HeightM:  el.HeightM,
			LengthM:  el.LengthM,
			AreaM2:   el.AreaM2,
		}
		if st, ok := snap.Storeys[el.StoreyID]; ok {
			row.StoreyName = st.Name
			row.storeyElevation = st.Elevation
		}
		row.Properties = elementProperties(el)

		if el.AreaM2 != nil {
			sched.TotalAreaM2 += *el.AreaM2
		}
		if el.LengthM != nil {
			sched.TotalLengthM += *el.LengthM
		}
		sched.Rows = append(sched.Rows, row)
	}
	finishSchedule(sched)
	return sched
}

func elementProperties(el *model.Element) map[string]string {
	props := make(map[string]string)
	if el.Material != "" {
		props["material"] = el.Material
	}
	if el.FireClass != nil {
		props["fire_rating"] = el.FireClass.String()
	}
	if el.Acoustic != "" {
		props["acoustic"] = el.Acoustic
	}
	if el.LoadBearing != nil {
		props["load_bearing"] = yesNo(*el.LoadBearing)
	}
	if el.External != nil {
		props["external"] = yesNo(*el.External)
	}
	if el.Kind == model.KindWall {
		props["drywall"] = yesNo(el.IsDrywall())
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// finishSchedule orders rows by storey elevation, then display label,
// then id, and sets the count.
func finishSchedule(s *Schedule) {
	sort.SliceStable(s.Rows, func(i, j int) bool {
		a, b := s.Rows[i], s.Rows[j]
		if a.storeyElevation != b.storeyElevation {
			return a.storeyElevation < b.storeyElevation
		}
		if al, bl := a.label(), b.label(); al != bl {
			return al < bl
		}
		return a.ID < b.ID
	})
	s.TotalCount = len(s.Rows)
}

func (r Row) label() string {
	if r.Tag != "" {
		return r.Tag
	}
	return r.Name
}
