// Package classify derives spatial classifications over the model
// graph: ATEX Ex-zones propagated through the space adjacency, and
// fire compartments partitioned by rated separating elements. The two
// rule families use independent barrier predicates: only gas-tight
// elements stop Ex-zone propagation, only fire-rated elements bound
// compartments. A fire wall without gas-tightness does not protect
// against an explosive atmosphere.
package classify

import (
	"fmt"
	"sort"

	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/model"
)

// ZoneSource records how a space got its classification.
type ZoneSource string

const (
	SourceDeclared   ZoneSource = "declared"
	SourcePropagated ZoneSource = "propagated"
)

// Rule ids carried on classification results, stable across releases
// so downstream reports can key on them.
const (
	RuleExDeclared    = "ex.declared"
	RuleExPropagation = "ex.propagation"
)

// ZoneAssignment is the classification of one space. Gas and dust
// zones are carried separately; a space can be in Zone 2 and Zone 22
// at once.
type ZoneAssignment struct {
	SpaceID string       `json:"space_id"`
	Gas     model.ExZone `json:"gas_zone"`
	Dust    model.ExZone `json:"dust_zone"`
	// Rule identifies which rule produced the classification:
	// RuleExDeclared when any track was declared by the author,
	// RuleExPropagation when it was derived only. Empty for
	// unclassified spaces.
	Rule       string     `json:"rule,omitempty"`
	GasSource  ZoneSource `json:"gas_source,omitempty"`
	DustSource ZoneSource `json:"dust_source,omitempty"`
	Substances string     `json:"substances,omitempty"`
}

// Hazardous reports whether either track carries a zone.
func (a ZoneAssignment) Hazardous() bool {
	return a.Gas.Hazardous() || a.Dust.Hazardous()
}

// ZoneConflict flags a hazardous space violating an Ex requirement.
type ZoneConflict struct {
	SpaceID string `json:"space_id"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ZoneResult is the Ex classification of a full snapshot.
type ZoneResult struct {
	Assignments map[string]ZoneAssignment `json:"assignments"`
	Conflicts   []ZoneConflict            `json:"conflicts,omitempty"`
	// HazardousCount is the number of spaces with any zone.
	HazardousCount int `json:"hazardous_count"`
}

// Classifier evaluates the classification rules from a rule set.
type Classifier struct {
	rules config.RuleSet
}

// NewClassifier returns a classifier bound to the given rule set.
func NewClassifier(rules config.RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// ClassifyExZones propagates declared hazard markers through the space
// adjacency. Each hop away from a declared zone lowers the zone one
// tier (Zone 1 -> Zone 2 -> none); gas-tight separating elements stop
// propagation entirely. A space reachable from several sources keeps
// the most hazardous value per track, so the result is a pointwise
// maximum and independent of traversal order.
//
// volumes supplies net room volumes for the ventilation check; pass
// nil to skip it.
func (c *Classifier) ClassifyExZones(snap *model.Snapshot, volumes map[string]float64) *ZoneResult {
	result := &ZoneResult{Assignments: make(map[string]ZoneAssignment, len(snap.Spaces))}

	gas := newTrackState()
	dust := newTrackState()

	// Seed both tracks from the declared markers.
	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if sp.Hazard == nil || !sp.Hazard.Zone.Hazardous() {
			continue
		}
		switch sp.Hazard.Zone.Track() {
		case model.TrackGas:
			gas.seed(id, sp.Hazard.Zone)
		case model.TrackDust:
			dust.seed(id, sp.Hazard.Zone)
		}
	}

	gas.propagate(snap)
	dust.propagate(snap)

	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		a := ZoneAssignment{SpaceID: id, Gas: model.ZoneNone, Dust: model.ZoneNone}
		if z, ok := gas.best[id]; ok {
			a.Gas = z
			a.GasSource = gas.source(id)
		}
		if z, ok := dust.best[id]; ok {
			a.Dust = z
			a.DustSource = dust.source(id)
		}
		if sp.Hazard != nil {
			a.Substances = sp.Hazard.Substances
		}
		switch {
		case a.GasSource == SourceDeclared || a.DustSource == SourceDeclared:
			a.Rule = RuleExDeclared
		case a.Hazardous():
			a.Rule = RuleExPropagation
		}
		if a.Hazardous() {
			result.HazardousCount++
		}
		result.Assignments[id] = a

		c.checkVentilation(result, sp, a, volumes)
	}
	return result
}

// checkVentilation flags Zone 0/1 and 20/21 spaces below the minimum
// net volume required for natural ventilation.
func (c *Classifier) checkVentilation(result *ZoneResult, sp *model.Space, a ZoneAssignment, volumes map[string]float64) {
	if volumes == nil {
		return
	}
	worst := a.Gas
	if a.Dust.Severity() < worst.Severity() {
		worst = a.Dust
	}
	if worst.Severity() > 1 {
		return
	}
	vol, ok := volumes[sp.ID]
	if !ok {
		return
	}
	if vol < c.rules.Ex.MinVentilationVolumeM3 {
		result.Conflicts = append(result.Conflicts, ZoneConflict{
			SpaceID: sp.ID,
			Rule:    "ex.ventilation_volume",
			Message: fmt.Sprintf("%s space %s has %.1f m³, minimum for natural ventilation is %.1f m³",
				worst, sp.DisplayName(), vol, c.rules.Ex.MinVentilationVolumeM3),
		})
	}
}

// trackState runs the relaxation for one zone track. best holds the
// most hazardous zone known per space; a space is re-queued only when
// its value improves, which bounds the work and makes cycles harmless.
type trackState struct {
	best    map[string]model.ExZone
	seeds   map[string]bool
	pending []string
}

func newTrackState() *trackState {
	return &trackState{
		best:  make(map[string]model.ExZone),
		seeds: make(map[string]bool),
	}
}

func (t *trackState) seed(spaceID string, zone model.ExZone) {
	t.seeds[spaceID] = true
	if cur, ok := t.best[spaceID]; !ok || zone.Severity() < cur.Severity() {
		t.best[spaceID] = zone
		t.pending = append(t.pending, spaceID)
	}
}

func (t *trackState) source(spaceID string) ZoneSource {
	if !t.best[spaceID].Hazardous() {
		return ""
	}
	if t.seeds[spaceID] {
		return SourceDeclared
	}
	return SourcePropagated
}

func (t *trackState) propagate(snap *model.Snapshot) {
	for len(t.pending) > 0 {
		id := t.pending[0]
		t.pending = t.pending[1:]
		zone := t.best[id]

		next := zone.Decay()
		if !next.Hazardous() {
			continue
		}
		edges := snap.Neighbors(id)
		sort.Slice(edges, func(i, j int) bool {
			return edgeKey(edges[i]) < edgeKey(edges[j])
		})
		for _, edge := range edges {
			if gasTightBarrier(snap, edge) {
				continue
			}
			other := edge.To
			if other == id {
				other = edge.From
			}
			if _, ok := snap.Spaces[other]; !ok {
				continue
			}
			// Declared zones are authoritative: propagation may raise a
			// neighbor, never lower a seed below its declaration.
			if cur, ok := t.best[other]; ok && cur.Severity() <= next.Severity() {
				continue
			}
			t.best[other] = next
			t.pending = append(t.pending, other)
		}
	}
}

// gasTightBarrier reports whether the element on an adjacency edge
// stops Ex propagation. Fire ratings deliberately play no part here.
func gasTightBarrier(snap *model.Snapshot, edge model.AdjacencyEdge) bool {
	if edge.ElementID == "" {
		return false
	}
	el, ok := snap.Elements[edge.ElementID]
	return ok && el.GasTight
}

func edgeKey(e model.AdjacencyEdge) string {
	return e.From + "\x00" + e.To + "\x00" + e.ElementID
}
