package classify

import (
	"fmt"
	"sort"

	"github.com/raumwerk/raumwerk/pkg/model"
)

// Compartment is one fire compartment: a maximal set of spaces not
// separated by rated construction.
type Compartment struct {
	ID       string   `json:"id"`
	SpaceIDs []string `json:"space_ids"`
	// BoundaryElementIDs lists the rated elements enclosing the
	// compartment against its neighbors.
	BoundaryElementIDs []string `json:"boundary_element_ids,omitempty"`
}

// CompartmentResult is the fire compartmentation of a snapshot.
type CompartmentResult struct {
	Compartments []Compartment `json:"compartments"`
	// SpaceCompartment maps every space to its compartment id.
	SpaceCompartment map[string]string `json:"space_compartment"`
	// SeparationMinutes echoes the rating threshold the partition was
	// computed under; Rule is its stable id, e.g. "fire.separation_f90".
	SeparationMinutes int    `json:"separation_minutes"`
	Rule              string `json:"rule"`
}

// ClassifyFireCompartments partitions the spaces into compartments.
// Two adjacent spaces share a compartment unless the separating
// element carries a fire rating of at least the configured separation
// duration. Edges without a resolvable element, and unrated elements,
// do not separate. Every space belongs to exactly one compartment;
// isolated spaces form their own.
//
// Compartment ids are assigned in order of each compartment's lowest
// space id, so identical snapshots always name compartments alike.
func (c *Classifier) ClassifyFireCompartments(snap *model.Snapshot) *CompartmentResult {
	required := c.rules.Fire.SeparationMinutes
	uf := newUnionFind(snap.SpaceIDs())

	boundaries := make(map[string][]string)
	for _, edge := range snap.Adjacency {
		if _, ok := snap.Spaces[edge.From]; !ok {
			continue
		}
		if _, ok := snap.Spaces[edge.To]; !ok {
			continue
		}
		if separates(snap, edge, required) {
			boundaries[edge.From] = append(boundaries[edge.From], edge.ElementID)
			boundaries[edge.To] = append(boundaries[edge.To], edge.ElementID)
			continue
		}
		uf.union(edge.From, edge.To)
	}

	// Collect members per component, keyed by the lowest member id.
	// SpaceIDs is sorted, so members arrive in order and the first
	// member of each component is its lowest id.
	members := make(map[string][]string)
	for _, id := range snap.SpaceIDs() {
		root := uf.find(id)
		members[root] = append(members[root], id)
	}
	byLowest := make(map[string][]string, len(members))
	keys := make([]string, 0, len(members))
	for _, ids := range members {
		byLowest[ids[0]] = ids
		keys = append(keys, ids[0])
	}
	sort.Strings(keys)

	result := &CompartmentResult{
		SpaceCompartment:  make(map[string]string, len(snap.Spaces)),
		SeparationMinutes: required,
		Rule:              fmt.Sprintf("fire.separation_f%d", required),
	}
	for i, lowest := range keys {
		comp := Compartment{
			ID:       fmt.Sprintf("BA-%02d", i+1),
			SpaceIDs: byLowest[lowest],
		}
		elemSet := make(map[string]bool)
		for _, sid := range comp.SpaceIDs {
			result.SpaceCompartment[sid] = comp.ID
			for _, eid := range boundaries[sid] {
				if eid != "" && !elemSet[eid] {
					elemSet[eid] = true
					comp.BoundaryElementIDs = append(comp.BoundaryElementIDs, eid)
				}
			}
		}
		sort.Strings(comp.BoundaryElementIDs)
		result.Compartments = append(result.Compartments, comp)
	}
	return result
}

// separates reports whether the edge's element is a compartment
// boundary under the required rating.
func separates(snap *model.Snapshot, edge model.AdjacencyEdge, requiredMinutes int) bool {
	if edge.ElementID == "" {
		return false
	}
	el, ok := snap.Elements[edge.ElementID]
	if !ok {
		return false
	}
	return el.FireClass.Meets(requiredMinutes)
}

// unionFind is a plain disjoint-set with path compression.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (u *unionFind) find(id string) string {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		u.parent[id], id = root, u.parent[id]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Keep the lexicographically lower root so component keys are
	// stable regardless of edge order.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
