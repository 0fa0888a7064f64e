package check

import (
	"fmt"
	"math"

	"github.com/raumwerk/raumwerk/pkg/model"
	"github.com/raumwerk/raumwerk/pkg/quantity"
)

// Run executes all consistency checks and, when the corresponding
// inputs are supplied, the volume plausibility and Ex conflict checks.
// Accessibility has its own entry point, CheckAccessibility.
func (c *Checker) Run(snap *model.Snapshot, in Inputs) *Report {
	var findings []Finding
	findings = append(findings, c.checkReferences(snap)...)
	findings = append(findings, c.checkGeometry(snap)...)
	findings = append(findings, c.checkStoreyOrder(snap)...)
	findings = append(findings, c.checkNaming(snap)...)
	findings = append(findings, c.checkCompleteness(snap)...)
	if in.Volumes != nil {
		findings = append(findings, c.checkVolumePlausibility(snap, in.Volumes)...)
	}
	if in.Zones != nil {
		for _, conflict := range in.Zones.Conflicts {
			findings = append(findings, Finding{
				Severity:  SeverityError,
				Rule:      conflict.Rule,
				SubjectID: conflict.SpaceID,
				Message:   conflict.Message,
			})
		}
	}

	sortFindings(findings)
	return &Report{
		ProjectID: snap.Project.ID,
		Findings:  findings,
		Summary:   summarize(findings),
	}
}

// checkReferences verifies that every id reference resolves within the
// arena. Each dangling reference yields one finding on the referring
// entity.
func (c *Checker) checkReferences(snap *model.Snapshot) []Finding {
	var findings []Finding

	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if sp.StoreyID != "" {
			if _, ok := snap.Storeys[sp.StoreyID]; !ok {
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "graph.space_storey",
					SubjectID: id,
					Message:   fmt.Sprintf("space %s references unknown storey %s", sp.DisplayName(), sp.StoreyID),
				})
			}
		}
		for _, eid := range sp.BoundaryIDs {
			if _, ok := snap.Elements[eid]; !ok {
				findings = append(findings, Finding{
					Severity:  SeverityWarning,
					Rule:      "graph.space_boundary",
					SubjectID: id,
					Message:   fmt.Sprintf("space %s references unknown boundary element %s", sp.DisplayName(), eid),
				})
			}
		}
	}

	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		if el.StoreyID == "" && len(el.BoundsSpaceIDs) == 0 {
			findings = append(findings, Finding{
				Severity:  SeverityError,
				Rule:      "graph.orphan_element",
				SubjectID: id,
				Message:   fmt.Sprintf("%s %s is assigned to no storey and bounds no space", el.Kind, id),
			})
		}
		if el.StoreyID != "" {
			if _, ok := snap.Storeys[el.StoreyID]; !ok {
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "graph.element_storey",
					SubjectID: id,
					Message:   fmt.Sprintf("%s %s references unknown storey %s", el.Kind, id, el.StoreyID),
				})
			}
		}
		for _, sid := range el.BoundsSpaceIDs {
			if _, ok := snap.Spaces[sid]; !ok {
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "graph.element_space",
					SubjectID: id,
					Message:   fmt.Sprintf("%s %s bounds unknown space %s", el.Kind, id, sid),
				})
			}
		}
	}

	for _, edge := range snap.Adjacency {
		for _, sid := range []string{edge.From, edge.To} {
			if _, ok := snap.Spaces[sid]; !ok {
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "graph.adjacency_space",
					SubjectID: sid,
					Message:   fmt.Sprintf("adjacency edge references unknown space %s", sid),
				})
			}
		}
		if edge.ElementID != "" {
			if _, ok := snap.Elements[edge.ElementID]; !ok {
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "graph.adjacency_element",
					SubjectID: edge.ElementID,
					Message:   fmt.Sprintf("adjacency edge references unknown element %s", edge.ElementID),
				})
			}
		}
	}
	return findings
}

func (c *Checker) checkGeometry(snap *model.Snapshot) []Finding {
	var findings []Finding
	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		dims := map[string]*float64{
			"length": el.LengthM,
			"width":  el.WidthM,
			"height": el.HeightM,
		}
		for _, name := range []string{"height", "length", "width"} {
			v := dims[name]
			if v == nil {
				continue
			}
			switch {
			case *v == 0:
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "geometry.zero_dimension",
					SubjectID: id,
					Message:   fmt.Sprintf("%s %s has zero %s", el.Kind, id, name),
				})
			case *v < 0:
				findings = append(findings, Finding{
					Severity:  SeverityError,
					Rule:      "geometry.negative_dimension",
					SubjectID: id,
					Message:   fmt.Sprintf("%s %s has negative %s %.3f m", el.Kind, id, name, *v),
				})
			}
		}
		// Wall widths above 100 suggest millimeter values slipped in.
		if el.Kind == model.KindWall && el.WidthM != nil && *el.WidthM > 100 {
			findings = append(findings, Finding{
				Severity:  SeverityWarning,
				Rule:      "geometry.unit_scale",
				SubjectID: id,
				Message:   fmt.Sprintf("wall %s width %.1f m suggests mixed units (mm/m)", id, *el.WidthM),
			})
		}
	}
	return findings
}

// checkStoreyOrder flags storeys whose elevation does not strictly
// increase in vertical order.
func (c *Checker) checkStoreyOrder(snap *model.Snapshot) []Finding {
	var findings []Finding
	ids := snap.StoreyIDs()
	for i := 1; i < len(ids); i++ {
		prev, cur := snap.Storeys[ids[i-1]], snap.Storeys[ids[i]]
		if cur.Elevation <= prev.Elevation {
			findings = append(findings, Finding{
				Severity:  SeverityWarning,
				Rule:      "storey.elevation_order",
				SubjectID: cur.ID,
				Message: fmt.Sprintf("storey %s at %.2f m does not rise above %s at %.2f m",
					cur.Name, cur.Elevation, prev.Name, prev.Elevation),
			})
		}
	}
	return findings
}

// checkNaming flags spaces without a human-readable name and names
// reused within one storey. Schedules and reports key rooms by name,
// so a blank or ambiguous name makes them unusable on site.
func (c *Checker) checkNaming(snap *model.Snapshot) []Finding {
	var findings []Finding
	byName := make(map[string][]string)
	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if sp.Name == "" {
			findings = append(findings, Finding{
				Severity:  SeverityWarning,
				Rule:      "naming.empty_space_name",
				SubjectID: id,
				Message:   fmt.Sprintf("space %s has no name", sp.DisplayName()),
			})
			continue
		}
		key := sp.StoreyID + "\x00" + sp.Name
		byName[key] = append(byName[key], id)
	}
	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if sp.Name == "" {
			continue
		}
		dups := byName[sp.StoreyID+"\x00"+sp.Name]
		if len(dups) > 1 {
			findings = append(findings, Finding{
				Severity:  SeverityWarning,
				Rule:      "naming.duplicate_space_name",
				SubjectID: id,
				Message: fmt.Sprintf("space name %q is used by %d spaces on the same storey",
					sp.Name, len(dups)),
			})
		}
	}
	return findings
}

func (c *Checker) checkCompleteness(snap *model.Snapshot) []Finding {
	var findings []Finding
	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if _, ok := sp.Area(); !ok {
			findings = append(findings, Finding{
				Severity:  SeverityWarning,
				Rule:      "completeness.space_area",
				SubjectID: id,
				Message:   fmt.Sprintf("space %s has no floor area", sp.DisplayName()),
			})
		}
	}
	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		switch el.Kind {
		case model.KindDoor:
			if el.WidthM == nil {
				findings = append(findings, Finding{
					Severity:  SeverityWarning,
					Rule:      "completeness.door_width",
					SubjectID: id,
					Message:   fmt.Sprintf("door %s has no width", id),
				})
			}
		case model.KindWall:
			if el.FireClass == nil {
				findings = append(findings, Finding{
					Severity:  SeverityInfo,
					Rule:      "completeness.wall_fire_rating",
					SubjectID: id,
					Message:   fmt.Sprintf("wall %s has no fire rating", id),
				})
			}
		case model.KindWindow:
			if el.WidthM == nil || el.HeightM == nil {
				findings = append(findings, Finding{
					Severity:  SeverityWarning,
					Rule:      "completeness.window_dimensions",
					SubjectID: id,
					Message:   fmt.Sprintf("window %s is missing dimensions", id),
				})
			}
		}
	}
	findings = append(findings, checkPositions(snap)...)
	return findings
}

// checkPositions flags elements without plan coordinates, but only in
// snapshots that model placement at all. A model exported without any
// coordinates stays quiet instead of drowning the report.
func checkPositions(snap *model.Snapshot) []Finding {
	positioned := false
	for _, el := range snap.Elements {
		if el.PositionX != nil && el.PositionY != nil {
			positioned = true
			break
		}
	}
	if !positioned {
		return nil
	}
	var findings []Finding
	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		if el.PositionX == nil || el.PositionY == nil {
			findings = append(findings, Finding{
				Severity:  SeverityWarning,
				Rule:      "completeness.element_position",
				SubjectID: id,
				Message:   fmt.Sprintf("%s %s has no plan position", el.Kind, id),
			})
		}
	}
	return findings
}

// checkVolumePlausibility compares modeled volumes against footprint
// times height within the configured tolerance.
func (c *Checker) checkVolumePlausibility(snap *model.Snapshot, volumes map[string]quantity.VolumeResult) []Finding {
	var findings []Finding
	tolerance := c.rules.DIN277.VolumeToleranceRatio
	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if sp.VolumeM3 == nil || sp.HeightM == nil {
			continue
		}
		area, ok := sp.Area()
		if !ok || area == 0 {
			continue
		}
		expected := area * *sp.HeightM
		if expected == 0 {
			continue
		}
		deviation := math.Abs(*sp.VolumeM3-expected) / expected
		if deviation > tolerance {
			findings = append(findings, Finding{
				Severity:      SeverityWarning,
				Rule:          "volume.plausibility",
				SubjectID:     id,
				MeasuredValue: sp.VolumeM3,
				RequiredValue: fptr(expected),
				Unit:          "m³",
				Message: fmt.Sprintf("space %s: modeled volume %.1f m³ deviates %.0f%% from area x height %.1f m³",
					sp.DisplayName(), *sp.VolumeM3, deviation*100, expected),
			})
		}
	}
	return findings
}
