package quantity

import "github.com/raumwerk/raumwerk/pkg/model"

// VolumeResult is the net volume of one space.
type VolumeResult struct {
	SpaceID  string  `json:"space_id"`
	VolumeM3 float64 `json:"volume_m3"`
	// Derived is set when the volume was estimated from footprint and
	// height instead of a modeled value.
	Derived    bool   `json:"derived,omitempty"`
	Incomplete bool   `json:"incomplete,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ComputeVolumes returns the net volume of every space. Modeled
// volumes are taken as-is; otherwise the volume is derived from the
// footprint, per height zone for sloped ceilings or footprint times
// clear height, substituting the configured default height when none
// is modeled. Spaces without any footprint yield Incomplete entries.
func (c *Calculator) ComputeVolumes(snap *model.Snapshot) map[string]VolumeResult {
	out := make(map[string]VolumeResult, len(snap.Spaces))
	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		if sp.VolumeM3 != nil {
			out[id] = VolumeResult{SpaceID: id, VolumeM3: *sp.VolumeM3}
			continue
		}

		if len(sp.HeightZones) > 0 {
			var v float64
			for _, z := range sp.HeightZones {
				v += z.AreaM2 * z.HeightM
			}
			out[id] = VolumeResult{SpaceID: id, VolumeM3: round2(v), Derived: true}
			continue
		}

		area, ok := sp.Area()
		if !ok {
			out[id] = VolumeResult{
				SpaceID:    id,
				Incomplete: true,
				Reason:     "no footprint area",
			}
			continue
		}
		height := c.rules.DIN277.DefaultHeightM
		reason := ""
		if sp.HeightM != nil && *sp.HeightM > 0 {
			height = *sp.HeightM
		} else {
			reason = "height assumed"
		}
		out[id] = VolumeResult{
			SpaceID:  id,
			VolumeM3: round2(area * height),
			Derived:  true,
			Reason:   reason,
		}
	}
	return out
}

// ApplyDerived writes derived volumes back onto the snapshot. Modeled
// and incomplete entries are untouched; the write-back is idempotent,
// applying the same results twice leaves the snapshot unchanged.
func (c *Calculator) ApplyDerived(snap *model.Snapshot, volumes map[string]VolumeResult) {
	for _, id := range snap.SpaceIDs() {
		v, ok := volumes[id]
		if !ok || !v.Derived || v.Incomplete {
			continue
		}
		vol := v.VolumeM3
		snap.Spaces[id].DerivedVolumeM3 = &vol
	}
}

// ComputeConstructionAreas attributes the plan footprint of bounding
// walls to spaces. A wall shared between two spaces is attributed once,
// to the bounded space with the lexicographically lowest id, so totals
// never double-count a wall. Walls without plan dimensions contribute
// nothing.
func ComputeConstructionAreas(snap *model.Snapshot) map[string]float64 {
	out := make(map[string]float64)
	for _, id := range snap.ElementIDs() {
		el := snap.Elements[id]
		if el.Kind != model.KindWall || el.LengthM == nil || el.WidthM == nil {
			continue
		}
		if len(el.BoundsSpaceIDs) == 0 {
			continue
		}
		target := el.BoundsSpaceIDs[0]
		for _, sid := range el.BoundsSpaceIDs[1:] {
			if sid < target {
				target = sid
			}
		}
		if _, ok := snap.Spaces[target]; !ok {
			continue
		}
		out[target] += *el.LengthM * *el.WidthM
	}
	return out
}
