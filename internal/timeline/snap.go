package timeline

import "slices"

// SnappingPoints returns, sorted and without duplicates, every move delta
// that lines the start or end of a selected clip up with a snap target.
// Targets are the origin and, for each non-selected clip, its start, its end
// and the length of the gap leading into it.
func (tl *Timeline) SnappingPoints() []int {
	placements := tl.Placements()

	targets := []int{0}
	var sources []int
	for _, p := range placements {
		if p.Clip.Selected {
			sources = append(sources, p.Start, p.End())
			continue
		}
		targets = append(targets, p.Start, p.End(), p.Clip.Offset)
	}

	var points []int
	for _, src := range sources {
		for _, dst := range targets {
			points = append(points, dst-src)
		}
	}
	slices.Sort(points)
	return slices.Compact(points)
}

// SnapOffset returns the point nearest to raw when it lies within threshold
// frames, and raw otherwise. On a tie the earlier point wins.
func SnapOffset(raw int, points []int, threshold int) int {
	best, bestDist := raw, threshold+1
	for _, p := range points {
		d := p - raw
		if d < 0 {
			d = -d
		}
		if d <= threshold && d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}
