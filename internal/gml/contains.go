package gml

import "math"

// BBox returns the min/max X and Y over all rings of the geometry.
func (g *Geometry) BBox() (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64
	for _, p := range g.Polygons {
		for _, pt := range p.Exterior {
			minX = math.Min(minX, pt[0])
			minY = math.Min(minY, pt[1])
			maxX = math.Max(maxX, pt[0])
			maxY = math.Max(maxY, pt[1])
		}
	}
	return
}

// Contains reports whether the point lies inside the geometry: within an
// exterior ring and not within any of its holes. Coordinates must be in the
// geometry's own reference system.
func (g *Geometry) Contains(x, y float64) bool {
	minX, minY, maxX, maxY := g.BBox()
	if x < minX || x > maxX || y < minY || y > maxY {
		return false // quick bbox reject
	}
	for _, p := range g.Polygons {
		if !pointInRing(x, y, p.Exterior) {
			continue
		}
		inHole := false
		for _, hole := range p.Interiors {
			if pointInRing(x, y, hole) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// pointInRing implements the ray-casting test. Shapefile-style closed rings
// (first == last) are fine; the duplicate closing point does not affect the
// result.
func pointInRing(x, y float64, ring Ring) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		intersect := ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
		j = i
	}
	return inside
}
