// Package gml parses GML polygon boundaries from NAS parcel elements into a
// small in-memory geometry model with WKT output.
package gml

import (
	"fmt"
	"strconv"
	"strings"

	"nasextract/internal/nasxml"
)

// Namespace is the GML 3.2 namespace URI used throughout NAS documents.
const Namespace = "http://www.opengis.net/gml/3.2"

// Ring is a closed sequence of [X, Y] points (first == last).
type Ring [][2]float64

// Polygon is one exterior ring plus any number of interior (hole) rings.
type Polygon struct {
	Exterior  Ring
	Interiors []Ring
}

// Geometry is a polygon or multipolygon together with the coordinate
// reference system name the source element declared. The coordinates are
// passed through untransformed.
type Geometry struct {
	Polygons []Polygon
	SRSName  string
}

// WKT renders the geometry as POLYGON or MULTIPOLYGON well-known text.
func (g *Geometry) WKT() string {
	var sb strings.Builder
	if len(g.Polygons) == 1 {
		sb.WriteString("POLYGON ")
		writePolygon(&sb, g.Polygons[0])
		return sb.String()
	}
	sb.WriteString("MULTIPOLYGON (")
	for i, p := range g.Polygons {
		if i > 0 {
			sb.WriteString(", ")
		}
		writePolygon(&sb, p)
	}
	sb.WriteString(")")
	return sb.String()
}

func writePolygon(sb *strings.Builder, p Polygon) {
	sb.WriteString("(")
	writeRing(sb, p.Exterior)
	for _, r := range p.Interiors {
		sb.WriteString(", ")
		writeRing(sb, r)
	}
	sb.WriteString(")")
}

func writeRing(sb *strings.Builder, r Ring) {
	sb.WriteString("(")
	for i, pt := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(pt[0], 'f', -1, 64))
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatFloat(pt[1], 'f', -1, 64))
	}
	sb.WriteString(")")
}

// ParseGeometry converts the first GML geometry child of el (a gml:Polygon,
// gml:Surface with polygon patches, or gml:MultiSurface) into a Geometry.
// It returns an error when no geometry child exists or when any ring is
// syntactically invalid; callers treat that as a null geometry for the row.
func ParseGeometry(el *nasxml.Element) (*Geometry, error) {
	for _, c := range el.Children {
		if c.Space != Namespace {
			continue
		}
		switch c.Local {
		case "Polygon":
			poly, err := parsePolygonBody(c)
			if err != nil {
				return nil, err
			}
			return &Geometry{Polygons: []Polygon{poly}, SRSName: srsName(c)}, nil
		case "Surface":
			polys, err := parseSurface(c)
			if err != nil {
				return nil, err
			}
			return &Geometry{Polygons: polys, SRSName: srsName(c)}, nil
		case "MultiSurface":
			var polys []Polygon
			for _, member := range c.ChildrenNamed(Namespace, "surfaceMember") {
				g, err := ParseGeometry(member)
				if err != nil {
					return nil, err
				}
				polys = append(polys, g.Polygons...)
			}
			if len(polys) == 0 {
				return nil, fmt.Errorf("gml:MultiSurface without surface members")
			}
			return &Geometry{Polygons: polys, SRSName: srsName(c)}, nil
		}
	}
	return nil, fmt.Errorf("no gml geometry element found")
}

func srsName(el *nasxml.Element) string {
	return el.Attr("", "srsName")
}

// parseSurface handles gml:Surface/gml:patches/gml:PolygonPatch, the form
// NAS providers typically emit for parcel boundaries.
func parseSurface(surface *nasxml.Element) ([]Polygon, error) {
	patches := surface.Find(Namespace, "patches")
	if patches == nil {
		return nil, fmt.Errorf("gml:Surface without gml:patches")
	}
	var polys []Polygon
	for _, patch := range patches.ChildrenNamed(Namespace, "PolygonPatch") {
		poly, err := parsePolygonBody(patch)
		if err != nil {
			return nil, err
		}
		polys = append(polys, poly)
	}
	if len(polys) == 0 {
		return nil, fmt.Errorf("gml:patches without polygon patches")
	}
	return polys, nil
}

// parsePolygonBody reads gml:exterior / gml:interior rings from a
// gml:Polygon or gml:PolygonPatch element.
func parsePolygonBody(el *nasxml.Element) (Polygon, error) {
	var poly Polygon
	ext := el.Find(Namespace, "exterior")
	if ext == nil {
		return poly, fmt.Errorf("gml:%s without gml:exterior", el.Local)
	}
	ring, err := parseRing(ext)
	if err != nil {
		return poly, err
	}
	poly.Exterior = ring

	for _, in := range el.ChildrenNamed(Namespace, "interior") {
		ring, err := parseRing(in)
		if err != nil {
			return poly, err
		}
		poly.Interiors = append(poly.Interiors, ring)
	}
	return poly, nil
}

// parseRing reads the gml:LinearRing inside an exterior/interior wrapper.
// Coordinates come from one gml:posList or a sequence of gml:pos elements.
func parseRing(wrapper *nasxml.Element) (Ring, error) {
	lr := wrapper.Find(Namespace, "LinearRing")
	if lr == nil {
		return nil, fmt.Errorf("gml:%s without gml:LinearRing", wrapper.Local)
	}

	dim := 2
	if d := lr.Attr("", "srsDimension"); d != "" {
		v, err := strconv.Atoi(d)
		if err != nil || v < 2 {
			return nil, fmt.Errorf("invalid srsDimension %q", d)
		}
		dim = v
	}

	var coords []float64
	if posList, ok := lr.FindText(Namespace, "posList"); ok {
		if d := lr.Find(Namespace, "posList").Attr("", "srsDimension"); d != "" {
			v, err := strconv.Atoi(d)
			if err != nil || v < 2 {
				return nil, fmt.Errorf("invalid srsDimension %q", d)
			}
			dim = v
		}
		var err error
		coords, err = parseCoords(posList)
		if err != nil {
			return nil, err
		}
	} else {
		for _, pos := range lr.ChildrenNamed(Namespace, "pos") {
			vals, err := parseCoords(pos.Text)
			if err != nil {
				return nil, err
			}
			if len(vals) < dim {
				return nil, fmt.Errorf("gml:pos with %d coordinate(s), need %d", len(vals), dim)
			}
			coords = append(coords, vals[:dim]...)
		}
	}

	if len(coords) == 0 {
		return nil, fmt.Errorf("empty linear ring")
	}
	if len(coords)%dim != 0 {
		return nil, fmt.Errorf("coordinate count %d not divisible by dimension %d", len(coords), dim)
	}

	ring := make(Ring, 0, len(coords)/dim)
	for i := 0; i+dim <= len(coords); i += dim {
		ring = append(ring, [2]float64{coords[i], coords[i+1]})
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("linear ring with %d point(s), need at least 4", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		return nil, fmt.Errorf("linear ring not closed")
	}
	return ring, nil
}

func parseCoords(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}
