package export

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"

	"nasextract/internal/gml"
	"nasextract/internal/types"
)

// DBF field names are capped at 10 characters, hence the short forms.
var parcelFields = []shp.Field{
	shp.StringField("ID", 40),
	shp.StringField("KENNZCHN", 40),
	shp.FloatField("FLAECHE", 16, 2),
	shp.StringField("BUCHST_ID", 40),
}

// WriteParcelShapefile writes the parcel table to path (a ".shp" path; the
// sidecar .shx/.dbf files are created alongside). Parcels whose geometry is
// null are skipped: a shapefile record cannot exist without a shape. It
// returns the number of parcels written.
func WriteParcelShapefile(parcels *types.GeoTable, path string) (int, error) {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return 0, fmt.Errorf("create shapefile %s: %w", path, err)
	}
	defer w.Close()

	w.SetFields(parcelFields)

	written := 0
	for i, row := range parcels.Rows {
		g := parcels.Geometry(i)
		if g == nil {
			continue
		}
		poly := shapePolygon(g)
		w.Write(poly)

		cells := []types.Value{
			row["flurstueck_id"],
			row["flurstueckskennzeichen"],
			row["amtliche_flaeche"],
			row["buchungsstelle_id"],
		}
		for field, v := range cells {
			if v == nil {
				continue
			}
			if err := w.WriteAttribute(written, field, v); err != nil {
				return written, fmt.Errorf("write attribute: %w", err)
			}
		}
		written++
	}
	return written, nil
}

// shapePolygon flattens the geometry's rings into one multi-part shapefile
// polygon, exterior rings and holes alike.
func shapePolygon(g *gml.Geometry) *shp.Polygon {
	var parts [][]shp.Point
	for _, p := range g.Polygons {
		parts = append(parts, ringPoints(p.Exterior))
		for _, hole := range p.Interiors {
			parts = append(parts, ringPoints(hole))
		}
	}
	pl := shp.NewPolyLine(parts)
	poly := shp.Polygon(*pl)
	return &poly
}

func ringPoints(r gml.Ring) []shp.Point {
	pts := make([]shp.Point, len(r))
	for i, c := range r {
		pts[i] = shp.Point{X: c[0], Y: c[1]}
	}
	return pts
}
