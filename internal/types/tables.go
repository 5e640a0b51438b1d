// Package types holds the tabular result model produced by an extraction.
package types

import "nasextract/internal/gml"

// Value is one cell of a table: string, float64, time.Time,
// *gml.Geometry, or nil for null.
type Value = any

// Row maps column name to cell value. Every row of a table carries the full
// column set of that table; absent source attributes are nil values.
type Row map[string]Value

// Table is an ordered sequence of rows with a fixed column set. Tables are
// built once during extraction and not mutated afterwards.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// GeoColumn is the column name under which parcel rows carry their boundary
// geometry (*gml.Geometry, nil when the source boundary was unparsable).
const GeoColumn = "geometry"

// GeoTable is a table whose rows additionally carry a geometry column. SRS
// names the coordinate reference system the document declares; it is passed
// through, never transformed.
type GeoTable struct {
	Table
	SRS string
}

// Geometry returns the geometry of row i, or nil.
func (t *GeoTable) Geometry(i int) *gml.Geometry {
	g, _ := t.Rows[i][GeoColumn].(*gml.Geometry)
	return g
}

// Extract holds the seven object-type tables pulled from one NAS document.
// It is immutable after construction and owned exclusively by the caller.
type Extract struct {
	// CRS is the standard coordinate reference system declared in the
	// document's koordinatenangaben block, e.g. "ETRS89 / UTM zone 33N".
	// Empty when the document declares none.
	CRS string

	Flurstueck          GeoTable // parcels
	Person              Table
	Buchungsblattbezirk Table // land-register districts
	Buchungsblatt       Table // land-register sheets
	Anschrift           Table // addresses
	Namensnummer        Table // ownership-share records
	Buchungsstelle      Table // booking entries
}

// Tables returns all seven tables in a stable order, parcels first. The
// parcel table is returned as its plain Table view.
func (e *Extract) Tables() []*Table {
	return []*Table{
		&e.Flurstueck.Table,
		&e.Person,
		&e.Buchungsblattbezirk,
		&e.Buchungsblatt,
		&e.Anschrift,
		&e.Namensnummer,
		&e.Buchungsstelle,
	}
}
