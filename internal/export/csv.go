// Package export writes extraction results to files GIS tooling can
// consume: one CSV per table, and an ESRI shapefile for parcel geometry.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"nasextract/internal/gml"
	"nasextract/internal/types"
)

// WriteCSVDir writes every table of the extract into dir, one
// "<table>.csv" per table. Geometry cells are serialized as WKT, nulls as
// empty cells.
func WriteCSVDir(ex *types.Extract, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, table := range ex.Tables() {
		path := filepath.Join(dir, table.Name+".csv")
		if err := writeTableCSV(table, path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeTableCSV(table *types.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cellString(v types.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *gml.Geometry:
		if val == nil {
			return ""
		}
		return val.WKT()
	default:
		return fmt.Sprint(val)
	}
}
