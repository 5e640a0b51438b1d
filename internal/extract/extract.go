// Package extract pulls the seven GeoInfoDok object-type tables out of a
// parsed NAS document. Extraction is a pure function of the input: the
// result is built once, never mutated afterwards, and owned by the caller.
package extract

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"nasextract/internal/gml"
	"nasextract/internal/nasxml"
	"nasextract/internal/types"
)

const (
	idPrefix  = "urn:adv:oid:"
	crsPrefix = "urn:adv:crs:"
	xlinkNS   = "http://www.w3.org/1999/xlink"
)

// axNamespaces lists the AdV namespace URIs of the GeoInfoDok versions we
// accept. A document uses exactly one of them.
var axNamespaces = []string{
	"http://www.adv-online.de/namespaces/adv/gid/7.1",
	"http://www.adv-online.de/namespaces/adv/gid/6.0",
}

// Extract parses one NAS document from r and materializes its object types
// as tables. It returns *MalformedInputError when the stream is not
// well-formed XML and *SchemaMismatchError when a matched element lacks a
// required field.
func Extract(r io.Reader) (*types.Extract, error) {
	root, err := nasxml.Parse(r)
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}
	return ExtractTree(root)
}

// ExtractTree runs the extraction over an already parsed tree. The tree is
// read-only here; the seven per-type walks are independent and run
// concurrently, each filling its own table.
func ExtractTree(root *nasxml.Element) (*types.Extract, error) {
	axNS := nasxml.FindNamespace(root, axNamespaces)

	tables := make([]types.Table, len(rules))
	errs := make([]error, len(rules))

	var wg sync.WaitGroup
	wg.Add(len(rules))
	for i := range rules {
		go func(i int) {
			defer wg.Done()
			tables[i], errs[i] = extractType(root, axNS, rules[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	result := &types.Extract{
		CRS:                 documentCRS(root, axNS),
		Person:              tables[1],
		Buchungsblattbezirk: tables[2],
		Buchungsblatt:       tables[3],
		Anschrift:           tables[4],
		Namensnummer:        tables[5],
		Buchungsstelle:      tables[6],
	}
	result.Flurstueck = types.GeoTable{Table: tables[0], SRS: result.CRS}
	return result, nil
}

// extractType walks every element of the rule's tag anywhere in the
// document and produces one row per element. A document without any such
// element yields an empty table, not an error.
func extractType(root *nasxml.Element, axNS string, rule typeRule) (types.Table, error) {
	table := types.Table{Name: rule.Name, Columns: rule.columns()}
	if axNS == "" {
		return table, nil
	}

	els := root.Descendants(func(e *nasxml.Element) bool {
		return e.Space == axNS && e.Local == rule.Tag
	})

	for _, el := range els {
		row, err := extractRow(el, axNS, rule)
		if err != nil {
			return table, err
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func extractRow(el *nasxml.Element, axNS string, rule typeRule) (types.Row, error) {
	row := make(types.Row, len(rule.Fields)+2)

	id := el.Attr(gml.Namespace, "id")
	if id == "" {
		return nil, &SchemaMismatchError{Tag: rule.Tag, Field: "gml:id"}
	}
	row[rule.IDColumn] = id

	for _, f := range rule.Fields {
		val := fieldValue(el, axNS, f)
		if val == nil && f.Required {
			return nil, &SchemaMismatchError{Tag: rule.Tag, Field: f.Path[len(f.Path)-1]}
		}
		row[f.Column] = val
	}

	if rule.Derive != nil {
		rule.Derive(row)
	}

	if rule.Geometry {
		row[types.GeoColumn] = parcelGeometry(el, axNS)
	}
	return row, nil
}

// fieldValue resolves one field rule against the element. A missing or
// empty source attribute is null; so is a float or timestamp that does not
// parse (identity and text data are strict, derived scalars best-effort).
func fieldValue(el *nasxml.Element, axNS string, f fieldRule) types.Value {
	switch f.Kind {
	case kindHref:
		target := el.Find(axNS, f.Path...)
		if target == nil {
			return nil
		}
		href := target.Attr(xlinkNS, "href")
		if href == "" {
			return nil
		}
		return strings.TrimPrefix(href, idPrefix)

	case kindTitle:
		target := el.Find(axNS, f.Path...)
		if target == nil {
			return nil
		}
		if title := target.Attr(xlinkNS, "title"); title != "" {
			return title
		}
		return nil

	case kindJoined:
		var parts []string
		for _, c := range el.ChildrenNamed(axNS, f.Path[0]) {
			if s := strings.TrimSpace(c.Text); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return strings.Join(parts, ",")
	}

	text, ok := el.FindText(axNS, f.Path...)
	if !ok || text == "" {
		return nil
	}

	switch f.Kind {
	case kindFloat:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		return v
	case kindTime:
		if t, err := parseTimestamp(text); err == nil {
			return t
		}
		return nil
	}
	return text
}

// parcelGeometry parses the parcel boundary under ax:position. Unparsable
// or absent geometry degrades to null; the row itself is kept.
func parcelGeometry(el *nasxml.Element, axNS string) types.Value {
	position := el.Find(axNS, "position")
	if position == nil {
		return nil
	}
	g, err := gml.ParseGeometry(position)
	if err != nil {
		return nil
	}
	return g
}

// parseTimestamp accepts the ISO 8601 forms NAS providers emit for
// lifetime-interval timestamps, with or without a zone designator.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

// crsFormat matches AdV CRS identifiers like "ETRS89_UTM33".
var crsFormat = regexp.MustCompile(`(?i)^ETRS89_UTM(\d+)$`)

// documentCRS reads the standard coordinate reference system from the
// document's koordinatenangaben block and rewrites the AdV short form to
// the usual display name. Unknown identifiers pass through as declared.
func documentCRS(root *nasxml.Element, axNS string) string {
	if axNS == "" {
		return ""
	}
	entries := root.Descendants(func(e *nasxml.Element) bool {
		return e.Space == axNS && e.Local == "AA_Koordinatenreferenzsystemangaben"
	})
	for _, entry := range entries {
		if std, _ := entry.FindText(axNS, "standard"); std != "true" {
			continue
		}
		crsEl := entry.Find(axNS, "crs")
		if crsEl == nil {
			continue
		}
		name := strings.TrimPrefix(crsEl.Attr(xlinkNS, "href"), crsPrefix)
		if m := crsFormat.FindStringSubmatch(name); m != nil {
			return fmt.Sprintf("ETRS89 / UTM zone %sN", m[1])
		}
		return name
	}
	return ""
}
