package extract

import "nasextract/internal/types"

// kind selects how a field value is pulled out of a matched element.
type kind int

const (
	kindText   kind = iota // trimmed text of the element at Path
	kindFloat              // text parsed as float64; unparsable values become null
	kindTime               // ISO 8601 timestamp; unparsable values become null
	kindHref               // xlink:href attribute at Path, urn:adv:oid: prefix stripped
	kindTitle              // xlink:title attribute at Path
	kindJoined             // repeated single-step Path, texts joined with ","
)

// fieldRule maps one table column to a location inside the object element.
// Path steps are local names in the document's AdV namespace.
type fieldRule struct {
	Column   string
	Path     []string
	Kind     kind
	Required bool
}

// typeRule describes one object type: which tag to walk, the id column fed
// from gml:id, the attribute columns, and whether rows carry geometry.
// Derive, when set, computes additional columns after the plain ones.
type typeRule struct {
	Tag      string
	Name     string
	IDColumn string
	Fields   []fieldRule
	Geometry bool
	Derive   func(types.Row)
}

// columns returns the full, fixed column set of the rule's table.
func (r typeRule) columns() []string {
	cols := make([]string, 0, len(r.Fields)+2)
	cols = append(cols, r.IDColumn)
	for _, f := range r.Fields {
		cols = append(cols, f.Column)
	}
	if r.Derive != nil {
		cols = append(cols, r.derivedColumns()...)
	}
	if r.Geometry {
		cols = append(cols, types.GeoColumn)
	}
	return cols
}

func (r typeRule) derivedColumns() []string {
	switch r.Tag {
	case "AX_Buchungsblatt":
		return []string{"bezirk_schluessel"}
	case "AX_Namensnummer":
		return []string{"anteil"}
	}
	return nil
}

var lebenszeitBeginn = fieldRule{
	Column: "lebenszeit_beginn",
	Path:   []string{"lebenszeitintervall", "AA_Lebenszeitintervall", "beginnt"},
	Kind:   kindTime,
}

// rules is the extraction catalogue: one entry per supported GeoInfoDok
// object type. Adding a type means adding an entry here, nothing else.
var rules = []typeRule{
	{
		Tag:      "AX_Flurstueck",
		Name:     "flurstueck",
		IDColumn: "flurstueck_id",
		Fields: []fieldRule{
			{Column: "flurstueckskennzeichen", Path: []string{"flurstueckskennzeichen"}, Required: true},
			{Column: "amtliche_flaeche", Path: []string{"amtlicheFlaeche"}, Kind: kindFloat},
			{Column: "nutzung", Path: []string{"nutzung"}, Kind: kindJoined},
			{Column: "buchungsstelle_id", Path: []string{"istGebucht"}, Kind: kindHref},
			{Column: "lagebezeichnung_id", Path: []string{"zeigtAuf"}, Kind: kindHref},
			{Column: "zeitpunkt_der_entstehung", Path: []string{"zeitpunktDerEntstehung"}},
			lebenszeitBeginn,
		},
		Geometry: true,
	},
	{
		Tag:      "AX_Person",
		Name:     "person",
		IDColumn: "person_id",
		Fields: []fieldRule{
			{Column: "nachname_oder_firma", Path: []string{"nachnameOderFirma"}, Required: true},
			{Column: "vorname", Path: []string{"vorname"}},
			{Column: "anrede", Path: []string{"anrede"}},
			{Column: "namensbestandteil", Path: []string{"namensbestandteil"}},
			{Column: "akademischer_grad", Path: []string{"akademischerGrad"}},
			{Column: "geburtsname", Path: []string{"geburtsname"}},
			{Column: "geburtsdatum", Path: []string{"geburtsdatum"}},
			{Column: "anschrift_id", Path: []string{"hat"}, Kind: kindHref},
			lebenszeitBeginn,
			{Column: "anlass", Path: []string{"anlass"}},
		},
	},
	{
		Tag:      "AX_Buchungsblattbezirk",
		Name:     "buchungsblattbezirk",
		IDColumn: "bezirk_id",
		Fields: []fieldRule{
			{Column: "bezeichnung", Path: []string{"bezeichnung"}, Required: true},
			{Column: "schluessel_gesamt", Path: []string{"schluesselGesamt"}},
			{Column: "schluessel_land", Path: []string{"schluessel", "AX_Buchungsblattbezirk_Schluessel", "land"}},
			{Column: "schluessel_bezirk", Path: []string{"schluessel", "AX_Buchungsblattbezirk_Schluessel", "bezirk"}},
			{Column: "dienststelle_land", Path: []string{"gehoertZu", "AX_Dienststelle_Schluessel", "land"}},
			{Column: "dienststelle_stelle", Path: []string{"gehoertZu", "AX_Dienststelle_Schluessel", "stelle"}},
			lebenszeitBeginn,
			{Column: "anlass", Path: []string{"anlass"}},
		},
	},
	{
		Tag:      "AX_Buchungsblatt",
		Name:     "buchungsblatt",
		IDColumn: "blatt_id",
		Fields: []fieldRule{
			{Column: "blattnummer_mit_buchstabenerweiterung", Path: []string{"buchungsblattnummerMitBuchstabenerweiterung"}, Required: true},
			{Column: "buchungsblattkennzeichen", Path: []string{"buchungsblattkennzeichen"}},
			{Column: "blattart", Path: []string{"blattart"}},
			{Column: "bezirk_land", Path: []string{"buchungsblattbezirk", "AX_Buchungsblattbezirk_Schluessel", "land"}},
			{Column: "bezirk_bezirk", Path: []string{"buchungsblattbezirk", "AX_Buchungsblattbezirk_Schluessel", "bezirk"}},
			lebenszeitBeginn,
			{Column: "anlass", Path: []string{"anlass"}},
		},
		// bezirk_schluessel is the plain-value foreign key into the
		// register-district table; it is never resolved here.
		Derive: func(row types.Row) {
			land, okL := row["bezirk_land"].(string)
			bezirk, okB := row["bezirk_bezirk"].(string)
			if okL && okB {
				row["bezirk_schluessel"] = land + bezirk
			} else {
				row["bezirk_schluessel"] = nil
			}
		},
	},
	{
		Tag:      "AX_Anschrift",
		Name:     "anschrift",
		IDColumn: "anschrift_id",
		Fields: []fieldRule{
			{Column: "strasse", Path: []string{"strasse"}, Required: true},
			{Column: "hausnummer", Path: []string{"hausnummer"}, Required: true},
			{Column: "postleitzahl_postzustellung", Path: []string{"postleitzahlPostzustellung"}},
			{Column: "ort_post", Path: []string{"ort_Post"}},
			{Column: "ortsteil", Path: []string{"ortsteil"}},
			{Column: "telefon", Path: []string{"TEL"}},
			{Column: "weitere_adressen", Path: []string{"weitereAdressen"}},
			lebenszeitBeginn,
			{Column: "anlass", Path: []string{"anlass"}},
		},
	},
	{
		Tag:      "AX_Namensnummer",
		Name:     "namensnummer",
		IDColumn: "namensnummer_id",
		Fields: []fieldRule{
			{Column: "zaehler", Path: []string{"anteil", "AX_Anteil", "zaehler"}, Kind: kindFloat},
			{Column: "nenner", Path: []string{"anteil", "AX_Anteil", "nenner"}, Kind: kindFloat},
			{Column: "laufende_nummer", Path: []string{"laufendeNummerNachDIN1421"}},
			{Column: "person_id", Path: []string{"benennt"}, Kind: kindHref},
			{Column: "blatt_id", Path: []string{"istBestandteilVon"}, Kind: kindHref},
			{Column: "art_der_rechtsgemeinschaft", Path: []string{"artDerRechtsgemeinschaft"}},
			{Column: "rechtsverhaeltnis_zu", Path: []string{"bestehtAusRechtsverhaeltnissenZu"}, Kind: kindHref},
			{Column: "anlass", Path: []string{"anlass"}, Kind: kindTitle},
		},
		// An ownership record without an explicit fraction means the whole
		// share.
		Derive: func(row types.Row) {
			z, okZ := row["zaehler"].(float64)
			n, okN := row["nenner"].(float64)
			if okZ && okN && n != 0 {
				row["anteil"] = z / n
			} else {
				row["anteil"] = float64(1)
			}
		},
	},
	{
		Tag:      "AX_Buchungsstelle",
		Name:     "buchungsstelle",
		IDColumn: "buchungsstelle_id",
		Fields: []fieldRule{
			{Column: "buchungsart", Path: []string{"buchungsart"}},
			{Column: "laufende_nummer", Path: []string{"laufendeNummer"}},
			{Column: "blatt_id", Path: []string{"istBestandteilVon"}, Kind: kindHref},
		},
	},
}
