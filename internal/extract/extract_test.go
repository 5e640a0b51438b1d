package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasextract/internal/types"
)

const (
	advNS = "http://www.adv-online.de/namespaces/adv/gid/7.1"
	adv6  = "http://www.adv-online.de/namespaces/adv/gid/6.0"
)

// document wraps NAS members in a feature collection with the usual
// namespace declarations.
func document(ns string, members ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs/2.0"
    xmlns:ax="` + ns + `"
    xmlns:gml="http://www.opengis.net/gml/3.2"
    xmlns:xlink="http://www.w3.org/1999/xlink">
`)
	for _, m := range members {
		sb.WriteString("<wfs:member>" + m + "</wfs:member>\n")
	}
	sb.WriteString(`</wfs:FeatureCollection>`)
	return sb.String()
}

const squareSurface = `<ax:position><gml:Surface srsName="urn:adv:crs:ETRS89_UTM33"><gml:patches><gml:PolygonPatch>
	<gml:exterior><gml:LinearRing><gml:posList srsDimension="2">0 0 10 0 10 10 0 10 0 0</gml:posList></gml:LinearRing></gml:exterior>
</gml:PolygonPatch></gml:patches></gml:Surface></ax:position>`

const parcelMember = `<ax:AX_Flurstueck gml:id="DEKY0001f0000001">
	<ax:lebenszeitintervall><ax:AA_Lebenszeitintervall><ax:beginnt>2008-06-05T07:48:12Z</ax:beginnt></ax:AA_Lebenszeitintervall></ax:lebenszeitintervall>
	<ax:flurstueckskennzeichen>060123001001790______</ax:flurstueckskennzeichen>
	<ax:amtlicheFlaeche>1284</ax:amtlicheFlaeche>
	<ax:zeitpunktDerEntstehung>1999-03-31</ax:zeitpunktDerEntstehung>
	<ax:istGebucht xlink:href="urn:adv:oid:DEKYBST0000001"/>
	<ax:zeigtAuf xlink:href="urn:adv:oid:DEKYLAG0000001"/>
	` + squareSurface + `
</ax:AX_Flurstueck>`

const personMember = `<ax:AX_Person gml:id="DEKY0002f0000002">
	<ax:nachnameOderFirma>Mustermann</ax:nachnameOderFirma>
	<ax:vorname>Max</ax:vorname>
	<ax:geburtsdatum>1970-01-01</ax:geburtsdatum>
	<ax:hat xlink:href="urn:adv:oid:DEKYANS0000001"/>
</ax:AX_Person>`

const crsBlock = `<ax:AX_Benutzer gml:id="DEKYUSR0000001"><ax:koordinatenangaben>
	<ax:AA_Koordinatenreferenzsystemangaben>
		<ax:standard>true</ax:standard>
		<ax:crs xlink:href="urn:adv:crs:ETRS89_UTM33"/>
	</ax:AA_Koordinatenreferenzsystemangaben>
</ax:koordinatenangaben></ax:AX_Benutzer>`

func extractDoc(t *testing.T, doc string) *types.Extract {
	t.Helper()
	ex, err := Extract(strings.NewReader(doc))
	require.NoError(t, err)
	return ex
}

func TestExtract_SingleParcelAndPerson(t *testing.T) {
	t.Parallel()

	ex := extractDoc(t, document(advNS, parcelMember, personMember))

	require.Len(t, ex.Flurstueck.Rows, 1)
	require.Len(t, ex.Person.Rows, 1)
	for _, table := range []*types.Table{
		&ex.Buchungsblattbezirk, &ex.Buchungsblatt, &ex.Anschrift, &ex.Namensnummer, &ex.Buchungsstelle,
	} {
		assert.Empty(t, table.Rows, "table %s should be empty", table.Name)
	}

	parcel := ex.Flurstueck.Rows[0]
	assert.Equal(t, "DEKY0001f0000001", parcel["flurstueck_id"])
	assert.Equal(t, "060123001001790______", parcel["flurstueckskennzeichen"])
	assert.Equal(t, 1284.0, parcel["amtliche_flaeche"])
	assert.Equal(t, "DEKYBST0000001", parcel["buchungsstelle_id"], "urn:adv:oid: prefix stripped")
	assert.Equal(t, "DEKYLAG0000001", parcel["lagebezeichnung_id"])
	assert.Equal(t, time.Date(2008, 6, 5, 7, 48, 12, 0, time.UTC), parcel["lebenszeit_beginn"])
	require.NotNil(t, ex.Flurstueck.Geometry(0))
	assert.Len(t, ex.Flurstueck.Geometry(0).Polygons, 1)

	person := ex.Person.Rows[0]
	assert.Equal(t, "DEKY0002f0000002", person["person_id"])
	assert.Equal(t, "Mustermann", person["nachname_oder_firma"])
	assert.Equal(t, "Max", person["vorname"])
	assert.Equal(t, "DEKYANS0000001", person["anschrift_id"])
	assert.Nil(t, person["anrede"], "absent optional is null, not missing")
	_, present := person["anrede"]
	assert.True(t, present, "absent optional must still be a column")
}

func TestExtract_RowCountMatchesElementCount(t *testing.T) {
	t.Parallel()

	doc := document(advNS,
		parcelMember,
		strings.ReplaceAll(parcelMember, "DEKY0001f0000001", "DEKY0001f0000003"),
		personMember,
		`<ax:AX_Buchungsstelle gml:id="DEKYBST0000001"><ax:buchungsart>1100</ax:buchungsart></ax:AX_Buchungsstelle>`,
		// Unknown object types are legitimately present and ignored.
		`<ax:AX_Gebaeude gml:id="DEKYGEB0000001"/>`,
	)
	ex := extractDoc(t, doc)

	assert.Len(t, ex.Flurstueck.Rows, 2)
	assert.Len(t, ex.Person.Rows, 1)
	assert.Len(t, ex.Buchungsstelle.Rows, 1)
	assert.Equal(t, "1100", ex.Buchungsstelle.Rows[0]["buchungsart"])
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	doc := document(advNS, parcelMember, personMember, crsBlock)
	first := extractDoc(t, doc)
	second := extractDoc(t, doc)
	assert.Equal(t, first, second)
}

func TestExtract_FixedColumnSets(t *testing.T) {
	t.Parallel()

	ex := extractDoc(t, document(advNS, parcelMember, personMember))
	for _, table := range ex.Tables() {
		require.NotEmpty(t, table.Columns, "table %s", table.Name)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Columns), "row width in %s", table.Name)
			for _, col := range table.Columns {
				_, ok := row[col]
				assert.True(t, ok, "column %s missing in a %s row", col, table.Name)
			}
		}
	}
}

func TestExtract_MalformedInput(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"<wfs:FeatureCollection>",
		document(advNS, "<ax:AX_Person gml:id=\"X\">"),
		"plain text",
		document(advNS, personMember) + "<second>another root</second>",
		document(advNS, personMember) + "trailing junk",
	}
	for _, doc := range tests {
		ex, err := Extract(strings.NewReader(doc))
		assert.Nil(t, ex)
		var malformed *MalformedInputError
		assert.ErrorAs(t, err, &malformed)
	}
}

func TestExtract_MissingFeatureID(t *testing.T) {
	t.Parallel()

	doc := document(advNS, personMember,
		`<ax:AX_Person><ax:nachnameOderFirma>Ohne Id</ax:nachnameOderFirma></ax:AX_Person>`)
	ex, err := Extract(strings.NewReader(doc))
	assert.Nil(t, ex, "no partial result")

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "AX_Person", mismatch.Tag)
	assert.Equal(t, "gml:id", mismatch.Field)
}

func TestExtract_MissingRequiredField(t *testing.T) {
	t.Parallel()

	doc := document(advNS, `<ax:AX_Anschrift gml:id="DEKYANS0000001">
		<ax:hausnummer>12</ax:hausnummer>
	</ax:AX_Anschrift>`)
	_, err := Extract(strings.NewReader(doc))

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "AX_Anschrift", mismatch.Tag)
	assert.Equal(t, "strasse", mismatch.Field)
}

func TestExtract_BrokenGeometryKeepsRow(t *testing.T) {
	t.Parallel()

	broken := strings.Replace(parcelMember,
		"0 0 10 0 10 10 0 10 0 0", "0 0 10 0 10 10 0 10", 1) // ring no longer closes
	broken = strings.Replace(broken, "DEKY0001f0000001", "DEKY0001f0000009", 1)

	ex := extractDoc(t, document(advNS, broken, parcelMember))
	require.Len(t, ex.Flurstueck.Rows, 2)

	// Rows come out in document order: the broken parcel first.
	first := ex.Flurstueck.Rows[0]
	assert.Equal(t, "DEKY0001f0000009", first["flurstueck_id"])
	assert.Equal(t, "060123001001790______", first["flurstueckskennzeichen"])
	assert.Nil(t, first[types.GeoColumn])

	assert.NotNil(t, ex.Flurstueck.Geometry(1))
}

func TestExtract_DuplicateFeatureIDsKept(t *testing.T) {
	t.Parallel()

	ex := extractDoc(t, document(advNS, personMember, personMember))
	assert.Len(t, ex.Person.Rows, 2, "duplicate ids are not deduplicated")
}

func TestExtract_CRS(t *testing.T) {
	t.Parallel()

	ex := extractDoc(t, document(advNS, crsBlock, parcelMember))
	assert.Equal(t, "ETRS89 / UTM zone 33N", ex.CRS)
	assert.Equal(t, "ETRS89 / UTM zone 33N", ex.Flurstueck.SRS)

	// A non-standard entry is skipped; no CRS at all is fine.
	ex = extractDoc(t, document(advNS, personMember))
	assert.Equal(t, "", ex.CRS)

	// Unknown identifiers pass through as declared.
	other := strings.Replace(crsBlock, "urn:adv:crs:ETRS89_UTM33", "urn:adv:crs:DE_DHDN_3GK3", 1)
	ex = extractDoc(t, document(advNS, other))
	assert.Equal(t, "DE_DHDN_3GK3", ex.CRS)
}

func TestExtract_GeoInfoDok60Namespace(t *testing.T) {
	t.Parallel()

	ex := extractDoc(t, document(adv6, personMember))
	require.Len(t, ex.Person.Rows, 1)
	assert.Equal(t, "Mustermann", ex.Person.Rows[0]["nachname_oder_firma"])
}

func TestExtract_NamensnummerShares(t *testing.T) {
	t.Parallel()

	doc := document(advNS,
		`<ax:AX_Namensnummer gml:id="DEKYNAM0000001">
			<ax:benennt xlink:href="urn:adv:oid:DEKY0002f0000002"/>
			<ax:istBestandteilVon xlink:href="urn:adv:oid:DEKYBLT0000001"/>
			<ax:anteil><ax:AX_Anteil><ax:zaehler>1</ax:zaehler><ax:nenner>2</ax:nenner></ax:AX_Anteil></ax:anteil>
		</ax:AX_Namensnummer>`,
		`<ax:AX_Namensnummer gml:id="DEKYNAM0000002">
			<ax:benennt xlink:href="urn:adv:oid:DEKY0002f0000002"/>
		</ax:AX_Namensnummer>`,
	)
	ex := extractDoc(t, doc)
	require.Len(t, ex.Namensnummer.Rows, 2, "one row per occurrence, no dedup by person")

	half := ex.Namensnummer.Rows[0]
	assert.Equal(t, 1.0, half["zaehler"])
	assert.Equal(t, 2.0, half["nenner"])
	assert.Equal(t, 0.5, half["anteil"])
	assert.Equal(t, "DEKY0002f0000002", half["person_id"])
	assert.Equal(t, "DEKYBLT0000001", half["blatt_id"])

	whole := ex.Namensnummer.Rows[1]
	assert.Nil(t, whole["zaehler"])
	assert.Nil(t, whole["nenner"])
	assert.Equal(t, 1.0, whole["anteil"], "missing fraction means the whole share")
}

func TestExtract_RegisterSheetForeignKey(t *testing.T) {
	t.Parallel()

	doc := document(advNS,
		`<ax:AX_Buchungsblattbezirk gml:id="DEKYBBZ0000001">
			<ax:bezeichnung>Musterstadt</ax:bezeichnung>
			<ax:schluessel><ax:AX_Buchungsblattbezirk_Schluessel>
				<ax:land>06</ax:land><ax:bezirk>1234</ax:bezirk>
			</ax:AX_Buchungsblattbezirk_Schluessel></ax:schluessel>
			<ax:gehoertZu><ax:AX_Dienststelle_Schluessel>
				<ax:land>06</ax:land><ax:stelle>0001</ax:stelle>
			</ax:AX_Dienststelle_Schluessel></ax:gehoertZu>
		</ax:AX_Buchungsblattbezirk>`,
		`<ax:AX_Buchungsblatt gml:id="DEKYBLT0000001">
			<ax:buchungsblattkennzeichen>061234000123</ax:buchungsblattkennzeichen>
			<ax:buchungsblattbezirk><ax:AX_Buchungsblattbezirk_Schluessel>
				<ax:land>06</ax:land><ax:bezirk>1234</ax:bezirk>
			</ax:AX_Buchungsblattbezirk_Schluessel></ax:buchungsblattbezirk>
			<ax:buchungsblattnummerMitBuchstabenerweiterung>00123</ax:buchungsblattnummerMitBuchstabenerweiterung>
			<ax:blattart>1000</ax:blattart>
		</ax:AX_Buchungsblatt>`,
	)
	ex := extractDoc(t, doc)

	require.Len(t, ex.Buchungsblattbezirk.Rows, 1)
	district := ex.Buchungsblattbezirk.Rows[0]
	assert.Equal(t, "Musterstadt", district["bezeichnung"])
	assert.Equal(t, "06", district["schluessel_land"])
	assert.Equal(t, "1234", district["schluessel_bezirk"])
	assert.Equal(t, "0001", district["dienststelle_stelle"])

	require.Len(t, ex.Buchungsblatt.Rows, 1)
	sheet := ex.Buchungsblatt.Rows[0]
	assert.Equal(t, "00123", sheet["blattnummer_mit_buchstabenerweiterung"])
	// Plain-value foreign key into the district table; not resolved here.
	assert.Equal(t, "061234", sheet["bezirk_schluessel"])
}

func TestExtract_AddressFields(t *testing.T) {
	t.Parallel()

	// The phone number lives in the upper-case TEL element.
	doc := document(advNS, `<ax:AX_Anschrift gml:id="DEKYANS0000001">
		<ax:strasse>Musterweg</ax:strasse>
		<ax:hausnummer>12a</ax:hausnummer>
		<ax:ort_Post>Musterstadt</ax:ort_Post>
		<ax:TEL>+49 123 456</ax:TEL>
	</ax:AX_Anschrift>`)
	ex := extractDoc(t, doc)

	require.Len(t, ex.Anschrift.Rows, 1)
	addr := ex.Anschrift.Rows[0]
	assert.Equal(t, "Musterweg", addr["strasse"])
	assert.Equal(t, "12a", addr["hausnummer"])
	assert.Equal(t, "Musterstadt", addr["ort_post"])
	assert.Equal(t, "+49 123 456", addr["telefon"])
}

func TestExtract_UsageCodesJoined(t *testing.T) {
	t.Parallel()

	withUsage := strings.Replace(parcelMember, "</ax:AX_Flurstueck>",
		`<ax:nutzung>2100</ax:nutzung><ax:nutzung>4100</ax:nutzung></ax:AX_Flurstueck>`, 1)
	ex := extractDoc(t, document(advNS, withUsage))

	require.Len(t, ex.Flurstueck.Rows, 1, "repeated attribute still yields one row per element")
	assert.Equal(t, "2100,4100", ex.Flurstueck.Rows[0]["nutzung"])
}

func TestExtract_UnparsableScalars(t *testing.T) {
	t.Parallel()

	bad := strings.Replace(parcelMember, ">1284<", ">not a number<", 1)
	bad = strings.Replace(bad, ">2008-06-05T07:48:12Z<", ">whenever<", 1)
	ex := extractDoc(t, document(advNS, bad))

	row := ex.Flurstueck.Rows[0]
	assert.Nil(t, row["amtliche_flaeche"])
	assert.Nil(t, row["lebenszeit_beginn"])
}

func TestExtract_GeometryValue(t *testing.T) {
	t.Parallel()

	ex := extractDoc(t, document(advNS, parcelMember))
	g := ex.Flurstueck.Geometry(0)
	require.NotNil(t, g)
	assert.Equal(t, "urn:adv:crs:ETRS89_UTM33", g.SRSName)
	assert.Equal(t, "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))", g.WKT())
}
