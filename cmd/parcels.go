package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"nasextract/internal/types"
)

// browseParcels shows the given parcel rows in the interactive selector;
// Enter renders the full row.
func browseParcels(rows []types.Row) {
	if len(rows) == 0 {
		fmt.Println("No parcels in this document.")
		return
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		geo := " "
		if g, ok := row[types.GeoColumn]; ok && g != nil {
			geo = "G"
		}
		lines[i] = fmt.Sprintf("%-20s | %-22s | %10s m2 | %s",
			cell(row["flurstueck_id"]), cell(row["flurstueckskennzeichen"]), cell(row["amtliche_flaeche"]), geo)
	}

	interactiveSelect(lines, func(i int) {
		renderParcel(rows[i])
		offerMark(cell(rows[i]["flurstueck_id"]))
	})
}

// showLargestParcels lists the n parcels with the largest official area.
func showLargestParcels(n int) {
	var withArea []types.Row
	for _, row := range result.Flurstueck.Rows {
		if _, ok := row["amtliche_flaeche"].(float64); ok {
			withArea = append(withArea, row)
		}
	}
	if len(withArea) == 0 {
		fmt.Println("No parcels with an official area in this document.")
		return
	}

	sort.SliceStable(withArea, func(i, j int) bool {
		return withArea[i]["amtliche_flaeche"].(float64) > withArea[j]["amtliche_flaeche"].(float64)
	})
	if n < len(withArea) {
		withArea = withArea[:n]
	}
	browseParcels(withArea)
}

// renderParcel prints one parcel row in a readable layout.
func renderParcel(row types.Row) {
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Parcel id         : %s\n", cell(row["flurstueck_id"]))
	fmt.Printf("Kennzeichen       : %s\n", cell(row["flurstueckskennzeichen"]))
	fmt.Printf("Official area     : %s\n", cell(row["amtliche_flaeche"]))
	fmt.Printf("Usage codes       : %s\n", cell(row["nutzung"]))
	fmt.Printf("Booking entry     : %s\n", cell(row["buchungsstelle_id"]))
	fmt.Printf("Location ref      : %s\n", cell(row["lagebezeichnung_id"]))
	fmt.Printf("Created           : %s\n", cell(row["zeitpunkt_der_entstehung"]))
	fmt.Printf("Lifetime begin    : %s\n", cell(row["lebenszeit_beginn"]))
	if g, ok := row[types.GeoColumn]; ok && g != nil {
		wkt := cell(g)
		if len(wkt) > 120 {
			wkt = wkt[:120] + "..."
		}
		fmt.Printf("Geometry          : %s\n", wkt)
	} else {
		fmt.Println("Geometry          : (none)")
	}
	fmt.Println(strings.Repeat("-", 80))
}

// offerMark asks whether to add the parcel id to the marks file.
func offerMark(id string) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Mark this parcel? (y/N): ")
	resp, _ := reader.ReadString('\n')
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		if err := saveMark(id); err != nil {
			fmt.Printf("Failed to save mark: %v\n", err)
		} else {
			fmt.Println("Parcel marked.")
		}
	}
}
