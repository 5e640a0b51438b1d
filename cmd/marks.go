package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"nasextract/internal/types"
)

// Parcels of interest are remembered across program invocations in a plain
// text file, one feature id per line.
var marksFile = "parcels_of_interest.txt"

// loadMarks returns the saved parcel ids. A missing file means no marks
// yet, not an error.
func loadMarks() ([]string, error) {
	f, err := os.Open(marksFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, scanner.Err()
}

// saveMark appends the parcel id to the marks file unless already present.
func saveMark(id string) error {
	existing, err := loadMarks()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e == id {
			return nil // already marked
		}
	}

	f, err := os.OpenFile(marksFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = fmt.Fprintln(f, id); err != nil {
		return err
	}
	return nil
}

// showMarks lists the saved parcels of interest. Ids found in the current
// document open in the parcel browser; the rest are listed by id.
func showMarks() {
	ids, err := loadMarks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", marksFile, err)
		return
	}
	if len(ids) == 0 {
		fmt.Println("No parcels marked yet.")
		return
	}

	rows, missing := markedParcels(ids, result.Flurstueck.Rows)
	for _, id := range missing {
		fmt.Printf("%s (not in this document)\n", id)
	}
	if len(rows) == 0 {
		fmt.Println("None of the marked parcels are in this document.")
		return
	}
	browseParcels(rows)
}

// markedParcels splits the saved ids into parcel rows present in the
// document and ids that are not, preserving the order of the marks file.
func markedParcels(ids []string, rows []types.Row) ([]types.Row, []string) {
	byID := make(map[string]types.Row, len(rows))
	for _, row := range rows {
		if id, ok := row["flurstueck_id"].(string); ok {
			byID[id] = row
		}
	}

	var present []types.Row
	var missing []string
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			present = append(present, row)
		} else {
			missing = append(missing, id)
		}
	}
	return present, missing
}
