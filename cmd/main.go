package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"nasextract/internal/database"
	"nasextract/internal/export"
	"nasextract/internal/extract"
	"nasextract/internal/types"
)

// result holds the tables extracted from the input document for the
// lifetime of the program.
var result *types.Extract

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: nasextract <file.xml> [command]")
		fmt.Fprintln(os.Stderr, "commands: summary | parcels | marks | big[=N] | point=<x>,<y> | csv=<dir> | shp=<file.shp> | db")
		os.Exit(1)
	}

	path := os.Args[1]
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", path, err)
		os.Exit(1)
	}
	result, err = extract.Extract(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extracted %s in %v\n", path, time.Since(start).Truncate(time.Millisecond))

	// A command on the command line runs once; otherwise drop into the
	// interactive loop for multiple commands.
	if len(os.Args) > 2 {
		runCommand(strings.Join(os.Args[2:], " "))
		return
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter command (summary, parcels, marks, big[=N], point=<x>,<y>, csv=<dir>, shp=<file.shp>, db; blank to quit): ")
		input, _ := reader.ReadString('\n')
		cmd := strings.TrimSpace(input)
		if cmd == "" {
			break
		}
		runCommand(cmd)
	}
}

func runCommand(cmd string) {
	switch {
	case strings.EqualFold(cmd, "summary"):
		printSummary()
	case strings.EqualFold(cmd, "parcels"):
		browseParcels(result.Flurstueck.Rows)
	case strings.EqualFold(cmd, "marks"):
		showMarks()
	case strings.EqualFold(cmd, "big") || strings.HasPrefix(cmd, "big="):
		n := 10
		if v := strings.TrimPrefix(cmd, "big="); v != cmd {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				n = parsed
			}
		}
		showLargestParcels(n)
	case strings.HasPrefix(cmd, "point="):
		locateParcel(strings.TrimPrefix(cmd, "point="))
	case strings.HasPrefix(cmd, "csv="):
		dir := strings.TrimPrefix(cmd, "csv=")
		if err := export.WriteCSVDir(result, dir); err != nil {
			fmt.Fprintf(os.Stderr, "csv export failed: %v\n", err)
			return
		}
		fmt.Printf("Wrote %d tables to %s\n", len(result.Tables()), dir)
	case strings.HasPrefix(cmd, "shp="):
		path := strings.TrimPrefix(cmd, "shp=")
		n, err := export.WriteParcelShapefile(&result.Flurstueck, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "shapefile export failed: %v\n", err)
			return
		}
		fmt.Printf("Wrote %d parcel(s) to %s\n", n, path)
	case strings.EqualFold(cmd, "db"):
		loadIntoDatabase()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
}

func printSummary() {
	fmt.Println(strings.Repeat("-", 50))
	if result.CRS != "" {
		fmt.Printf("CRS               : %s\n", result.CRS)
	}
	for _, table := range result.Tables() {
		fmt.Printf("%-20s: %d row(s)\n", table.Name, len(table.Rows))
	}
	fmt.Println(strings.Repeat("-", 50))
}

func locateParcel(arg string) {
	parts := strings.SplitN(arg, ",", 2)
	if len(parts) != 2 {
		fmt.Println("point command expects point=<x>,<y>")
		return
	}
	x, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		fmt.Println("point command expects numeric coordinates")
		return
	}

	parcels := &result.Flurstueck
	for i := range parcels.Rows {
		g := parcels.Geometry(i)
		if g != nil && g.Contains(x, y) {
			renderParcel(parcels.Rows[i])
			return
		}
	}
	fmt.Printf("No parcel contains point %g,%g\n", x, y)
}

func loadIntoDatabase() {
	config := database.LoadDatabaseConfig()
	if config.Password == "" {
		pw, err := promptPassword(fmt.Sprintf("Oracle password for %s: ", config.Username))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read password: %v\n", err)
			return
		}
		config.Password = pw
	}

	fmt.Println("Connecting to Oracle...")
	db, err := database.NewDatabase(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.CreateTables(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "create tables failed: %v\n", err)
		return
	}
	start := time.Now()
	if err := db.LoadExtract(ctx, result); err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		return
	}
	fmt.Printf("Loaded all tables in %v\n", time.Since(start).Truncate(time.Millisecond))
}

// cell renders a table value for display; nulls come out empty.
func cell(v types.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
