// Package database loads extraction results into Oracle so the tables can
// be joined and queried with regular SQL.
package database

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"nasextract/internal/gml"
	"nasextract/internal/types"

	_ "github.com/sijms/go-ora/v2"
)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			username, password, host, port, service, url.PathEscape(walletLocation))
	}

	// Fallback to standard connection without wallet
	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// loadEnvFile reads environment variables from a .env file
func loadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err // File doesn't exist, which is okay
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue // Skip empty lines and comments
		}

		// Parse key=value format
		if idx := strings.Index(line, "="); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.TrimSpace(line[idx+1:])

			// Remove quotes if present
			if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"') {
				value = value[1 : len(value)-1]
			}

			// Only set if not already set in environment
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	}

	return scanner.Err()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
}

// Database holds the database connection and configuration
type Database struct {
	db     *sql.DB
	config DBConfig
}

// NewDatabase creates a new database connection
func NewDatabase(config DBConfig) (*Database, error) {
	connStr := dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		config: config,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// ddl maps each extract table to its CREATE TABLE statement. Identifier
// columns stay VARCHAR2 because NAS feature ids are opaque strings;
// geometry goes in as WKT.
var ddl = map[string]string{
	"flurstueck": `CREATE TABLE NAS_FLURSTUECK (
		FLURSTUECK_ID VARCHAR2(64) NOT NULL,
		FLURSTUECKSKENNZEICHEN VARCHAR2(64) NOT NULL,
		AMTLICHE_FLAECHE NUMBER,
		NUTZUNG VARCHAR2(400),
		BUCHUNGSSTELLE_ID VARCHAR2(64),
		LAGEBEZEICHNUNG_ID VARCHAR2(64),
		ZEITPUNKT_DER_ENTSTEHUNG VARCHAR2(64),
		LEBENSZEIT_BEGINN TIMESTAMP,
		GEOMETRY CLOB
	)`,
	"person": `CREATE TABLE NAS_PERSON (
		PERSON_ID VARCHAR2(64) NOT NULL,
		NACHNAME_ODER_FIRMA VARCHAR2(400) NOT NULL,
		VORNAME VARCHAR2(400),
		ANREDE VARCHAR2(64),
		NAMENSBESTANDTEIL VARCHAR2(400),
		AKADEMISCHER_GRAD VARCHAR2(400),
		GEBURTSNAME VARCHAR2(400),
		GEBURTSDATUM VARCHAR2(64),
		ANSCHRIFT_ID VARCHAR2(64),
		LEBENSZEIT_BEGINN TIMESTAMP,
		ANLASS VARCHAR2(400)
	)`,
	"buchungsblattbezirk": `CREATE TABLE NAS_BUCHUNGSBLATTBEZIRK (
		BEZIRK_ID VARCHAR2(64) NOT NULL,
		BEZEICHNUNG VARCHAR2(400) NOT NULL,
		SCHLUESSEL_GESAMT VARCHAR2(64),
		SCHLUESSEL_LAND VARCHAR2(16),
		SCHLUESSEL_BEZIRK VARCHAR2(16),
		DIENSTSTELLE_LAND VARCHAR2(16),
		DIENSTSTELLE_STELLE VARCHAR2(16),
		LEBENSZEIT_BEGINN TIMESTAMP,
		ANLASS VARCHAR2(400)
	)`,
	"buchungsblatt": `CREATE TABLE NAS_BUCHUNGSBLATT (
		BLATT_ID VARCHAR2(64) NOT NULL,
		BLATTNUMMER_MIT_BUCHSTABENERWEITERUNG VARCHAR2(64) NOT NULL,
		BUCHUNGSBLATTKENNZEICHEN VARCHAR2(64),
		BLATTART VARCHAR2(64),
		BEZIRK_LAND VARCHAR2(16),
		BEZIRK_BEZIRK VARCHAR2(16),
		LEBENSZEIT_BEGINN TIMESTAMP,
		ANLASS VARCHAR2(400),
		BEZIRK_SCHLUESSEL VARCHAR2(64)
	)`,
	"anschrift": `CREATE TABLE NAS_ANSCHRIFT (
		ANSCHRIFT_ID VARCHAR2(64) NOT NULL,
		STRASSE VARCHAR2(400) NOT NULL,
		HAUSNUMMER VARCHAR2(64) NOT NULL,
		POSTLEITZAHL_POSTZUSTELLUNG VARCHAR2(16),
		ORT_POST VARCHAR2(400),
		ORTSTEIL VARCHAR2(400),
		TELEFON VARCHAR2(64),
		WEITERE_ADRESSEN VARCHAR2(400),
		LEBENSZEIT_BEGINN TIMESTAMP,
		ANLASS VARCHAR2(400)
	)`,
	"namensnummer": `CREATE TABLE NAS_NAMENSNUMMER (
		NAMENSNUMMER_ID VARCHAR2(64) NOT NULL,
		ZAEHLER NUMBER,
		NENNER NUMBER,
		LAUFENDE_NUMMER VARCHAR2(64),
		PERSON_ID VARCHAR2(64),
		BLATT_ID VARCHAR2(64),
		ART_DER_RECHTSGEMEINSCHAFT VARCHAR2(400),
		RECHTSVERHAELTNIS_ZU VARCHAR2(64),
		ANLASS VARCHAR2(400),
		ANTEIL NUMBER
	)`,
	"buchungsstelle": `CREATE TABLE NAS_BUCHUNGSSTELLE (
		BUCHUNGSSTELLE_ID VARCHAR2(64) NOT NULL,
		BUCHUNGSART VARCHAR2(64),
		LAUFENDE_NUMMER VARCHAR2(64),
		BLATT_ID VARCHAR2(64)
	)`,
}

// CreateTables creates the seven NAS_* tables, tolerating tables that
// already exist (ORA-00955).
func (d *Database) CreateTables(ctx context.Context) error {
	for name, stmt := range ddl {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "ORA-00955") {
				continue // table exists
			}
			return fmt.Errorf("create table for %s: %w", name, err)
		}
	}
	return nil
}

// LoadExtract inserts every row of every table of the extract. Geometry is
// stored as WKT text.
func (d *Database) LoadExtract(ctx context.Context, ex *types.Extract) error {
	for _, table := range ex.Tables() {
		if err := d.loadTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) loadTable(ctx context.Context, table *types.Table) error {
	if len(table.Rows) == 0 {
		return nil
	}

	stmt, err := d.db.PrepareContext(ctx, insertSQL(table))
	if err != nil {
		return fmt.Errorf("prepare insert for %s: %w", table.Name, err)
	}
	defer stmt.Close()

	args := make([]any, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			args[i] = bindValue(row[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table.Name, err)
		}
	}
	return nil
}

// insertSQL builds the positional-bind INSERT statement for one table.
func insertSQL(table *types.Table) string {
	cols := make([]string, len(table.Columns))
	binds := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = strings.ToUpper(col)
		binds[i] = fmt.Sprintf(":%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO NAS_%s (%s) VALUES (%s)",
		strings.ToUpper(table.Name), strings.Join(cols, ", "), strings.Join(binds, ", "))
}

func bindValue(v types.Value) any {
	switch val := v.(type) {
	case *gml.Geometry:
		if val == nil {
			return nil
		}
		return val.WKT()
	default:
		return v
	}
}

// LoadDatabaseConfig loads database configuration from environment variables
func LoadDatabaseConfig() DBConfig {
	// Try to load from .env file first
	loadEnvFile(".env")

	return DBConfig{
		Host:           getEnvOrDefault("DB_HOST", "localhost"),
		Port:           getEnvOrDefault("DB_PORT", "1521"),
		Service:        getEnvOrDefault("DB_SERVICE", "XE"),
		Username:       getEnvOrDefault("DB_USERNAME", ""),
		Password:       getEnvOrDefault("DB_PASSWORD", ""),
		WalletLocation: getEnvOrDefault("DB_WALLET_LOCATION", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
