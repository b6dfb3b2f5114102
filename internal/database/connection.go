package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// DefaultSheets are seeded into the sheet registry on first start. Extra
// sheets can be added through the SHEETS environment variable
// (comma-separated slugs).
var DefaultSheets = map[string]string{
	"blind75":     "Blind 75",
	"neetcode150": "NeetCode 150",
	"striver-sde": "Striver SDE Sheet",
	"striver-a2z": "Striver A2Z Sheet",
	"love-babbar": "Love Babbar 450",
}

// Connect establishes a connection to the database. The backend is selected
// by DB_TYPE (sqlite or postgres, default sqlite).
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch dbType {
	case "postgres":
		db, err = sqlx.Connect("postgres", os.Getenv("DATABASE_URL"))
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
	default:
		dbPath := os.Getenv("DATABASE_PATH")
		if dbPath == "" {
			dataDir := "data"
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %v", err)
			}
			dbPath = filepath.Join(dataDir, "revtrack.db")
		}

		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}

		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}

		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db

	// Initialize schema
	if err := initializeSchema(dbType); err != nil {
		return err
	}

	return seedSheets()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(dbType string) error {
	// SQLite и Postgres по-разному объявляют автоинкрементные ключи
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dbType == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	// Create sheets table
	_, err := DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS sheets (
			id %s,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create sheets table: %v", err)
	}

	// Create review_items table. One row per (user, sheet, problem); the
	// stage is a column, so an item can never exist in two stages at once.
	_, err = DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS review_items (
			id %s,
			user_id TEXT NOT NULL,
			sheet TEXT NOT NULL,
			problem_id BIGINT NOT NULL,
			stage INTEGER NOT NULL DEFAULT 0,
			entered_stage_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			confirmed BOOLEAN NOT NULL DEFAULT false,
			UNIQUE(user_id, sheet, problem_id)
		)
	`, serial))
	if err != nil {
		return fmt.Errorf("failed to create review_items table: %v", err)
	}

	_, err = DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_review_items_user_sheet
		ON review_items(user_id, sheet)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_items index: %v", err)
	}

	// Create user_settings table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_settings (
			user_id TEXT PRIMARY KEY,
			telegram_chat_id BIGINT NOT NULL DEFAULT 0,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			notifications_enabled BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_settings table: %v", err)
	}

	return nil
}

// seedSheets inserts the default sheet catalog plus any extra slugs from the
// SHEETS environment variable. Existing rows are left untouched.
func seedSheets() error {
	seed := make(map[string]string, len(DefaultSheets))
	for slug, name := range DefaultSheets {
		seed[slug] = name
	}

	if extra := os.Getenv("SHEETS"); extra != "" {
		for _, slug := range strings.Split(extra, ",") {
			slug = strings.TrimSpace(slug)
			if slug != "" {
				seed[slug] = slug
			}
		}
	}

	for slug, name := range seed {
		_, err := DB.Exec(
			"INSERT INTO sheets (slug, name) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING",
			slug, name,
		)
		if err != nil {
			return fmt.Errorf("failed to seed sheet %s: %v", slug, err)
		}
	}

	return nil
}
