package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DB_TYPE selects the
// backend: "sqlite" (default, file under data/) or "postgres" (DATABASE_URL).
func Connect() error {
	if isSQLite() {
		return connectSQLite()
	}
	return connectPostgres()
}

func connectSQLite() error {
	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "prepbot.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

func connectPostgres() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	DB = db
	// Postgres schemas are provisioned by migration scripts
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// isSQLite reports whether the configured backend is SQLite
func isSQLite() bool {
	dbType := os.Getenv("DB_TYPE")
	return dbType == "" || dbType == "sqlite"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create users table
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_id INTEGER UNIQUE NOT NULL,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			is_admin BOOLEAN DEFAULT false,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			items_per_day INTEGER DEFAULT 20,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_active_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Create user_progress table. Stage and item_type hold their enum
	// string values; review_history is a JSON blob.
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			item_type TEXT NOT NULL,
			interval_days REAL DEFAULT 1,
			ease_factor REAL DEFAULT 2.5,
			repetitions INTEGER DEFAULT 0,
			stage TEXT DEFAULT 'new',
			next_review_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_reviewed_at TIMESTAMP,
			total_reviews INTEGER DEFAULT 0,
			correct_reviews INTEGER DEFAULT 0,
			difficulty_level REAL DEFAULT 1.0,
			review_history TEXT DEFAULT '[]',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, item_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_progress table: %v", err)
	}

	// Create quiz_results table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS quiz_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			score_percentage REAL NOT NULL,
			time_taken REAL NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			weak_areas TEXT DEFAULT '[]',
			strong_areas TEXT DEFAULT '[]',
			completed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create quiz_results table: %v", err)
	}

	return nil
}
