package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	db            *sql.DB
	dbPath        string
	dbInitialized bool
	mu            sync.Mutex
)

// SetPath overrides the database location. Must be called before GetDB.
func SetPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	dbPath = path
}

// GetDB returns the database connection, initializing if needed
func GetDB() (*sql.DB, error) {
	mu.Lock()
	if db != nil {
		mu.Unlock()
		return db, nil
	}

	path, err := resolvePath()
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	// Ensure the parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// _txlock=immediate makes every transaction take the write lock up front
	db, err = sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Run migrations on first connection (but avoid recursion)
	initialize := !dbInitialized
	dbInitialized = true
	mu.Unlock()

	if initialize {
		if err := InitSchema(); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db != nil {
		err := db.Close()
		db = nil
		dbInitialized = false
		return err
	}
	return nil
}

// GetDBPath returns the path to the database file
func GetDBPath() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	return resolvePath()
}

func resolvePath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".getracker", "getracker.db"), nil
}
