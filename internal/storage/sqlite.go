// Package storage persists scan history to SQLite so past runs can be
// listed and queried from the dashboard.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Fussionbart/BigBrother/internal/scanner"
)

// SQLiteStorage persists run results and scan metadata.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// ScanRecord is one row of scan history.
type ScanRecord struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Targets     int       `json:"targets"`
	Subdomains  int       `json:"subdomains"`
	UniqueIPs   int       `json:"unique_ips"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// ResultRow is one persisted (domain, subdomain, ip) triple.
type ResultRow struct {
	Domain    string `json:"domain"`
	Subdomain string `json:"subdomain"`
	IP        string `json:"ip"`
}

// GenerateScanID returns a new unique scan identifier.
func GenerateScanID() string {
	return uuid.NewString()
}

// New opens (or creates) the scan database in baseDir. dbPath can be
// ":memory:" for testing.
func New(baseDir string) (*SQLiteStorage, error) {
	dbPath := baseDir
	if dbPath != ":memory:" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
		dbPath = filepath.Join(baseDir, "bigbrother.db")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// WAL mode for concurrent dashboard reads during a scan
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStorage{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		status TEXT DEFAULT 'running',
		targets INTEGER DEFAULT 0,
		subdomains INTEGER DEFAULT 0,
		unique_ips INTEGER DEFAULT 0,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		subdomain TEXT NOT NULL,
		ip TEXT NOT NULL,
		FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_results_scan ON results(scan_id);
	CREATE INDEX IF NOT EXISTS idx_results_domain ON results(domain);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginScan records a new scan in the running state.
func (s *SQLiteStorage) BeginScan(scanID string, targets int, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO scans (id, status, targets, started_at) VALUES (?, 'running', ?, ?)`,
		scanID, targets, startedAt.UTC(),
	)
	return err
}

// SaveRun stores the result rows of a finished run and marks the scan
// with its final status.
func (s *SQLiteStorage) SaveRun(scanID string, res *scanner.RunResult, status string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO results (scan_id, domain, subdomain, ip) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	subdomains := 0
	for domain, entries := range res.Domains {
		subdomains += len(entries)
		for _, entry := range entries {
			for _, ip := range entry.IPs {
				if _, err := stmt.Exec(scanID, domain, entry.Subdomain, ip); err != nil {
					return err
				}
			}
		}
	}

	_, err = tx.Exec(
		`UPDATE scans SET status = ?, subdomains = ?, unique_ips = ?, completed_at = ? WHERE id = ?`,
		status, subdomains, len(res.UniqueIPs), time.Now().UTC(), scanID,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// SetStatus updates a scan's final status (failed, cancelled).
func (s *SQLiteStorage) SetStatus(scanID, status string) error {
	_, err := s.db.Exec(
		`UPDATE scans SET status = ?, completed_at = ? WHERE id = ?`,
		status, time.Now().UTC(), scanID,
	)
	return err
}

// ListScans returns scan history, newest first.
func (s *SQLiteStorage) ListScans(limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, status, targets, subdomains, unique_ips, started_at, COALESCE(completed_at, started_at)
		 FROM scans ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []ScanRecord
	for rows.Next() {
		var r ScanRecord
		if err := rows.Scan(&r.ID, &r.Status, &r.Targets, &r.Subdomains, &r.UniqueIPs, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		scans = append(scans, r)
	}
	return scans, rows.Err()
}

// GetScan returns one scan record by ID.
func (s *SQLiteStorage) GetScan(scanID string) (*ScanRecord, error) {
	var r ScanRecord
	err := s.db.QueryRow(
		`SELECT id, status, targets, subdomains, unique_ips, started_at, COALESCE(completed_at, started_at)
		 FROM scans WHERE id = ?`, scanID).
		Scan(&r.ID, &r.Status, &r.Targets, &r.Subdomains, &r.UniqueIPs, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ScanResults returns every persisted triple of one scan.
func (s *SQLiteStorage) ScanResults(scanID string) ([]ResultRow, error) {
	rows, err := s.db.Query(
		`SELECT domain, subdomain, ip FROM results WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.Domain, &r.Subdomain, &r.IP); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// RunSink adapts SQLiteStorage to scanner.Sink for one scan.
type RunSink struct {
	Store  *SQLiteStorage
	ScanID string
	Status string
}

func (r *RunSink) Persist(res *scanner.RunResult) error {
	status := r.Status
	if status == "" {
		status = "completed"
	}
	return r.Store.SaveRun(r.ScanID, res, status)
}
