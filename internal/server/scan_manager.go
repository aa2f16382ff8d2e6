package server

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/Fussionbart/BigBrother/internal/config"
	"github.com/Fussionbart/BigBrother/internal/export"
	"github.com/Fussionbart/BigBrother/internal/scanner"
	"github.com/Fussionbart/BigBrother/internal/storage"
	"github.com/Fussionbart/BigBrother/internal/wordlist"
)

// ScanStatus represents the state of a scan
type ScanStatus string

const (
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// Scan is one scan launched from the dashboard.
type Scan struct {
	ID            string     `json:"id"`
	Targets       []string   `json:"targets"`
	Status        ScanStatus `json:"status"`
	CurrentDomain string     `json:"current_domain,omitempty"`
	Progress      int        `json:"progress"` // 0-100
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         string     `json:"error,omitempty"`

	cancel  context.CancelFunc
	started int // domains whose scan has begun
}

// ScanManager owns the lifecycle of dashboard-launched scans. Only one
// scan runs at a time; the engine itself is strictly sequential across
// domains, so a second concurrent run would only fight over resolver
// capacity.
type ScanManager struct {
	mu      sync.RWMutex
	scans   map[string]*Scan
	running string

	cfg   *config.Config
	store *storage.SQLiteStorage
	hub   *WebSocketHub
}

// NewScanManager creates a manager backed by the scan database in the
// configured output directory.
func NewScanManager(cfg *config.Config, hub *WebSocketHub) *ScanManager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := &ScanManager{
		scans: make(map[string]*Scan),
		cfg:   cfg,
		hub:   hub,
	}
	store, err := storage.New(cfg.OutputDir)
	if err != nil {
		log.Printf("[warning] scan database unavailable: %v (history disabled)", err)
	} else {
		m.store = store
	}
	return m
}

// Store exposes the scan database to the handlers (may be nil).
func (m *ScanManager) Store() *storage.SQLiteStorage {
	return m.store
}

// StartScan launches a scan over the given targets. Threads and
// resolver fall back to the manager's config when zero-valued.
func (m *ScanManager) StartScan(targets []string, threads int, resolver string) (*Scan, error) {
	if len(targets) == 0 {
		return nil, scanner.ErrNoTargets
	}
	if threads == 0 {
		threads = m.cfg.Threads
	}
	if resolver == "" {
		resolver = m.cfg.Resolver
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running != "" {
		return nil, fmt.Errorf("scan %s is already running", m.running)
	}

	ctx, cancel := context.WithCancel(context.Background())
	scan := &Scan{
		ID:        storage.GenerateScanID(),
		Targets:   targets,
		Status:    StatusRunning,
		StartedAt: time.Now(),
		cancel:    cancel,
	}
	m.scans[scan.ID] = scan
	m.running = scan.ID

	go m.execute(ctx, scan, threads, resolver)
	return scan, nil
}

func (m *ScanManager) execute(ctx context.Context, scan *Scan, threads int, resolver string) {
	cfg := m.cfg

	words := func() ([]string, error) {
		if cfg.WordlistFile != "" {
			return wordlist.Load(cfg.WordlistFile)
		}
		if ws, err := wordlist.Load(wordlist.LevelPath(cfg.WordlistDir, cfg.WordlistLevel)); err == nil {
			return ws, nil
		}
		return wordlist.Builtin(), nil
	}

	sc := scanner.New(scanner.Options{
		Endpoint:    resolver,
		Concurrency: threads,
		Words:       words,
		Progress:    m.progressFunc(scan),
		Log:         m.logFunc(scan),
	})

	outDir := filepath.Join(cfg.OutputDir, scan.ID)
	sinks := export.MultiSink{
		export.New(
			filepath.Join(outDir, "output.csv"),
			filepath.Join(outDir, "unique_ips.txt"),
			filepath.Join(outDir, "results.json"),
		),
	}
	if m.store != nil {
		if err := m.store.BeginScan(scan.ID, len(scan.Targets), scan.StartedAt); err == nil {
			sinks = append(sinks, &storage.RunSink{Store: m.store, ScanID: scan.ID})
		}
	}
	sc.SetSink(sinks)

	_, err := sc.Run(ctx, scan.Targets)

	m.mu.Lock()
	now := time.Now()
	scan.CompletedAt = &now
	switch {
	case err != nil:
		scan.Status = StatusFailed
		scan.Error = err.Error()
	case ctx.Err() != nil:
		scan.Status = StatusCancelled
	default:
		scan.Status = StatusCompleted
		scan.Progress = 100
	}
	status := scan.Status
	m.running = ""
	m.mu.Unlock()

	if m.store != nil && status != StatusCompleted {
		m.store.SetStatus(scan.ID, string(status))
	}
	m.hub.Broadcast(WebSocketMessage{Type: "scan_status", Data: scan})
}

// progressFunc converts engine progress events into an overall percent
// and broadcasts them.
func (m *ScanManager) progressFunc(scan *Scan) scanner.ProgressFunc {
	return func(domain string, completed, total int) {
		m.mu.Lock()
		if completed == 0 && total == 0 {
			scan.CurrentDomain = domain
			scan.started++
		} else if total > 0 {
			domainPct := completed * 100 / total
			scan.Progress = ((scan.started-1)*100 + domainPct) / len(scan.Targets)
		}
		overall := scan.Progress
		m.mu.Unlock()

		m.hub.Broadcast(WebSocketMessage{Type: "progress", Data: ginH{
			"scan_id":         scan.ID,
			"domain":          domain,
			"completed":       completed,
			"total":           total,
			"overall_percent": overall,
		}})
	}
}

func (m *ScanManager) logFunc(scan *Scan) scanner.LogFunc {
	return func(msg string) {
		m.hub.Broadcast(WebSocketMessage{Type: "log", Data: ginH{
			"scan_id": scan.ID,
			"message": msg,
		}})
	}
}

// ginH mirrors gin.H without importing gin into the manager.
type ginH map[string]interface{}

// Get returns a scan by ID.
func (m *ScanManager) Get(id string) (*Scan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scans[id]
	return s, ok
}

// List returns all in-memory scans, newest first.
func (m *ScanManager) List() []*Scan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scans := make([]*Scan, 0, len(m.scans))
	for _, s := range m.scans {
		scans = append(scans, s)
	}
	for i := 0; i < len(scans); i++ {
		for j := i + 1; j < len(scans); j++ {
			if scans[j].StartedAt.After(scans[i].StartedAt) {
				scans[i], scans[j] = scans[j], scans[i]
			}
		}
	}
	return scans
}

// Cancel requests cooperative cancellation of a running scan.
func (m *ScanManager) Cancel(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scans[id]
	if !ok || s.Status != StatusRunning {
		return false
	}
	s.cancel()
	return true
}

// Close releases the scan database.
func (m *ScanManager) Close() {
	if m.store != nil {
		m.store.Close()
	}
}
