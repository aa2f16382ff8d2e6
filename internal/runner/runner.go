// Package runner wires the scanning engine to the terminal: it loads
// targets, builds the scanner from the config, renders progress, and
// fans results out to the CSV/JSON/SQLite sinks.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/Fussionbart/BigBrother/internal/config"
	"github.com/Fussionbart/BigBrother/internal/export"
	"github.com/Fussionbart/BigBrother/internal/scanner"
	"github.com/Fussionbart/BigBrother/internal/storage"
	"github.com/Fussionbart/BigBrother/internal/wordlist"
)

type Runner struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// wordSource picks the candidate wordlist for this run: an explicit
// file, then the configured level under the wordlist directory, then
// the embedded default.
func (r *Runner) wordSource() scanner.WordSource {
	return func() ([]string, error) {
		if r.cfg.WordlistFile != "" {
			return wordlist.Load(r.cfg.WordlistFile)
		}
		path := wordlist.LevelPath(r.cfg.WordlistDir, r.cfg.WordlistLevel)
		words, err := wordlist.Load(path)
		if err == nil {
			return words, nil
		}
		if os.IsNotExist(err) {
			return wordlist.Builtin(), nil
		}
		return nil, err
	}
}

// Run executes one full scan over every configured target domain.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	targets, err := wordlist.Load(r.cfg.TargetsFile)
	if err != nil {
		return fmt.Errorf("loading targets from %s: %w", r.cfg.TargetsFile, err)
	}

	progress := NewScanProgress()
	start := time.Now()

	sc := scanner.New(scanner.Options{
		Endpoint:    r.cfg.Resolver,
		Concurrency: r.cfg.Threads,
		Words:       r.wordSource(),
		Progress:    progress.Update,
		Log:         progress.Log,
	})

	sinks := export.MultiSink{
		export.New(r.cfg.OutputCSV, r.cfg.UniqueIPsFile, ""),
	}

	var store *storage.SQLiteStorage
	scanID := storage.GenerateScanID()
	if r.cfg.EnableSQLite {
		store, err = storage.New(r.cfg.OutputDir)
		if err != nil {
			// Non-fatal: fall back to file-only output.
			fmt.Printf("Warning: SQLite initialization failed: %v (using file output only)\n", err)
		} else {
			defer store.Close()
			if err := store.BeginScan(scanID, len(targets), start); err == nil {
				sinks = append(sinks, &storage.RunSink{Store: store, ScanID: scanID})
			}
		}
	}
	sc.SetSink(sinks)

	res, err := sc.Run(ctx, targets)
	if err != nil {
		if store != nil {
			store.SetStatus(scanID, "failed")
		}
		return err
	}
	if ctx.Err() != nil && store != nil {
		store.SetStatus(scanID, "cancelled")
	}

	r.printSummary(res, len(targets), time.Since(start), ctx.Err() != nil)
	return nil
}

func (r *Runner) printSummary(res *scanner.RunResult, targets int, elapsed time.Duration, cancelled bool) {
	subdomains := 0
	for _, entries := range res.Domains {
		subdomains += len(entries)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)
	dim := color.New(color.Faint)

	title := "SCAN COMPLETE"
	if cancelled {
		title = "SCAN CANCELLED"
	}

	fmt.Println()
	cyan.Println("╔══════════════════════════════════════════╗")
	cyan.Printf("║  %-40s║\n", title)
	cyan.Println("╠══════════════════════════════════════════╣")
	cyan.Print("║  ")
	white.Printf("%-40s", fmt.Sprintf("Domains: %d  Subdomains: %d  IPs: %d", targets, subdomains, len(res.UniqueIPs)))
	cyan.Println("║")
	cyan.Print("║  ")
	dim.Printf("%-40s", fmt.Sprintf("Time: %s", elapsed.Round(time.Second)))
	cyan.Println("║")
	cyan.Println("╚══════════════════════════════════════════╝")
	fmt.Printf("\nResults: %s, %s\n", r.cfg.OutputCSV, r.cfg.UniqueIPsFile)
}
