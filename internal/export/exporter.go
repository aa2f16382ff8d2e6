// Package export writes run results to their persistence formats: a CSV
// with one row per (domain, subdomain, ip) triple, a sorted unique-IP
// text file, and a JSON dump of the whole result.
package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Fussionbart/BigBrother/internal/scanner"
)

// Exporter implements scanner.Sink by writing every output file on
// Persist.
type Exporter struct {
	csvPath       string
	uniqueIPsPath string
	jsonPath      string
}

// New creates an exporter. jsonPath may be empty to skip the JSON dump.
func New(csvPath, uniqueIPsPath, jsonPath string) *Exporter {
	return &Exporter{
		csvPath:       csvPath,
		uniqueIPsPath: uniqueIPsPath,
		jsonPath:      jsonPath,
	}
}

// Persist writes all configured outputs for the run.
func (e *Exporter) Persist(res *scanner.RunResult) error {
	if err := e.writeCSV(res); err != nil {
		return err
	}
	if err := e.writeUniqueIPs(res); err != nil {
		return err
	}
	if e.jsonPath != "" {
		return e.writeJSON(res)
	}
	return nil
}

// writeCSV emits one row per (domain, subdomain, ip). Domains are
// ordered for stable output; entries keep their completion order.
func (e *Exporter) writeCSV(res *scanner.RunResult) error {
	if err := ensureDir(e.csvPath); err != nil {
		return err
	}
	f, err := os.Create(e.csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Main Domain", "Subdomain", "IP"}); err != nil {
		return err
	}

	domains := make([]string, 0, len(res.Domains))
	for d := range res.Domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		for _, entry := range res.Domains[domain] {
			for _, ip := range entry.IPs {
				if err := w.Write([]string{domain, entry.Subdomain, ip}); err != nil {
					return err
				}
			}
		}
	}
	w.Flush()
	return w.Error()
}

func (e *Exporter) writeUniqueIPs(res *scanner.RunResult) error {
	if err := ensureDir(e.uniqueIPsPath); err != nil {
		return err
	}
	// UniqueIPs is already sorted and deduplicated by the run
	// orchestrator.
	data := strings.Join(res.UniqueIPs, "\n")
	return os.WriteFile(e.uniqueIPsPath, []byte(data), 0644)
}

func (e *Exporter) writeJSON(res *scanner.RunResult) error {
	if err := ensureDir(e.jsonPath); err != nil {
		return err
	}
	f, err := os.Create(e.jsonPath)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// MultiSink fans a run result out to several sinks in order, stopping at
// the first failure.
type MultiSink []scanner.Sink

func (m MultiSink) Persist(res *scanner.RunResult) error {
	for _, s := range m {
		if err := s.Persist(res); err != nil {
			return err
		}
	}
	return nil
}
