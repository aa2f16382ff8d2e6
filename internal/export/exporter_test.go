package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Fussionbart/BigBrother/internal/scanner"
)

func sampleResult() *scanner.RunResult {
	return &scanner.RunResult{
		Domains: map[string][]scanner.Entry{
			"b.test": {
				{Subdomain: "www.b.test", IPs: []string{"192.0.2.1"}},
			},
			"a.test": {
				{Subdomain: "mail.a.test", IPs: []string{"192.0.2.2", "192.0.2.3"}},
				{Subdomain: "www.a.test", IPs: []string{"192.0.2.1"}},
			},
			"skipped.test": {},
		},
		UniqueIPs: []string{"192.0.2.1", "192.0.2.2", "192.0.2.3"},
	}
}

func TestPersistCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "output.csv")
	ipsPath := filepath.Join(dir, "unique_ips.txt")

	if err := New(csvPath, ipsPath, "").Persist(sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}

	want := [][]string{
		{"Main Domain", "Subdomain", "IP"},
		{"a.test", "mail.a.test", "192.0.2.2"},
		{"a.test", "mail.a.test", "192.0.2.3"},
		{"a.test", "www.a.test", "192.0.2.1"},
		{"b.test", "www.b.test", "192.0.2.1"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Fatalf("row %d = %v, want %v", i, rows[i], want[i])
			}
		}
	}
}

func TestPersistUniqueIPs(t *testing.T) {
	dir := t.TempDir()
	ipsPath := filepath.Join(dir, "unique_ips.txt")

	if err := New(filepath.Join(dir, "output.csv"), ipsPath, "").Persist(sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(ipsPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "192.0.2.1\n192.0.2.2\n192.0.2.3"; got != want {
		t.Fatalf("unique ips file = %q, want %q", got, want)
	}
}

func TestPersistJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "results.json")

	e := New(filepath.Join(dir, "output.csv"), filepath.Join(dir, "ips.txt"), jsonPath)
	if err := e.Persist(sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded scanner.RunResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding json dump: %v", err)
	}
	if len(decoded.Domains) != 3 || len(decoded.UniqueIPs) != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestPersistCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "deep", "nested", "output.csv")
	ipsPath := filepath.Join(dir, "deep", "nested", "ips.txt")

	if err := New(csvPath, ipsPath, "").Persist(sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Fatalf("csv not created: %v", err)
	}
}

type failingSink struct{ err error }

func (f *failingSink) Persist(*scanner.RunResult) error { return f.err }

type countingSink struct{ calls int }

func (c *countingSink) Persist(*scanner.RunResult) error {
	c.calls++
	return nil
}

func TestMultiSink(t *testing.T) {
	first := &countingSink{}
	second := &countingSink{}
	if err := (MultiSink{first, second}).Persist(sampleResult()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("calls = %d, %d", first.calls, second.calls)
	}

	boom := errors.New("boom")
	after := &countingSink{}
	err := MultiSink{first, &failingSink{err: boom}, after}.Persist(sampleResult())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if after.calls != 0 {
		t.Fatal("sink after a failure must not run")
	}
}
