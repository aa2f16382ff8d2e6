package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeResolver resolves from a fixed table. With catchAll set it answers
// every name with the same record, imitating wildcard DNS. It tracks the
// peak number of in-flight lookups.
type fakeResolver struct {
	mu          sync.Mutex
	records     map[string][]string
	catchAll    []string
	delay       time.Duration
	lookups     int
	inflight    int
	maxInflight int
}

func (f *fakeResolver) Lookup(ctx context.Context, fqdn string) (Outcome, bool) {
	f.mu.Lock()
	f.lookups++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if recs, ok := f.records[fqdn]; ok {
		return Outcome{FQDN: fqdn, Records: recs}, true
	}
	if f.catchAll != nil {
		return Outcome{FQDN: fqdn, Records: f.catchAll}, true
	}
	return Outcome{}, false
}

func (f *fakeResolver) stats() (lookups, maxInflight int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups, f.maxInflight
}

// rotatingResolver answers every name but with a different record each
// time, like a load balancer behind a wildcard.
type rotatingResolver struct {
	mu sync.Mutex
	n  int
}

func (r *rotatingResolver) Lookup(ctx context.Context, fqdn string) (Outcome, bool) {
	r.mu.Lock()
	r.n++
	n := r.n
	r.mu.Unlock()
	return Outcome{FQDN: fqdn, Records: []string{fmt.Sprintf("10.0.0.%d", n)}}, true
}

func wordsOf(labels ...string) WordSource {
	return func() ([]string, error) { return labels, nil }
}

func TestHasWildcard(t *testing.T) {
	ctx := context.Background()

	t.Run("no answers", func(t *testing.T) {
		res := &fakeResolver{}
		if hasWildcard(ctx, res, "example.test") {
			t.Fatal("unresolved probes reported as wildcard")
		}
		if n, _ := res.stats(); n != wildcardProbes {
			t.Fatalf("probes sent = %d, want %d", n, wildcardProbes)
		}
	})

	t.Run("identical answers", func(t *testing.T) {
		res := &fakeResolver{catchAll: []string{"203.0.113.7"}}
		if !hasWildcard(ctx, res, "example.test") {
			t.Fatal("catch-all zone not detected")
		}
	})

	t.Run("rotating answers", func(t *testing.T) {
		if hasWildcard(ctx, &rotatingResolver{}, "example.test") {
			t.Fatal("differing probe answers reported as wildcard")
		}
	})
}

func TestScanDomainWildcardSkipsLookups(t *testing.T) {
	res := &fakeResolver{catchAll: []string{"203.0.113.7"}}
	s := New(Options{Concurrency: 10, Words: wordsOf("www", "mail"), Resolver: res})

	_, err := s.ScanDomain(context.Background(), "wild.test")
	if !errors.Is(err, ErrWildcardDetected) {
		t.Fatalf("err = %v, want ErrWildcardDetected", err)
	}
	if n, _ := res.stats(); n != wildcardProbes {
		t.Fatalf("lookups = %d, want only the %d wildcard probes", n, wildcardProbes)
	}
}

func TestScanDomainWordlistError(t *testing.T) {
	s := New(Options{
		Words:    func() ([]string, error) { return nil, errors.New("read failed") },
		Resolver: &fakeResolver{},
	})

	_, err := s.ScanDomain(context.Background(), "example.test")
	if !errors.Is(err, ErrWordlistUnavailable) {
		t.Fatalf("err = %v, want ErrWordlistUnavailable", err)
	}
}

func TestScanDomainFindsSubdomains(t *testing.T) {
	res := &fakeResolver{records: map[string][]string{
		"www.example.test":  {"192.0.2.1"},
		"mail.example.test": {"192.0.2.2", "192.0.2.3"},
	}}
	s := New(Options{
		Concurrency: 4,
		Words:       wordsOf("www", "mail", "ftp", "dev"),
		Resolver:    res,
	})

	entries, err := s.ScanDomain(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("ScanDomain: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	got := make(map[string][]string)
	for _, e := range entries {
		got[e.Subdomain] = e.IPs
	}
	if len(got["www.example.test"]) != 1 || got["www.example.test"][0] != "192.0.2.1" {
		t.Errorf("www entry = %v", got["www.example.test"])
	}
	if len(got["mail.example.test"]) != 2 {
		t.Errorf("mail entry = %v", got["mail.example.test"])
	}
}

func TestResolvePoolConcurrencyBound(t *testing.T) {
	const workers = 5
	labels := make([]string, 60)
	for i := range labels {
		labels[i] = fmt.Sprintf("sub%02d", i)
	}
	res := &fakeResolver{delay: 2 * time.Millisecond}
	s := New(Options{Concurrency: workers, Words: wordsOf(labels...), Resolver: res})

	if _, err := s.ScanDomain(context.Background(), "example.test"); err != nil {
		t.Fatalf("ScanDomain: %v", err)
	}

	lookups, peak := res.stats()
	if want := len(labels) + wildcardProbes; lookups != want {
		t.Errorf("lookups = %d, want %d", lookups, want)
	}
	if peak > workers {
		t.Errorf("peak in-flight lookups = %d, cap is %d", peak, workers)
	}
}

func TestProgressEvents(t *testing.T) {
	labels := make([]string, 25)
	for i := range labels {
		labels[i] = fmt.Sprintf("sub%02d", i)
	}

	var events [][2]int
	s := New(Options{
		Concurrency: 8,
		Words:       wordsOf(labels...),
		Resolver:    &fakeResolver{},
		Progress: func(domain string, completed, total int) {
			events = append(events, [2]int{completed, total})
		},
	})

	if _, err := s.ScanDomain(context.Background(), "example.test"); err != nil {
		t.Fatalf("ScanDomain: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("no progress events")
	}
	if events[0] != [2]int{0, 25} {
		t.Errorf("first event = %v, want (0, 25)", events[0])
	}
	finals := 0
	prev := -1
	for _, ev := range events {
		if ev[1] != 25 {
			t.Errorf("event total = %d, want 25", ev[1])
		}
		if ev[0] < prev {
			t.Errorf("completed went backwards: %v", events)
		}
		prev = ev[0]
		if ev[0] == 25 {
			finals++
		}
	}
	if finals != 1 {
		t.Errorf("final (25, 25) event seen %d times, want exactly once", finals)
	}
}

func TestRunNoTargets(t *testing.T) {
	res := &fakeResolver{}
	s := New(Options{Words: wordsOf("www"), Resolver: res})

	if _, err := s.Run(context.Background(), nil); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("err = %v, want ErrNoTargets", err)
	}
	if n, _ := res.stats(); n != 0 {
		t.Fatalf("lookups = %d before failing, want 0", n)
	}
}

func TestRunAggregatesAcrossDomains(t *testing.T) {
	res := &fakeResolver{records: map[string][]string{
		"www.a.test":  {"192.0.2.1"},
		"mail.a.test": {"192.0.2.2"},
		"www.b.test":  {"192.0.2.1"}, // shared with a.test, must dedupe
	}}
	var logs []string
	s := New(Options{
		Concurrency: 4,
		Words:       wordsOf("www", "mail", "ftp"),
		Resolver:    res,
		Log:         func(msg string) { logs = append(logs, msg) },
	})

	out, err := s.Run(context.Background(), []string{"a.test", "b.test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Domains) != 2 {
		t.Fatalf("domains = %d, want 2", len(out.Domains))
	}
	if len(out.Domains["a.test"]) != 2 || len(out.Domains["b.test"]) != 1 {
		t.Fatalf("entries a=%d b=%d, want 2 and 1",
			len(out.Domains["a.test"]), len(out.Domains["b.test"]))
	}
	want := []string{"192.0.2.1", "192.0.2.2"}
	if len(out.UniqueIPs) != len(want) {
		t.Fatalf("unique ips = %v, want %v", out.UniqueIPs, want)
	}
	for i, ip := range want {
		if out.UniqueIPs[i] != ip {
			t.Fatalf("unique ips = %v, want %v (sorted)", out.UniqueIPs, want)
		}
	}
	if len(logs) != 0 {
		t.Errorf("unexpected diagnostics: %v", logs)
	}
}

// wildcardFor answers with a fixed record for any name under one domain
// and from a table for everything else.
type wildcardFor struct {
	suffix string
	inner  *fakeResolver
}

func (w *wildcardFor) Lookup(ctx context.Context, fqdn string) (Outcome, bool) {
	if strings.HasSuffix(fqdn, w.suffix) {
		return Outcome{FQDN: fqdn, Records: []string{"203.0.113.9"}}, true
	}
	return w.inner.Lookup(ctx, fqdn)
}

func TestRunSkipsWildcardDomain(t *testing.T) {
	res := &wildcardFor{
		suffix: ".a.test",
		inner: &fakeResolver{records: map[string][]string{
			"www.b.test": {"1.2.3.4"},
		}},
	}
	var logs []string
	s := New(Options{
		Concurrency: 4,
		Words:       wordsOf("www", "mail"),
		Resolver:    res,
		Log:         func(msg string) { logs = append(logs, msg) },
	})

	out, err := s.Run(context.Background(), []string{"a.test", "b.test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, ok := out.Domains["a.test"]
	if !ok {
		t.Fatal("wildcard domain missing from result")
	}
	if len(entries) != 0 {
		t.Fatalf("wildcard domain entries = %v, want empty", entries)
	}
	if len(out.Domains["b.test"]) != 1 || out.Domains["b.test"][0].Subdomain != "www.b.test" {
		t.Fatalf("b.test entries = %v", out.Domains["b.test"])
	}
	if len(out.UniqueIPs) != 1 || out.UniqueIPs[0] != "1.2.3.4" {
		t.Fatalf("unique ips = %v, wildcard answers must not leak in", out.UniqueIPs)
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "a.test") {
		t.Errorf("logs = %v, want one wildcard skip for a.test", logs)
	}
}

// cancelOn cancels the run the first time a name under the given domain
// is looked up.
type cancelOn struct {
	suffix string
	cancel context.CancelFunc
	inner  *fakeResolver
	once   sync.Once
}

func (c *cancelOn) Lookup(ctx context.Context, fqdn string) (Outcome, bool) {
	if strings.HasSuffix(fqdn, c.suffix) {
		c.once.Do(c.cancel)
		return Outcome{}, false
	}
	return c.inner.Lookup(ctx, fqdn)
}

func TestRunCancellationKeepsEarlierDomains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res := &cancelOn{
		suffix: ".b.test",
		cancel: cancel,
		inner: &fakeResolver{records: map[string][]string{
			"www.a.test": {"192.0.2.1"},
		}},
	}
	s := New(Options{
		Concurrency: 4,
		Words:       wordsOf("www", "mail", "ftp"),
		Resolver:    res,
	})

	out, err := s.Run(ctx, []string{"a.test", "b.test", "c.test"})
	if err != nil {
		t.Fatalf("Run after cancellation: %v", err)
	}

	if len(out.Domains["a.test"]) != 1 {
		t.Fatalf("a.test entries = %v, want the pre-cancellation result", out.Domains["a.test"])
	}
	if _, ok := out.Domains["b.test"]; ok {
		t.Error("domain interrupted mid-scan must be abandoned, not recorded")
	}
	if _, ok := out.Domains["c.test"]; ok {
		t.Error("domain after cancellation must not be scanned")
	}
	if len(out.UniqueIPs) != 1 || out.UniqueIPs[0] != "192.0.2.1" {
		t.Fatalf("unique ips = %v", out.UniqueIPs)
	}
}

type captureSink struct {
	res *RunResult
	err error
}

func (c *captureSink) Persist(res *RunResult) error {
	c.res = res
	return c.err
}

func TestRunSink(t *testing.T) {
	s := New(Options{
		Words:    wordsOf("www"),
		Resolver: &fakeResolver{records: map[string][]string{"www.a.test": {"192.0.2.1"}}},
	})

	sink := &captureSink{}
	s.SetSink(sink)
	out, err := s.Run(context.Background(), []string{"a.test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.res != out {
		t.Fatal("sink did not receive the run result")
	}

	s.SetSink(&captureSink{err: errors.New("disk full")})
	out, err = s.Run(context.Background(), []string{"a.test"})
	if err == nil {
		t.Fatal("sink failure not surfaced")
	}
	if out == nil || len(out.Domains["a.test"]) != 1 {
		t.Fatal("scan results must survive a sink failure")
	}
}

func TestEmptyWordlist(t *testing.T) {
	var events [][2]int
	s := New(Options{
		Words:    wordsOf(),
		Resolver: &fakeResolver{},
		Progress: func(domain string, completed, total int) {
			events = append(events, [2]int{completed, total})
		},
	})

	entries, err := s.ScanDomain(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("ScanDomain: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("entries = %v, want empty non-nil slice", entries)
	}
	if len(events) != 1 || events[0] != [2]int{0, 0} {
		t.Fatalf("events = %v, want a single (0, 0)", events)
	}
}
