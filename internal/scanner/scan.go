// Package scanner implements the brute-force subdomain scanning engine:
// wildcard detection, bounded-concurrency DNS resolution and per-run
// result aggregation. It has no opinion about where targets, wordlists
// or results come from or go to; those are injected.
package scanner

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoTargets is returned by Run when the target list is empty.
	ErrNoTargets = errors.New("no target domains")

	// ErrWildcardDetected marks a domain whose catch-all DNS makes
	// brute-forcing meaningless. The domain is skipped, not failed.
	ErrWildcardDetected = errors.New("wildcard DNS detected")

	// ErrWordlistUnavailable marks a scan whose candidate wordlist
	// could not be obtained. Fatal to that domain only.
	ErrWordlistUnavailable = errors.New("wordlist unavailable")
)

// ProgressFunc receives (domain, completed, total) scan progress events.
// The runner feeds these to the terminal progress bar, the server to the
// WebSocket hub.
type ProgressFunc func(domain string, completed, total int)

// LogFunc receives human-readable diagnostics (wildcard skips, per-domain
// failures). A nil LogFunc silences diagnostics without changing scan
// behavior.
type LogFunc func(msg string)

// WordSource supplies the candidate labels for one domain scan. It is
// invoked per domain so a changed wordlist file is picked up between
// domains but never mid-scan.
type WordSource func() ([]string, error)

// Options configures a Scanner for one run. The Scanner copies what it
// needs; mutating Options after New has no effect on an in-flight run.
type Options struct {
	// Endpoint is an optional DNS server address. Empty means the
	// system resolver.
	Endpoint string

	// Concurrency caps in-flight lookups within a single domain scan.
	Concurrency int

	// Words supplies candidate labels. Required.
	Words WordSource

	Progress ProgressFunc
	Log      LogFunc

	// Resolver overrides the adapter built from Endpoint. Used by tests.
	Resolver Resolver
}

// Scanner drives wildcard detection and brute-force resolution for a
// set of target domains, one domain at a time.
type Scanner struct {
	resolver    Resolver
	concurrency int
	words       WordSource
	progress    ProgressFunc
	log         LogFunc
	sink        Sink
}

// New builds a Scanner from opts. A zero or negative concurrency falls
// back to a single in-flight lookup.
func New(opts Options) *Scanner {
	res := opts.Resolver
	if res == nil {
		res = NewResolver(opts.Endpoint)
	}
	conc := opts.Concurrency
	if conc < 1 {
		conc = 1
	}
	return &Scanner{
		resolver:    res,
		concurrency: conc,
		words:       opts.Words,
		progress:    opts.Progress,
		log:         opts.Log,
	}
}

// SetSink installs the consumer of the final run result.
func (s *Scanner) SetSink(sink Sink) {
	s.sink = sink
}

func (s *Scanner) reportProgress(domain string, completed, total int) {
	if s.progress != nil {
		s.progress(domain, completed, total)
	}
}

func (s *Scanner) logf(format string, args ...interface{}) {
	if s.log != nil {
		s.log(fmt.Sprintf(format, args...))
	}
}

// ScanDomain brute-forces one domain. It fails with ErrWildcardDetected
// before any candidate lookup when the domain has catch-all DNS, and
// with ErrWordlistUnavailable when the word source fails. Returned
// entries are in lookup completion order, which need not match wordlist
// order.
func (s *Scanner) ScanDomain(ctx context.Context, domain string) ([]Entry, error) {
	if hasWildcard(ctx, s.resolver, domain) {
		return nil, fmt.Errorf("%s: %w", domain, ErrWildcardDetected)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels, err := s.words()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", domain, ErrWordlistUnavailable, err)
	}

	s.reportProgress(domain, 0, len(labels))
	return s.resolvePool(ctx, domain, labels)
}
