package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// RunResult aggregates one full run: every target domain mapped to its
// discovered entries (empty, never nil, for skipped or failed domains)
// plus the deduplicated, sorted set of every IP seen.
type RunResult struct {
	Domains   map[string][]Entry `json:"domains"`
	UniqueIPs []string           `json:"unique_ips"`
}

// Sink consumes the final run result for persistence.
type Sink interface {
	Persist(res *RunResult) error
}

// Run scans every domain strictly in sequence, each with its own bounded
// resolution pool. A wildcard or any other per-domain failure is logged
// and recorded as an empty result; it never aborts the run. Cancellation
// is honored between domains and inside the active pool: the run stops,
// the in-flight domain is abandoned, and the results accumulated so far
// are returned without error. The finished result is handed to the sink,
// if one is installed.
func (s *Scanner) Run(ctx context.Context, domains []string) (*RunResult, error) {
	if len(domains) == 0 {
		return nil, ErrNoTargets
	}

	res := &RunResult{Domains: make(map[string][]Entry, len(domains))}

	for _, domain := range domains {
		if ctx.Err() != nil {
			break
		}
		s.reportProgress(domain, 0, 0)

		entries, err := s.ScanDomain(ctx, domain)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Abandoned mid-domain: keep what earlier domains found.
		case errors.Is(err, ErrWildcardDetected):
			s.logf("wildcard detected, skipping %s", domain)
			res.Domains[domain] = []Entry{}
		case err != nil:
			s.logf("scan failed for %s: %v", domain, err)
			res.Domains[domain] = []Entry{}
		default:
			res.Domains[domain] = entries
		}
	}

	res.UniqueIPs = collectUniqueIPs(res.Domains)

	if s.sink != nil {
		if err := s.sink.Persist(res); err != nil {
			return res, fmt.Errorf("persisting results: %w", err)
		}
	}
	return res, nil
}

// collectUniqueIPs returns the sorted union of every IP across all
// domain results.
func collectUniqueIPs(domains map[string][]Entry) []string {
	seen := make(map[string]struct{})
	for _, entries := range domains {
		for _, e := range entries {
			for _, ip := range e.IPs {
				seen[ip] = struct{}{}
			}
		}
	}
	ips := make([]string, 0, len(seen))
	for ip := range seen {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}
