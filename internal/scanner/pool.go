package scanner

import (
	"context"
	"sync"
)

// Entry is one discovered subdomain and the records it resolved to.
type Entry struct {
	Subdomain string   `json:"subdomain"`
	IPs       []string `json:"ips"`
}

type lookupResult struct {
	entry    Entry
	resolved bool
}

// resolvePool brute-forces every label against the domain with at most
// s.concurrency lookups in flight. Entries are collected in completion
// order; unresolved candidates contribute nothing. Progress is reported
// every tenth completion and once more at 100% when the pool drains.
// On cancellation the workers stop dispatching and the context error is
// returned with whatever had not yet been collected discarded.
func (s *Scanner) resolvePool(ctx context.Context, domain string, labels []string) ([]Entry, error) {
	total := len(labels)
	if total == 0 {
		return []Entry{}, nil
	}

	workers := s.concurrency
	if workers > total {
		workers = total
	}

	jobs := make(chan string)
	results := make(chan lookupResult)

	go func() {
		defer close(jobs)
		for _, label := range labels {
			select {
			case jobs <- label + "." + domain:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fqdn := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				out, ok := s.resolver.Lookup(ctx, fqdn)
				r := lookupResult{resolved: ok}
				if ok {
					r.entry = Entry{Subdomain: out.FQDN, IPs: out.Records}
				}
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	found := []Entry{}
	completed := 0
	for r := range results {
		if r.resolved {
			found = append(found, r.entry)
		}
		completed++
		if completed%10 == 0 && completed < total {
			s.reportProgress(domain, completed, total)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reportProgress(domain, total, total)
	return found, nil
}
