package scanner

import (
	"context"
	"math/rand"
	"slices"
	"sort"
)

const (
	wildcardProbes = 3
	probeLength    = 12
)

const probeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomLabel(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = probeAlphabet[rand.Intn(len(probeAlphabet))]
	}
	return string(b)
}

// hasWildcard probes the domain with random labels that should not
// exist. If every probe resolves to the identical record set, the zone
// answers for anything and brute-force results would be meaningless.
// This is a heuristic: an intermittent or load-balanced wildcard answer
// can be misclassified either way.
func hasWildcard(ctx context.Context, res Resolver, domain string) bool {
	probes := make([][]string, 0, wildcardProbes)
	for i := 0; i < wildcardProbes; i++ {
		out, ok := res.Lookup(ctx, randomLabel(probeLength)+"."+domain)
		if !ok {
			probes = append(probes, nil)
			continue
		}
		recs := slices.Clone(out.Records)
		sort.Strings(recs)
		probes = append(probes, recs)
	}

	// All probes unresolved: definitely no catch-all.
	resolved := 0
	for _, p := range probes {
		if p != nil {
			resolved++
		}
	}
	if resolved == 0 {
		return false
	}

	// All probes identical (a nil probe never equals a resolved one,
	// since resolved record sets are non-empty): catch-all.
	for _, p := range probes[1:] {
		if !slices.Equal(probes[0], p) {
			return false
		}
	}
	return true
}
