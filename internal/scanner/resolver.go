package scanner

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Per-query timeout and total lifetime of one lookup when a custom
// resolver endpoint is configured. The system resolver keeps its
// platform defaults.
const (
	queryTimeout   = 5 * time.Second
	lookupLifetime = 10 * time.Second
)

// Outcome is the result of a single successful lookup: the queried name
// and the records it resolved to (A addresses, or the CNAME target when
// no A record exists).
type Outcome struct {
	FQDN    string
	Records []string
}

// Resolver performs a single DNS lookup. The boolean reports whether the
// name resolved; every lookup failure (NXDOMAIN, SERVFAIL, timeout, ...)
// is collapsed into an unresolved outcome, never an error.
type Resolver interface {
	Lookup(ctx context.Context, fqdn string) (Outcome, bool)
}

// NewResolver returns a Resolver for the given endpoint. An empty
// endpoint selects the system resolver; otherwise endpoint is a DNS
// server address ("1.1.1.1" or "1.1.1.1:53") queried directly.
func NewResolver(endpoint string) Resolver {
	if endpoint == "" {
		return &systemResolver{r: net.DefaultResolver}
	}
	if _, _, err := net.SplitHostPort(endpoint); err != nil {
		endpoint = net.JoinHostPort(endpoint, "53")
	}
	return &serverResolver{
		client: &dns.Client{Timeout: queryTimeout},
		addr:   endpoint,
	}
}

// systemResolver uses the platform resolver with its default timeouts.
type systemResolver struct {
	r *net.Resolver
}

func (s *systemResolver) Lookup(ctx context.Context, fqdn string) (Outcome, bool) {
	if ips, err := s.r.LookupHost(ctx, fqdn); err == nil && len(ips) > 0 {
		return Outcome{FQDN: fqdn, Records: ips}, true
	}
	cname, err := s.r.LookupCNAME(ctx, fqdn)
	if err != nil || cname == "" {
		return Outcome{}, false
	}
	return Outcome{FQDN: fqdn, Records: []string{strings.TrimSuffix(cname, ".")}}, true
}

// serverResolver queries a single configured DNS server directly.
type serverResolver struct {
	client *dns.Client
	addr   string
}

func (s *serverResolver) Lookup(ctx context.Context, fqdn string) (Outcome, bool) {
	ctx, cancel := context.WithTimeout(ctx, lookupLifetime)
	defer cancel()

	if recs := s.query(ctx, fqdn, dns.TypeA); len(recs) > 0 {
		return Outcome{FQDN: fqdn, Records: recs}, true
	}
	if recs := s.query(ctx, fqdn, dns.TypeCNAME); len(recs) > 0 {
		return Outcome{FQDN: fqdn, Records: recs}, true
	}
	return Outcome{}, false
}

func (s *serverResolver) query(ctx context.Context, name string, qtype uint16) []string {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)

	resp, _, err := s.client.ExchangeContext(ctx, m, s.addr)
	if err != nil || resp.Rcode != dns.RcodeSuccess {
		return nil
	}

	var recs []string
	for _, ans := range resp.Answer {
		switch rr := ans.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				recs = append(recs, rr.A.String())
			}
		case *dns.CNAME:
			if qtype == dns.TypeCNAME {
				recs = append(recs, strings.TrimSuffix(rr.Target, "."))
			}
		}
	}
	return recs
}
