package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evanofslack/m365-dns-verify/metrics"
	"github.com/evanofslack/m365-dns-verify/records"
)

// Directory fetches the records the identity provider expects a domain
// to publish.
type Directory interface {
	Records(ctx context.Context, domain string) ([]records.Expected, error)
}

// Resolver observes the currently published record for a label. A nil
// result means the record is absent; resolution failures of any kind
// are folded into absence by the implementation, never surfaced here.
type Resolver interface {
	Lookup(ctx context.Context, rtype records.Type, label string) *records.Resolved
}

type Engine interface {
	Verify(ctx context.Context, domains []string) ([]Result, error)
	VerifyDomain(ctx context.Context, domain string) ([]Result, error)
}

type engine struct {
	directory Directory
	resolver  Resolver
	metrics   *metrics.Metrics
}

func NewEngine(d Directory, r Resolver, m *metrics.Metrics) *engine {
	return &engine{
		directory: d,
		resolver:  r,
		metrics:   m,
	}
}

// Verify checks each domain in input order. A directory failure aborts
// the run since credentials and provider state are global, results
// gathered so far are still returned.
func (e *engine) Verify(ctx context.Context, domains []string) ([]Result, error) {
	results := []Result{}
	for _, domain := range domains {
		rs, err := e.VerifyDomain(ctx, domain)
		results = append(results, rs...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// VerifyDomain fetches the expected record set, resolves each label
// sequentially and emits one Result per mismatch or missing record.
func (e *engine) VerifyDomain(ctx context.Context, domain string) ([]Result, error) {
	expected, err := e.directory.Records(ctx, domain)
	if err != nil {
		e.metrics.IncDirectoryRequest(false)
		return nil, fmt.Errorf("fetch expected records for %s: %w", domain, err)
	}
	e.metrics.IncDirectoryRequest(true)
	slog.Info("Got expected records from directory", "domain", domain, "count", len(expected))

	results := []Result{}
	mismatches := 0
	for _, exp := range expected {
		exp := exp
		actual := e.resolver.Lookup(ctx, exp.Type, exp.Label)
		e.metrics.IncDNSLookup(string(exp.Type), actual != nil)

		outcome := Compare(exp, actual)
		if outcome.Match() {
			continue
		}
		mismatches++
		e.metrics.IncMismatch(string(exp.Type))

		results = append(results, Result{
			Domain:   domain,
			Label:    exp.Label,
			Type:     exp.Type,
			Expected: &exp,
			Actual:   actual,
			Reasons:  outcome.Reasons,
		})
		for _, reason := range outcome.Reasons {
			slog.Warn("Record mismatch", "domain", domain, "label", exp.Label, "type", exp.Type, "reason", reason)
		}
	}

	if mismatches == 0 {
		slog.Info("Domain fully compliant", "domain", domain, "records", len(expected))
	} else {
		slog.Info("Domain has mismatched records", "domain", domain, "mismatches", mismatches)
	}
	return results, nil
}
