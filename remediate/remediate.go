package remediate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/evanofslack/m365-dns-verify/provider"
	"github.com/evanofslack/m365-dns-verify/records"
	"github.com/evanofslack/m365-dns-verify/verify"
	"github.com/libdns/libdns"
)

type Results struct {
	Created  []libdns.Record
	Updated  []libdns.Record
	Failures []OperationResult
}

type OperationResult struct {
	Record libdns.Record
	Op     string
	Error  string
}

// Apply pushes the expected record for every verification failure to
// the DNS provider. The provider's own record set decides between
// create and update, since what resolution saw may lag what the
// provider holds. Individual provider failures are collected rather
// than aborting the batch.
func Apply(ctx context.Context, prov provider.Provider, results []verify.Result, dryRun bool) Results {
	out := Results{}
	existing := map[string][]libdns.RR{}

	for _, res := range results {
		if res.Expected == nil {
			continue
		}
		rec, err := records.ToLibdns(*res.Expected)
		if err != nil {
			slog.Error("Failed to convert record", "domain", res.Domain, "label", res.Label, "error", err)
			out.Failures = append(out.Failures, OperationResult{Op: "convert", Error: err.Error()})
			continue
		}

		zone := res.Expected.Domain
		update, err := recordExists(ctx, prov, existing, zone, rec)
		if err != nil {
			// Provider listing failed, fall back to what resolution saw.
			slog.Warn("fail read provider records, deciding from resolution", "zone", zone, "error", err)
			update = res.Actual != nil
		}

		op := "create"
		if update {
			op = "update"
		}

		if dryRun {
			slog.Info("Dry run mode - would apply record", "op", op, "zone", zone, "label", res.Label, "type", res.Type)
			if update {
				out.Updated = append(out.Updated, rec)
			} else {
				out.Created = append(out.Created, rec)
			}
			continue
		}

		slog.Debug("Start execute record from plan", "op", op, "zone", zone, "label", res.Label, "type", res.Type)
		if update {
			if _, err := prov.SetRecords(ctx, zone, []libdns.Record{rec}); err != nil {
				slog.Error("Failed to update record", "label", res.Label, "error", err)
				out.Failures = append(out.Failures, OperationResult{Record: rec, Op: op, Error: err.Error()})
			} else {
				out.Updated = append(out.Updated, rec)
			}
		} else {
			if _, err := prov.AppendRecords(ctx, zone, []libdns.Record{rec}); err != nil {
				slog.Error("Failed to create record", "label", res.Label, "error", err)
				out.Failures = append(out.Failures, OperationResult{Record: rec, Op: op, Error: err.Error()})
			} else {
				out.Created = append(out.Created, rec)
			}
		}
	}
	return out
}

// recordExists reports whether the provider already holds a record of
// the same type and name. Zone listings are fetched once per zone.
func recordExists(ctx context.Context, prov provider.Provider, cache map[string][]libdns.RR, zone string, rec libdns.Record) (bool, error) {
	rrs, ok := cache[zone]
	if !ok {
		got, err := prov.GetRecords(ctx, zone)
		if err != nil {
			return false, err
		}
		rrs = []libdns.RR{}
		for _, r := range got {
			rrs = append(rrs, r.RR())
		}
		cache[zone] = rrs
	}

	want := rec.RR()
	for _, rr := range rrs {
		if rr.Type == want.Type && equalName(rr.Name, want.Name) {
			return true, nil
		}
	}
	return false, nil
}

func equalName(a, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}
