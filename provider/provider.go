package provider

import (
	"context"

	"github.com/libdns/libdns"
)

// Provider writes records to an authoritative DNS host. Records use the
// libdns form, the common currency of DNS provider plugins.
type Provider interface {
	GetRecords(ctx context.Context, zone string) ([]libdns.Record, error)
	AppendRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error)
	SetRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error)
}
