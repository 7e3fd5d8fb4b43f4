package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/evanofslack/m365-dns-verify/config"
	"github.com/evanofslack/m365-dns-verify/metrics"
	"github.com/libdns/libdns"
)

type CloudflareProvider struct {
	api     *cloudflare.API
	zoneIDs map[string]string
	ttl     int
	metrics *metrics.Metrics
}

func New(cfg config.Provider, metrics *metrics.Metrics) (*CloudflareProvider, error) {
	token := cfg.Token
	if token == "" {
		return nil, fmt.Errorf("cloudflare api token empty")
	}

	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("init cloudflare api: %w", err)
	}

	p := &CloudflareProvider{
		api:     api,
		zoneIDs: make(map[string]string),
		ttl:     cfg.TTL,
		metrics: metrics,
	}
	return p, nil
}

func (p *CloudflareProvider) GetRecords(ctx context.Context, zone string) ([]libdns.Record, error) {
	slog.Info("Getting DNS records", "zone", zone)

	rc, err := p.zoneContainer(zone)
	if err != nil {
		p.metrics.IncProviderRequest("read", false)
		return nil, err
	}

	recs, _, err := p.api.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{})
	if err != nil {
		p.metrics.IncProviderRequest("read", false)
		return nil, err
	}

	var result []libdns.Record
	for _, r := range recs {
		result = append(result, libdns.RR{
			Name: r.Name,
			Type: r.Type,
			Data: r.Content,
		})
	}
	p.metrics.IncProviderRequest("read", true)
	return result, nil
}

func (p *CloudflareProvider) AppendRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	rc, err := p.zoneContainer(zone)
	if err != nil {
		p.metrics.IncProviderRequest("create", false)
		return nil, err
	}

	var created []libdns.Record
	for _, rec := range recs {
		rr := rec.RR()
		slog.Info("Creating DNS record", "zone", zone, "name", rr.Name, "type", rr.Type, "data", rr.Data)

		params, err := p.createParams(rec)
		if err != nil {
			p.metrics.IncProviderRequest("create", false)
			return created, err
		}
		if _, err := p.api.CreateDNSRecord(ctx, rc, params); err != nil {
			p.metrics.IncProviderRequest("create", false)
			return created, err
		}
		p.metrics.IncProviderRequest("create", true)
		created = append(created, rec)
	}
	return created, nil
}

func (p *CloudflareProvider) SetRecords(ctx context.Context, zone string, recs []libdns.Record) ([]libdns.Record, error) {
	rc, err := p.zoneContainer(zone)
	if err != nil {
		p.metrics.IncProviderRequest("update", false)
		return nil, err
	}

	var updated []libdns.Record
	for _, rec := range recs {
		rr := rec.RR()
		slog.Info("Updating DNS record", "zone", zone, "name", rr.Name, "type", rr.Type, "data", rr.Data)

		existing, _, err := p.api.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{
			Type: rr.Type,
			Name: absoluteName(rr.Name, zone),
		})
		if err != nil {
			p.metrics.IncProviderRequest("update", false)
			return updated, err
		}

		if len(existing) == 0 {
			params, err := p.createParams(rec)
			if err != nil {
				p.metrics.IncProviderRequest("update", false)
				return updated, err
			}
			if _, err := p.api.CreateDNSRecord(ctx, rc, params); err != nil {
				p.metrics.IncProviderRequest("update", false)
				return updated, err
			}
		} else {
			params, err := p.updateParams(existing[0].ID, rec)
			if err != nil {
				p.metrics.IncProviderRequest("update", false)
				return updated, err
			}
			if _, err := p.api.UpdateDNSRecord(ctx, rc, params); err != nil {
				p.metrics.IncProviderRequest("update", false)
				return updated, err
			}
		}
		p.metrics.IncProviderRequest("update", true)
		updated = append(updated, rec)
	}
	return updated, nil
}

func (p *CloudflareProvider) zoneContainer(zone string) (*cloudflare.ResourceContainer, error) {
	if id, ok := p.zoneIDs[zone]; ok {
		return cloudflare.ZoneIdentifier(id), nil
	}
	id, err := p.api.ZoneIDByName(zone)
	if err != nil {
		return nil, fmt.Errorf("lookup zone id for %s: %w", zone, err)
	}
	p.zoneIDs[zone] = id
	return cloudflare.ZoneIdentifier(id), nil
}

func (p *CloudflareProvider) createParams(rec libdns.Record) (cloudflare.CreateDNSRecordParams, error) {
	rr := rec.RR()
	params := cloudflare.CreateDNSRecordParams{
		Name: rr.Name,
		Type: rr.Type,
		TTL:  p.ttlSeconds(rr),
	}

	switch r := rec.(type) {
	case libdns.MX:
		params.Content = r.Target
		pref := r.Preference
		params.Priority = &pref
	case libdns.TXT:
		params.Content = r.Text
	case libdns.CNAME:
		params.Content = r.Target
	case libdns.SRV:
		params.Name = "_" + r.Service + "._" + r.Transport + "." + r.Name
		params.Data = map[string]interface{}{
			"service":  "_" + r.Service,
			"proto":    "_" + r.Transport,
			"name":     r.Name,
			"priority": r.Priority,
			"weight":   r.Weight,
			"port":     r.Port,
			"target":   r.Target,
		}
	default:
		return params, fmt.Errorf("unknown record type %s", rr.Type)
	}
	return params, nil
}

func (p *CloudflareProvider) updateParams(id string, rec libdns.Record) (cloudflare.UpdateDNSRecordParams, error) {
	create, err := p.createParams(rec)
	if err != nil {
		return cloudflare.UpdateDNSRecordParams{}, err
	}
	params := cloudflare.UpdateDNSRecordParams{
		ID:       id,
		Name:     create.Name,
		Type:     create.Type,
		Content:  create.Content,
		TTL:      create.TTL,
		Priority: create.Priority,
		Data:     create.Data,
	}
	return params, nil
}

// ttlSeconds resolves the TTL for a write: the record's own TTL wins,
// then the configured default, then Cloudflare's automatic TTL.
func (p *CloudflareProvider) ttlSeconds(rr libdns.RR) int {
	if ttl := int(rr.TTL.Seconds()); ttl > 0 {
		return ttl
	}
	if p.ttl > 0 {
		return p.ttl
	}
	return 1 // Cloudflare automatic TTL
}

func absoluteName(name, zone string) string {
	if name == "@" || name == "" {
		return zone
	}
	if strings.HasSuffix(name, zone) {
		return name
	}
	return name + "." + zone
}
