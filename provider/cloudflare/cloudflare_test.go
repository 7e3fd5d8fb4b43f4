package cloudflare

import (
	"testing"
	"time"

	"github.com/libdns/libdns"
)

func newTestProvider(ttl int) *CloudflareProvider {
	return &CloudflareProvider{zoneIDs: make(map[string]string), ttl: ttl}
}

func TestCreateParams(t *testing.T) {
	p := newTestProvider(0)

	tests := []struct {
		name     string
		rec      libdns.Record
		wantName string
		wantType string
		wantBody string
	}{
		{
			name:     "mx",
			rec:      libdns.MX{Name: "contoso.com", TTL: time.Hour, Preference: 0, Target: "contoso-com.mail.protection.outlook.com"},
			wantName: "contoso.com",
			wantType: "MX",
			wantBody: "contoso-com.mail.protection.outlook.com",
		},
		{
			name:     "txt",
			rec:      libdns.TXT{Name: "contoso.com", TTL: time.Hour, Text: "MS=ms12345678"},
			wantName: "contoso.com",
			wantType: "TXT",
			wantBody: "MS=ms12345678",
		},
		{
			name:     "cname",
			rec:      libdns.CNAME{Name: "autodiscover.contoso.com", TTL: time.Hour, Target: "autodiscover.outlook.com"},
			wantName: "autodiscover.contoso.com",
			wantType: "CNAME",
			wantBody: "autodiscover.outlook.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := p.createParams(tt.rec)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if params.Name != tt.wantName {
				t.Errorf("Expected name %q, got %q", tt.wantName, params.Name)
			}
			if params.Type != tt.wantType {
				t.Errorf("Expected type %q, got %q", tt.wantType, params.Type)
			}
			if params.Content != tt.wantBody {
				t.Errorf("Expected content %q, got %q", tt.wantBody, params.Content)
			}
		})
	}
}

func TestCreateParamsMXPriority(t *testing.T) {
	p := newTestProvider(0)
	params, err := p.createParams(libdns.MX{Name: "contoso.com", Preference: 10, Target: "mx.example.com"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if params.Priority == nil || *params.Priority != 10 {
		t.Errorf("Expected priority pointer to 10, got %v", params.Priority)
	}
}

func TestCreateParamsSRV(t *testing.T) {
	p := newTestProvider(0)
	rec := libdns.SRV{
		Service: "sip", Transport: "tls", Name: "contoso.com", TTL: time.Hour,
		Priority: 100, Weight: 1, Port: 443, Target: "sipdir.online.lync.com",
	}
	params, err := p.createParams(rec)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if params.Name != "_sip._tls.contoso.com" {
		t.Errorf("Expected assembled srv name, got %q", params.Name)
	}
	data, ok := params.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected srv data map, got %T", params.Data)
	}
	if data["service"] != "_sip" || data["proto"] != "_tls" || data["name"] != "contoso.com" {
		t.Errorf("Unexpected srv identity fields: %+v", data)
	}
	if data["port"] != uint16(443) || data["target"] != "sipdir.online.lync.com" {
		t.Errorf("Unexpected srv endpoint fields: %+v", data)
	}
}

func TestTTLSeconds(t *testing.T) {
	tests := []struct {
		name       string
		defaultTTL int
		recordTTL  time.Duration
		want       int
	}{
		{name: "record ttl wins", defaultTTL: 3600, recordTTL: 600 * time.Second, want: 600},
		{name: "configured default fills in", defaultTTL: 3600, recordTTL: 0, want: 3600},
		{name: "automatic when nothing set", defaultTTL: 0, recordTTL: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(tt.defaultTTL)
			got := p.ttlSeconds(libdns.RR{Name: "contoso.com", Type: "TXT", TTL: tt.recordTTL})
			if got != tt.want {
				t.Errorf("Expected ttl %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAbsoluteName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		zone string
		want string
	}{
		{name: "apex marker", in: "@", zone: "contoso.com", want: "contoso.com"},
		{name: "empty", in: "", zone: "contoso.com", want: "contoso.com"},
		{name: "already absolute", in: "autodiscover.contoso.com", zone: "contoso.com", want: "autodiscover.contoso.com"},
		{name: "relative label", in: "autodiscover", zone: "contoso.com", want: "autodiscover.contoso.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := absoluteName(tt.in, tt.zone); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
