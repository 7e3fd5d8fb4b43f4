package verify

import (
	"strings"
	"testing"

	"github.com/evanofslack/m365-dns-verify/records"
)

func TestCompareMatch(t *testing.T) {
	tests := []struct {
		name     string
		expected records.Expected
		actual   *records.Resolved
	}{
		{
			name: "mx identical",
			expected: records.Expected{
				Domain: "contoso.com",
				Label:  "contoso.com",
				Type:   records.TypeMX,
				Data:   records.MX{MailExchange: "contoso-com.mail.protection.outlook.com"},
			},
			actual: &records.Resolved{
				Name: "contoso.com",
				Type: records.TypeMX,
				Data: records.MX{MailExchange: "contoso-com.mail.protection.outlook.com", Preference: 10},
			},
		},
		{
			name: "txt exact set",
			expected: records.Expected{
				Type: records.TypeTXT,
				Data: records.TXT{Text: "MS=ms12345678"},
			},
			actual: &records.Resolved{
				Type: records.TypeTXT,
				Data: records.TXTValues{Values: []string{"MS=ms12345678"}},
			},
		},
		{
			name: "txt membership with unrelated extra values",
			expected: records.Expected{
				Type: records.TypeTXT,
				Data: records.TXT{Text: "v=spf1 include:example.net ~all"},
			},
			actual: &records.Resolved{
				Type: records.TypeTXT,
				Data: records.TXTValues{Values: []string{
					"google-site-verification=abc123",
					"v=spf1 include:example.net ~all",
					"MS=ms98765432",
				}},
			},
		},
		{
			name: "cname identical",
			expected: records.Expected{
				Type: records.TypeCNAME,
				Data: records.CNAME{CanonicalName: "autodiscover.outlook.com"},
			},
			actual: &records.Resolved{
				Type: records.TypeCNAME,
				Data: records.CNAME{CanonicalName: "autodiscover.outlook.com"},
			},
		},
		{
			name: "srv identical",
			expected: records.Expected{
				Type: records.TypeSRV,
				Data: records.SRV{Target: "sipdir.online.lync.com", Port: 443, Priority: 100, Weight: 1},
			},
			actual: &records.Resolved{
				Type: records.TypeSRV,
				Data: records.SRV{Target: "sipdir.online.lync.com", Port: 443, Priority: 100, Weight: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Compare(tt.expected, tt.actual)
			if !outcome.Match() {
				t.Errorf("Expected match, got reasons %v", outcome.Reasons)
			}
		})
	}
}

func TestCompareAbsent(t *testing.T) {
	// Absence short-circuits every type rule regardless of expected fields
	tests := []struct {
		name     string
		expected records.Expected
	}{
		{name: "mx", expected: records.Expected{Type: records.TypeMX, Data: records.MX{MailExchange: "mail.example.com"}}},
		{name: "txt", expected: records.Expected{Type: records.TypeTXT, Data: records.TXT{Text: "MS=ms1"}}},
		{name: "cname", expected: records.Expected{Type: records.TypeCNAME, Data: records.CNAME{CanonicalName: "x.example.com"}}},
		{name: "srv", expected: records.Expected{Type: records.TypeSRV, Data: records.SRV{Target: "sip.example.com", Port: 443}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Compare(tt.expected, nil)
			if outcome.Match() {
				t.Fatal("Expected mismatch for absent record")
			}
			if len(outcome.Reasons) != 1 || outcome.Reasons[0] != "missing record" {
				t.Errorf("Expected single missing record reason, got %v", outcome.Reasons)
			}
		})
	}
}

func TestCompareMismatch(t *testing.T) {
	tests := []struct {
		name        string
		expected    records.Expected
		actual      *records.Resolved
		wantReasons int
		wantContain string
	}{
		{
			name: "mx wrong target",
			expected: records.Expected{
				Type: records.TypeMX,
				Data: records.MX{MailExchange: "contoso-com.mail.protection.outlook.com"},
			},
			actual: &records.Resolved{
				Type: records.TypeMX,
				Data: records.MX{MailExchange: "wrong-target.com"},
			},
			wantReasons: 1,
			wantContain: "mail exchange",
		},
		{
			name: "mx comparison is case sensitive",
			expected: records.Expected{
				Type: records.TypeMX,
				Data: records.MX{MailExchange: "mail.example.com"},
			},
			actual: &records.Resolved{
				Type: records.TypeMX,
				Data: records.MX{MailExchange: "Mail.Example.Com"},
			},
			wantReasons: 1,
			wantContain: "mail exchange",
		},
		{
			name: "txt value not in set",
			expected: records.Expected{
				Type: records.TypeTXT,
				Data: records.TXT{Text: "v=spf1 include:example.net ~all"},
			},
			actual: &records.Resolved{
				Type: records.TypeTXT,
				Data: records.TXTValues{Values: []string{"google-site-verification=abc123"}},
			},
			wantReasons: 1,
			wantContain: "txt value",
		},
		{
			name: "cname wrong target",
			expected: records.Expected{
				Type: records.TypeCNAME,
				Data: records.CNAME{CanonicalName: "autodiscover.outlook.com"},
			},
			actual: &records.Resolved{
				Type: records.TypeCNAME,
				Data: records.CNAME{CanonicalName: "mail.example.com"},
			},
			wantReasons: 1,
			wantContain: "canonical name",
		},
		{
			name: "srv single wrong field yields exactly one reason",
			expected: records.Expected{
				Type: records.TypeSRV,
				Data: records.SRV{Target: "sipdir.example.com", Port: 443, Priority: 1, Weight: 1},
			},
			actual: &records.Resolved{
				Type: records.TypeSRV,
				Data: records.SRV{Target: "sipdir.example.com", Port: 5061, Priority: 1, Weight: 1},
			},
			wantReasons: 1,
			wantContain: "srv port",
		},
		{
			name: "srv every field wrong yields one reason each",
			expected: records.Expected{
				Type: records.TypeSRV,
				Data: records.SRV{Target: "sipdir.example.com", Port: 443, Priority: 100, Weight: 1},
			},
			actual: &records.Resolved{
				Type: records.TypeSRV,
				Data: records.SRV{Target: "sipfed.example.com", Port: 5061, Priority: 10, Weight: 2},
			},
			wantReasons: 4,
			wantContain: "srv target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Compare(tt.expected, tt.actual)
			if outcome.Match() {
				t.Fatal("Expected mismatch but got match")
			}
			if len(outcome.Reasons) != tt.wantReasons {
				t.Errorf("Expected %d reasons, got %d: %v", tt.wantReasons, len(outcome.Reasons), outcome.Reasons)
			}
			found := false
			for _, r := range outcome.Reasons {
				if strings.Contains(r, tt.wantContain) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected a reason containing %q, got %v", tt.wantContain, outcome.Reasons)
			}
		})
	}
}

func TestCompareUnknownTypePassthrough(t *testing.T) {
	expected := records.Expected{Type: "NS", Data: nil}
	actual := &records.Resolved{Type: "NS"}
	if outcome := Compare(expected, actual); !outcome.Match() {
		t.Errorf("Expected no-op match for unknown type, got %v", outcome.Reasons)
	}
}
