package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/libdns/libdns"
)

// Type is the DNS record type of a service configuration record.
type Type string

const (
	TypeMX    Type = "MX"
	TypeTXT   Type = "TXT"
	TypeCNAME Type = "CNAME"
	TypeSRV   Type = "SRV"
)

// Data is the type-specific payload of a record. Exactly one concrete
// type exists per record type, plus TXTValues for the multi-value set
// observed in live DNS.
type Data interface {
	recordData()
}

type MX struct {
	MailExchange string
	Preference   uint16
}

type TXT struct {
	Text string
}

// TXTValues holds every string published at a TXT label. DNS allows
// multiple TXT records per name, so resolution yields a set.
type TXTValues struct {
	Values []string
}

type CNAME struct {
	CanonicalName string
}

type SRV struct {
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
}

func (MX) recordData()        {}
func (TXT) recordData()       {}
func (TXTValues) recordData() {}
func (CNAME) recordData()     {}
func (SRV) recordData()       {}

// Expected is a record the directory service requires to be published
// for the domain. Produced by the directory client, never mutated.
type Expected struct {
	Domain string
	Label  string
	Type   Type
	TTL    time.Duration
	Data   Data
}

// Resolved is a record observed via live DNS resolution. Absence is a
// nil *Resolved at call sites, not a variant here.
type Resolved struct {
	Name string
	Type Type
	Data Data
}

// ToLibdns converts an expected record into the libdns form used by
// DNS providers when applying fixes.
func ToLibdns(e Expected) (libdns.Record, error) {
	ttl := e.TTL
	switch d := e.Data.(type) {
	case MX:
		out := libdns.MX{
			Name:       e.Label,
			TTL:        ttl,
			Preference: d.Preference,
			Target:     d.MailExchange,
		}
		return out, nil
	case TXT:
		out := libdns.TXT{
			Name: e.Label,
			TTL:  ttl,
			Text: d.Text,
		}
		return out, nil
	case CNAME:
		out := libdns.CNAME{
			Name:   e.Label,
			TTL:    ttl,
			Target: d.CanonicalName,
		}
		return out, nil
	case SRV:
		service, transport, name, err := splitServiceLabel(e.Label)
		if err != nil {
			return nil, err
		}
		out := libdns.SRV{
			Service:   service,
			Transport: transport,
			Name:      name,
			TTL:       ttl,
			Priority:  d.Priority,
			Weight:    d.Weight,
			Port:      d.Port,
			Target:    d.Target,
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown record type %s", e.Type)
	}
}

// splitServiceLabel breaks an SRV label like _sip._tls.example.com into
// its service, transport and owner name parts.
func splitServiceLabel(label string) (service, transport, name string, err error) {
	parts := strings.SplitN(label, ".", 3)
	if len(parts) < 3 || !strings.HasPrefix(parts[0], "_") || !strings.HasPrefix(parts[1], "_") {
		return "", "", "", fmt.Errorf("fail parse srv label %s", label)
	}
	return strings.TrimPrefix(parts[0], "_"), strings.TrimPrefix(parts[1], "_"), parts[2], nil
}
