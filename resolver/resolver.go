package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/evanofslack/m365-dns-verify/records"
	"github.com/miekg/dns"
)

const resolvConfPath = "/etc/resolv.conf"

type Client struct {
	dns    *dns.Client
	server string
}

// New builds a resolver against the given server (host or host:port).
// An empty or whitespace server means the system default resolver from
// /etc/resolv.conf.
func New(server string) (*Client, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		conf, err := dns.ClientConfigFromFile(resolvConfPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", resolvConfPath, err)
		}
		if len(conf.Servers) == 0 {
			return nil, fmt.Errorf("no nameservers in %s", resolvConfPath)
		}
		server = net.JoinHostPort(conf.Servers[0], conf.Port)
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	c := &Client{
		dns:    new(dns.Client),
		server: server,
	}
	return c, nil
}

// Lookup resolves one record of the given type at label. It returns nil
// for anything short of a usable answer: NXDOMAIN, SERVFAIL, timeouts
// and transport errors all read as an absent record, which the caller
// reports the same way as a confirmed missing one.
func (c *Client) Lookup(ctx context.Context, rtype records.Type, label string) *records.Resolved {
	qtype, ok := questionType(rtype)
	if !ok {
		return nil
	}

	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(label), qtype)

	in, _, err := c.dns.ExchangeContext(ctx, q, c.server)
	if err != nil {
		slog.Debug("DNS exchange failed, treating as absent", "label", label, "type", rtype, "server", c.server, "error", err)
		return nil
	}
	if in.Rcode != dns.RcodeSuccess {
		slog.Debug("DNS query unsuccessful, treating as absent", "label", label, "type", rtype, "rcode", dns.RcodeToString[in.Rcode])
		return nil
	}
	return fromAnswer(rtype, label, in.Answer)
}

// fromAnswer maps answer RRs of the requested type into a resolved
// record. Hostnames are normalized here, lowercased with the trailing
// dot trimmed, so comparisons elsewhere stay byte-exact.
func fromAnswer(rtype records.Type, label string, answer []dns.RR) *records.Resolved {
	resolved := &records.Resolved{Name: label, Type: rtype}

	switch rtype {
	case records.TypeMX:
		for _, rr := range answer {
			if mx, ok := rr.(*dns.MX); ok {
				resolved.Data = records.MX{
					MailExchange: normalizeHost(mx.Mx),
					Preference:   mx.Preference,
				}
				return resolved
			}
		}
	case records.TypeCNAME:
		for _, rr := range answer {
			if cname, ok := rr.(*dns.CNAME); ok {
				resolved.Data = records.CNAME{CanonicalName: normalizeHost(cname.Target)}
				return resolved
			}
		}
	case records.TypeSRV:
		for _, rr := range answer {
			if srv, ok := rr.(*dns.SRV); ok {
				resolved.Data = records.SRV{
					Target:   normalizeHost(srv.Target),
					Port:     srv.Port,
					Priority: srv.Priority,
					Weight:   srv.Weight,
				}
				return resolved
			}
		}
	case records.TypeTXT:
		values := []string{}
		for _, rr := range answer {
			if txt, ok := rr.(*dns.TXT); ok {
				// Long TXT values arrive chunked into 255 byte strings,
				// rejoin them into one logical value per RR.
				values = append(values, strings.Join(txt.Txt, ""))
			}
		}
		if len(values) > 0 {
			resolved.Data = records.TXTValues{Values: values}
			return resolved
		}
	}
	return nil
}

func questionType(rtype records.Type) (uint16, bool) {
	switch rtype {
	case records.TypeMX:
		return dns.TypeMX, true
	case records.TypeTXT:
		return dns.TypeTXT, true
	case records.TypeCNAME:
		return dns.TypeCNAME, true
	case records.TypeSRV:
		return dns.TypeSRV, true
	}
	return 0, false
}

func normalizeHost(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}
