package verify

import (
	"fmt"
	"slices"

	"github.com/evanofslack/m365-dns-verify/records"
)

const reasonMissing = "missing record"

// Compare checks one expected record against what resolution observed.
// A nil actual means the record is absent; that short-circuits every
// type rule. Field comparisons are byte-exact, hostnames are already
// normalized at the resolver boundary.
func Compare(expected records.Expected, actual *records.Resolved) Outcome {
	if actual == nil {
		return Outcome{Reasons: []string{reasonMissing}}
	}

	var reasons []string
	switch want := expected.Data.(type) {
	case records.MX:
		got, ok := actual.Data.(records.MX)
		if !ok || got.MailExchange != want.MailExchange {
			reasons = append(reasons, fmt.Sprintf("mail exchange %q does not match expected %q", mxHost(actual.Data), want.MailExchange))
		}
	case records.TXT:
		got, ok := actual.Data.(records.TXTValues)
		if !ok || !slices.Contains(got.Values, want.Text) {
			reasons = append(reasons, fmt.Sprintf("txt value %q not found among published values", want.Text))
		}
	case records.CNAME:
		got, ok := actual.Data.(records.CNAME)
		if !ok || got.CanonicalName != want.CanonicalName {
			reasons = append(reasons, fmt.Sprintf("canonical name %q does not match expected %q", cnameTarget(actual.Data), want.CanonicalName))
		}
	case records.SRV:
		got, ok := actual.Data.(records.SRV)
		if !ok {
			reasons = append(reasons, "published record is not srv")
			break
		}
		// Each field contributes its own reason so a partially wrong
		// record reports everything at once.
		if got.Target != want.Target {
			reasons = append(reasons, fmt.Sprintf("srv target %q does not match expected %q", got.Target, want.Target))
		}
		if got.Port != want.Port {
			reasons = append(reasons, fmt.Sprintf("srv port %d does not match expected %d", got.Port, want.Port))
		}
		if got.Priority != want.Priority {
			reasons = append(reasons, fmt.Sprintf("srv priority %d does not match expected %d", got.Priority, want.Priority))
		}
		if got.Weight != want.Weight {
			reasons = append(reasons, fmt.Sprintf("srv weight %d does not match expected %d", got.Weight, want.Weight))
		}
	default:
		// No comparison defined for other record types, treat as match.
	}
	return Outcome{Reasons: reasons}
}

func mxHost(d records.Data) string {
	if mx, ok := d.(records.MX); ok {
		return mx.MailExchange
	}
	return ""
}

func cnameTarget(d records.Data) string {
	if c, ok := d.(records.CNAME); ok {
		return c.CanonicalName
	}
	return ""
}
