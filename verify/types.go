package verify

import (
	"github.com/evanofslack/m365-dns-verify/records"
)

// Result describes one expected record that is missing from DNS or
// published with the wrong values. Matching records never produce a
// Result.
type Result struct {
	Domain   string            `json:"domain"`
	Label    string            `json:"label"`
	Type     records.Type      `json:"type"`
	Expected *records.Expected `json:"expected,omitempty"`
	Actual   *records.Resolved `json:"actual,omitempty"`
	Reasons  []string          `json:"reasons"`
}

// Outcome is the comparator verdict for a single expected record. An
// empty reason list means the record matched.
type Outcome struct {
	Reasons []string
}

func (o Outcome) Match() bool {
	return len(o.Reasons) == 0
}
