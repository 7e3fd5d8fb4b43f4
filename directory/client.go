package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evanofslack/m365-dns-verify/records"
)

// ErrAuthRequired marks directory failures caused by missing or expired
// credentials. Callers surface it with re-authentication guidance
// instead of a raw provider error.
var ErrAuthRequired = errors.New("directory authentication required")

// APIError is any other directory failure, carrying the provider error
// detail for diagnosis.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory request failed, status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

// TokenSource supplies a bearer token for directory requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client interface {
	Records(ctx context.Context, domain string) ([]records.Expected, error)
}

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

type client struct {
	baseURL string
	tokens  TokenSource
	http    Httper
}

func New(baseURL string, tokens TokenSource) Client {
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{},
	}
}

// Records fetches the service configuration records the directory
// expects the domain to publish and maps them into typed records.
func (c *client) Records(ctx context.Context, domain string) ([]records.Expected, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	url := c.baseURL + "/v1.0/domains/" + domain + "/serviceConfigurationRecords"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory api request, err=%w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status=%d", ErrAuthRequired, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		var detail apiError
		if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       detail.Error.Code,
			Message:    detail.Error.Message,
		}
	}

	var list recordList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("parse directory response, err=%w", err)
	}

	expected := []records.Expected{}
	for _, sr := range list.Value {
		exp, ok := mapRecord(domain, sr)
		if !ok {
			slog.Debug("Skipping unsupported record type", "domain", domain, "type", sr.RecordType, "label", sr.Label)
			continue
		}
		expected = append(expected, exp)
	}
	return expected, nil
}

// mapRecord translates one loosely typed provider record into the
// typed union. All upstream schema knowledge lives here.
func mapRecord(domain string, sr serviceRecord) (records.Expected, bool) {
	exp := records.Expected{
		Domain: domain,
		Label:  sr.Label,
		TTL:    time.Duration(sr.TTL) * time.Second,
	}

	switch recordKind(sr) {
	case records.TypeMX:
		pref := 0
		if sr.Preference != nil {
			pref = *sr.Preference
		}
		exp.Type = records.TypeMX
		exp.Data = records.MX{
			MailExchange: sr.MailExchange,
			Preference:   uint16(pref),
		}
	case records.TypeTXT:
		exp.Type = records.TypeTXT
		exp.Data = records.TXT{Text: sr.Text}
	case records.TypeCNAME:
		exp.Type = records.TypeCNAME
		exp.Data = records.CNAME{CanonicalName: sr.CanonicalName}
	case records.TypeSRV:
		exp.Type = records.TypeSRV
		exp.Data = records.SRV{
			Target:   sr.NameTarget,
			Port:     uint16(sr.Port),
			Priority: uint16(sr.Priority),
			Weight:   uint16(sr.Weight),
		}
	default:
		return records.Expected{}, false
	}
	return exp, true
}

func recordKind(sr serviceRecord) records.Type {
	t := sr.ODataType
	if t == "" {
		t = sr.RecordType
	}
	switch {
	case strings.HasSuffix(t, "MxRecord"), strings.EqualFold(t, "Mx"):
		return records.TypeMX
	case strings.HasSuffix(t, "TxtRecord"), strings.EqualFold(t, "Txt"):
		return records.TypeTXT
	case strings.HasSuffix(t, "CnameRecord"), strings.EqualFold(t, "CName"):
		return records.TypeCNAME
	case strings.HasSuffix(t, "SrvRecord"), strings.EqualFold(t, "Srv"):
		return records.TypeSRV
	}
	return ""
}
