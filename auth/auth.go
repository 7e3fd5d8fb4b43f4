package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
	"github.com/evanofslack/m365-dns-verify/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const tokenPrefix = "token:"

// Config holds the app registration used to talk to the directory API.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	CachePath    string
}

// Source acquires bearer tokens via the client credentials grant and
// caches them on disk so repeated runs reuse unexpired tokens.
type Source struct {
	db      *badger.DB
	oauth   clientcredentials.Config
	key     string
	metrics *metrics.Metrics
}

func New(cfg Config, metrics *metrics.Metrics) (*Source, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("directory credentials missing, set tenantId, clientId and clientSecret")
	}

	opts := badger.DefaultOptions(cfg.CachePath)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Source{
		db: db,
		oauth: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
			Scopes:       []string{"https://graph.microsoft.com/.default"},
		},
		key:     tokenPrefix + cfg.TenantID + ":" + cfg.ClientID,
		metrics: metrics,
	}
	return s, nil
}

// Token returns a valid access token, from cache when possible.
func (s *Source) Token(ctx context.Context) (string, error) {
	if tok := s.cached(); tok != nil && tok.Valid() {
		return tok.AccessToken, nil
	}

	tok, err := s.oauth.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	if err := s.store(tok); err != nil {
		slog.Warn("fail cache token", "error", err)
	}
	return tok.AccessToken, nil
}

func (s *Source) cached() *oauth2.Token {
	var tok oauth2.Token
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(s.key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tok)
		})
	})
	s.metrics.IncBadgerRequest("read", err == nil)
	if err != nil {
		return nil
	}
	return &tok
}

func (s *Source) store(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		s.metrics.IncBadgerRequest("update", false)
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(s.key), data)
	})
	s.metrics.IncBadgerRequest("update", err == nil)
	return err
}

func (s *Source) Close() error {
	return s.db.Close()
}
