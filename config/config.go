package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultTokenCachePath = "m365dnsverify.db"
	defaultGraphURL       = "https://graph.microsoft.com"
	defaultLogLevel       = "info"
	defaultLogEnv         = "prod"
	defaultRecordTTL      = 3600
)

type Config struct {
	MetricsAddr string    `yaml:"metricsAddr"`
	Log         Log       `yaml:"log"`
	Directory   Directory `yaml:"directory"`
	DNS         DNS       `yaml:"dns"`
	Provider    Provider  `yaml:"provider"`
}

type Directory struct {
	TenantID       string `yaml:"tenantId"`
	ClientID       string `yaml:"clientId"`
	ClientSecret   string `yaml:"clientSecret"`
	BaseURL        string `yaml:"baseUrl"`
	TokenCachePath string `yaml:"tokenCachePath"`
}

type DNS struct {
	Server string `yaml:"server"`
}

type Provider struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
	TTL   int    `yaml:"ttl"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	if cfg.Directory.BaseURL == "" {
		cfg.Directory.BaseURL = defaultGraphURL
	}
	if cfg.Directory.TokenCachePath == "" {
		cfg.Directory.TokenCachePath = defaultTokenCachePath
	}
	if cfg.Provider.TTL == 0 {
		cfg.Provider.TTL = defaultRecordTTL
	}

	// Set log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}

	// Override from environment if set
	if tenant := os.Getenv("M365_DNS_VERIFY_TENANT_ID"); tenant != "" {
		cfg.Directory.TenantID = tenant
	}
	if clientID := os.Getenv("M365_DNS_VERIFY_CLIENT_ID"); clientID != "" {
		cfg.Directory.ClientID = clientID
	}
	if secret := os.Getenv("M365_DNS_VERIFY_CLIENT_SECRET"); secret != "" {
		cfg.Directory.ClientSecret = secret
	}
	if baseURL := os.Getenv("M365_DNS_VERIFY_GRAPH_URL"); baseURL != "" {
		cfg.Directory.BaseURL = baseURL
	}
	if cachePath := os.Getenv("M365_DNS_VERIFY_TOKEN_CACHE_PATH"); cachePath != "" {
		cfg.Directory.TokenCachePath = cachePath
	}
	if server := os.Getenv("M365_DNS_VERIFY_DNS_SERVER"); server != "" {
		cfg.DNS.Server = server
	}
	if provider := os.Getenv("M365_DNS_VERIFY_PROVIDER"); provider != "" {
		cfg.Provider.Name = provider
	}
	if token := os.Getenv("M365_DNS_VERIFY_CLOUDFLARE_TOKEN"); token != "" {
		cfg.Provider.Token = token
	}
	if ttl := os.Getenv("M365_DNS_VERIFY_TTL"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil {
			cfg.Provider.TTL = n
		} else {
			slog.Default().Warn("fail parse ttl to int from string", "ttl", ttl, "error", err)
		}
	}
	if addr := os.Getenv("M365_DNS_VERIFY_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if loglevel := os.Getenv("M365_DNS_VERIFY_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("M365_DNS_VERIFY_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
	return &cfg, nil
}
