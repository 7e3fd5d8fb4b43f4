package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/evanofslack/m365-dns-verify/auth"
	"github.com/evanofslack/m365-dns-verify/config"
	"github.com/evanofslack/m365-dns-verify/directory"
	"github.com/evanofslack/m365-dns-verify/logger"
	"github.com/evanofslack/m365-dns-verify/metrics"
	"github.com/evanofslack/m365-dns-verify/provider"
	"github.com/evanofslack/m365-dns-verify/provider/cloudflare"
	"github.com/evanofslack/m365-dns-verify/remediate"
	"github.com/evanofslack/m365-dns-verify/resolver"
	"github.com/evanofslack/m365-dns-verify/verify"
)

// errMismatch signals a clean run that found record mismatches, mapped
// to its own exit code without an error log.
var errMismatch = errors.New("dns record mismatches found")

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "m365-dns-verify [domain ...]",
		Short: "Verify domain DNS records against the Microsoft 365 expected set",
		Long: "m365-dns-verify fetches the service configuration records Microsoft 365 expects\n" +
			"a domain to publish, resolves the live DNS records and reports every mismatch\n" +
			"or missing record. Domains are read from arguments or, when none are given,\n" +
			"one per line from stdin.",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().String("config", "config.yaml", "Path to config file")
	cmd.Flags().String("server", "", "DNS server override (host or host:port), empty means system resolver")
	cmd.Flags().Bool("json", false, "Render results as JSON on stdout")
	cmd.Flags().Bool("apply", false, "Push expected records for every mismatch to the DNS provider")
	cmd.Flags().Bool("dry-run", false, "With --apply, log planned changes without applying them")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address for the duration of the run")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.Log)

	if server, _ := cmd.Flags().GetString("server"); strings.TrimSpace(server) != "" {
		cfg.DNS.Server = server
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.MetricsAddr = addr
	}
	jsonOut, _ := cmd.Flags().GetBool("json")
	apply, _ := cmd.Flags().GetBool("apply")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	domains, err := readDomains(args)
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		return errors.New("no domains given")
	}

	m := metrics.New(true)
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, m)
	}

	tokens, err := auth.New(auth.Config{
		TenantID:     cfg.Directory.TenantID,
		ClientID:     cfg.Directory.ClientID,
		ClientSecret: cfg.Directory.ClientSecret,
		CachePath:    cfg.Directory.TokenCachePath,
	}, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := tokens.Close(); err != nil {
			slog.Warn("fail close token cache", "error", err)
		}
	}()

	dir := directory.New(cfg.Directory.BaseURL, tokens)
	res, err := resolver.New(cfg.DNS.Server)
	if err != nil {
		return err
	}
	engine := verify.NewEngine(dir, res, m)

	slog.Info("Starting verification", "domains", len(domains), "server", cfg.DNS.Server)
	start := time.Now()
	results, err := engine.Verify(ctx, domains)
	m.SetVerifyDuration(time.Since(start))
	if err != nil {
		m.IncVerifyRun(false)
		if errors.Is(err, directory.ErrAuthRequired) {
			slog.Error("Directory authentication required, refresh the app credentials (tenantId, clientId, clientSecret) and run again", "error", err)
		}
		return err
	}
	m.IncVerifyRun(true)

	if err := render(results, jsonOut); err != nil {
		return err
	}
	slog.Info("Verification complete", "domains", len(domains), "mismatches", len(results))

	if apply && len(results) > 0 {
		prov, err := newProvider(cfg.Provider, m)
		if err != nil {
			return err
		}
		applied := remediate.Apply(ctx, prov, results, dryRun)
		slog.Info("Remediation complete",
			"created", len(applied.Created),
			"updated", len(applied.Updated),
			"failures", len(applied.Failures))
		if len(applied.Failures) > 0 {
			return fmt.Errorf("%d remediation operations failed", len(applied.Failures))
		}
	}

	if len(results) > 0 {
		return errMismatch
	}
	return nil
}

// newProvider builds the DNS provider named in config. An empty name
// defaults to cloudflare, the only implementation today.
func newProvider(cfg config.Provider, m *metrics.Metrics) (provider.Provider, error) {
	switch cfg.Name {
	case "", "cloudflare":
		return cloudflare.New(cfg, m)
	default:
		return nil, fmt.Errorf("unknown dns provider %q", cfg.Name)
	}
}

// readDomains collects domain names from args, or from stdin when none
// are given so batches can be piped in.
func readDomains(args []string) ([]string, error) {
	domains := []string{}
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" && arg != "-" {
			domains = append(domains, arg)
		}
	}
	if len(domains) > 0 {
		return domains, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			domains = append(domains, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read domains from stdin: %w", err)
	}
	return domains, nil
}

func render(results []verify.Result, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("All checked domains are fully compliant")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tTYPE\tLABEL\tREASON")
	for _, r := range results {
		for _, reason := range r.Reasons {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Domain, r.Type, r.Label, reason)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d mismatched records found\n", len(results))
	return nil
}

func serveMetrics(addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start http server in background
	go func() {
		slog.Info("Starting metrics server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		if errors.Is(err, errMismatch) {
			os.Exit(1)
		}
		slog.Error("Verification failed", "error", err)
		os.Exit(2)
	}
}
