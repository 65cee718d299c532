// Command keyfall dispatches generation requests through the session's
// rotating credentials and inspects the resulting audit trail.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mversen/keyfall/audit"
	"github.com/mversen/keyfall/config"
	"github.com/mversen/keyfall/credential"
	"github.com/mversen/keyfall/dispatch"
	"github.com/mversen/keyfall/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg        *config.Config
	logger     *log.Logger
	store      credential.Store
	fetcher    credential.Fetcher
	resolver   *credential.Resolver
	recorder   *audit.Recorder
	dispatcher *dispatch.Dispatcher
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "keyfall",
		Short: "Dispatch generation requests with rotating credentials",
		Long: `keyfall sends requests to the generation API using the session's bearer
credentials, falling back to the next credential whenever one fails. Every
attempt is recorded to a human-readable audit trail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "keyfall.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable diagnostic logging")

	build := func() (*app, error) {
		return buildApp(configPath, verbose)
	}

	rootCmd.AddCommand(newGenerateCommand(build))
	rootCmd.AddCommand(newCredentialsCommand(build))
	rootCmd.AddCommand(newAuditCommand(build))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// buildApp wires the store, fetcher, resolver, audit sink, and dispatcher
// from configuration.
func buildApp(configPath string, verbose bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logOutput := io.Discard
	if verbose {
		logOutput = os.Stderr
	}
	logger := log.New(logOutput, "keyfall: ", log.LstdFlags)

	a := &app{cfg: cfg, logger: logger}

	a.store = credential.NewSessionStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		a.store = credential.NewRedisStore(client,
			credential.WithRedisKey(cfg.Redis.Key),
			credential.WithRedisTTL(time.Duration(cfg.Redis.TTLHours)*time.Hour))
	}

	envFetcher := credential.NewEnvFetcher()
	if envFetcher.Configured() {
		a.fetcher = envFetcher
	} else {
		lookupURL := cfg.EndpointURL(config.ServicePlatform, cfg.Endpoints.CredentialsPath)
		a.fetcher = credential.NewHTTPFetcher(lookupURL)
	}

	a.resolver = credential.NewResolver(a.store, a.fetcher, credential.WithLogger(logger))

	sink, err := buildSink(cfg)
	if err != nil {
		return nil, err
	}
	a.recorder = audit.NewRecorder(sink, audit.WithRecorderLogger(logger))

	a.dispatcher = dispatch.New(a.resolver,
		dispatch.WithAuditRecorder(a.recorder),
		dispatch.WithLogger(logger))

	return a, nil
}

func buildSink(cfg *config.Config) (audit.Sink, error) {
	switch cfg.Audit.Sink {
	case "memory":
		return audit.NewMemorySink(), nil
	case "http":
		trafficURL := cfg.EndpointURL(config.ServicePlatform, cfg.Endpoints.AuditPath)
		return audit.NewHTTPSink(trafficURL), nil
	case "sqlite":
		sink, err := audit.NewSQLiteSink(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unknown audit sink %q (want memory, sqlite, or http)", cfg.Audit.Sink)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("keyfall version %s\n", version.Version())
		},
	}
}
