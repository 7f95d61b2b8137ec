package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ereli-sevenai/RTFD/internal/app"
	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/fetcher"
	"github.com/ereli-sevenai/RTFD/internal/mcp"
	"github.com/ereli-sevenai/RTFD/internal/output"
	"github.com/ereli-sevenai/RTFD/internal/providers"
	"github.com/ereli-sevenai/RTFD/internal/ratelimit"
	"github.com/ereli-sevenai/RTFD/internal/utils"
	"github.com/ereli-sevenai/RTFD/pkg/version"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger

	// Dependencies for testing
	internetCheckURL = "https://pypi.org"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rtfd",
	Short: "Documentation gateway for coding agents",
	Long: `rtfd fetches reference documentation for packages, crates, modules,
and repositories from PyPI, crates.io, npm, pkg.go.dev, GitHub, and
Google, normalizes it to markdown, and keeps the highest-value sections
within a byte budget.

Run it as an MCP server for agents (rtfd serve), or query providers
directly with the docs, locate, search, and meta commands.`,
	Version: version.Short(),
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.rtfd/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultHTTPTimeout, "Upstream request timeout")
	rootCmd.PersistentFlags().Int("max-bytes", config.DefaultMaxBytes, "Byte budget for documentation excerpts")
	rootCmd.PersistentFlags().String("format", config.DefaultOutputFormat, "Payload encoding: json or toon")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSlice("providers", nil, "Providers to enable (default: all)")
	rootCmd.PersistentFlags().String("scoring-file", "", "YAML file overriding the section scoring table")

	// Bind flags to viper
	_ = viper.BindPFlag("http.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("budget.max_bytes", rootCmd.PersistentFlags().Lookup("max-bytes"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("providers.enabled", rootCmd.PersistentFlags().Lookup("providers"))
	_ = viper.BindPFlag("scoring.file", rootCmd.PersistentFlags().Lookup("scoring-file"))

	// Serve flags
	serveCmd.Flags().String("http", "", "Serve MCP over streamable HTTP on this address instead of stdio")

	// Docs flags
	docsCmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Output directory for saved excerpts")
	docsCmd.Flags().BoolP("save", "s", false, "Write excerpt files instead of printing the payload")
	docsCmd.Flags().Bool("force", false, "Overwrite existing files")
	docsCmd.Flags().Bool("dry-run", false, "Simulate without writing files")
	docsCmd.Flags().String("provider", "", "Fetch from this provider only")
	_ = viper.BindPFlag("output.directory", docsCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.overwrite", docsCmd.Flags().Lookup("force"))

	// Search flags
	locateCmd.Flags().IntP("limit", "l", 5, "Max results per source")
	searchCmd.Flags().IntP("limit", "l", 5, "Max results per provider")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// gateway bundles the wired application stack behind the CLI commands.
type gateway struct {
	cfg      *config.Config
	client   *fetcher.Client
	registry *providers.Registry
	service  *app.Service
	encoder  *output.Encoder
}

func newGateway() (*gateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	log = utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})

	client, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:     cfg.HTTP.Timeout,
		MaxRetries:  cfg.HTTP.MaxRetries,
		UserAgent:   cfg.HTTP.UserAgent,
		MaxBodySize: cfg.HTTP.MaxResponseBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	registry, err := providers.NewRegistry(&providers.Dependencies{
		Fetcher: client,
		Gate:    ratelimit.NewGate(),
		Logger:  log,
		Config:  cfg,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to build providers: %w", err)
	}

	service, err := app.NewService(app.ServiceOptions{
		Config:   cfg,
		Registry: registry,
		Logger:   log,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &gateway{
		cfg:      cfg,
		client:   client,
		registry: registry,
		service:  service,
		encoder:  output.NewEncoder(cfg.Output.Format),
	}, nil
}

func (g *gateway) Close() {
	_ = g.client.Close()
}

// printEncoded writes one payload to stdout in the configured encoding.
func (g *gateway) printEncoded(v any) error {
	text, err := g.encoder.Encode(v)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("Shutting down gracefully...")
		cancel()
	}()

	return ctx, cancel
}

// outcomePayload flattens an aggregate result onto the shape the MCP
// tools serve: provider data under the provider name, failures under
// "<provider>_error".
func outcomePayload(key, value string, result *domain.AggregateResult) map[string]any {
	payload := map[string]any{key: value}
	for name, outcome := range result.Outcomes {
		if outcome.Failed() {
			payload[name+"_error"] = outcome.Err.Error()
			continue
		}
		payload[name] = outcome.Data
	}
	return payload
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP documentation server",
	Long: `Serves the documentation tools over the Model Context Protocol,
on stdio by default or over streamable HTTP with --http.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway()
		if err != nil {
			return err
		}
		defer gw.Close()

		srv, err := mcp.NewServer(mcp.ServerOptions{
			Service:  gw.service,
			Registry: gw.registry,
			Config:   gw.cfg,
			Logger:   log,
		})
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		if addr, _ := cmd.Flags().GetString("http"); addr != "" {
			return srv.RunHTTP(ctx, addr)
		}
		return srv.Run(ctx)
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs <subject>",
	Short: "Fetch budgeted documentation excerpts",
	Long: `Fetches documentation for a package, crate, module, or repository,
normalizes it to markdown, and keeps the highest-value sections within
the byte budget. Without --provider every capable provider is queried
concurrently.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocs,
}

func runDocs(cmd *cobra.Command, args []string) error {
	subject := strings.TrimSpace(args[0])
	if subject == "" {
		return domain.NewValidationError("subject", "must not be empty")
	}

	gw, err := newGateway()
	if err != nil {
		return err
	}
	defer gw.Close()

	ctx, cancel := signalContext()
	defer cancel()

	providerName, _ := cmd.Flags().GetString("provider")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	save, _ := cmd.Flags().GetBool("save")
	save = save || dryRun || cmd.Flags().Changed("output")

	maxBytes := gw.cfg.Budget.MaxBytes

	if providerName != "" {
		excerpt, err := gw.service.FetchDocs(ctx, providerName, subject, maxBytes)
		if err != nil {
			return err
		}
		if save {
			return saveExcerpts(ctx, gw, subject, dryRun, []*app.DocsExcerpt{excerpt})
		}
		return gw.printEncoded(excerpt)
	}

	if save {
		bar := utils.NewProgressBar(len(gw.registry.ContentFetchers()), utils.DescFetching)
		gw.service.SetProgress(func(string) { _ = bar.Add(1) })
	}

	result, err := gw.service.FetchAllDocs(ctx, subject, maxBytes)
	gw.service.SetProgress(nil)
	if err != nil {
		return err
	}

	if save {
		fmt.Println()

		excerpts := make([]*app.DocsExcerpt, 0, len(result.Outcomes))
		for _, name := range result.Succeeded() {
			if excerpt, ok := result.Outcomes[name].Data.(*app.DocsExcerpt); ok {
				excerpts = append(excerpts, excerpt)
			}
		}
		for name, reason := range result.Failures() {
			log.Warn().Str("provider", name).Str("reason", reason).Msg("Provider failed")
		}
		return saveExcerpts(ctx, gw, subject, dryRun, excerpts)
	}

	return gw.printEncoded(outcomePayload("subject", subject, result))
}

// saveExcerpts writes one markdown file per provider excerpt plus an
// index.json for the run.
func saveExcerpts(ctx context.Context, gw *gateway, subject string, dryRun bool, excerpts []*app.DocsExcerpt) error {
	if len(excerpts) == 0 {
		return fmt.Errorf("no documentation found for %q", subject)
	}

	writer := output.NewWriter(output.WriterOptions{
		BaseDir:   gw.cfg.Output.Directory,
		Overwrite: gw.cfg.Output.Overwrite,
		DryRun:    dryRun,
	})
	collector := output.NewIndexCollector(output.CollectorOptions{
		BaseDir: gw.cfg.Output.Directory,
		Subject: subject,
		Enabled: !dryRun,
	})

	for _, excerpt := range excerpts {
		path, err := writer.Write(ctx, subject, excerpt.Provider, excerpt.Selection, excerpt.OriginURL)
		if err != nil {
			return err
		}
		collector.Add(excerpt.Provider, path, excerpt.Selection, excerpt.OriginURL)
		log.Info().
			Str("provider", excerpt.Provider).
			Str("path", path).
			Int("bytes", excerpt.Selection.TotalBytes).
			Msg("Saved excerpt")
	}

	if err := collector.Flush(); err != nil {
		return err
	}

	log.Info().
		Int("documents", collector.Count()).
		Str("directory", writer.BaseDir()).
		Msg("Documentation saved")
	return nil
}

var locateCmd = &cobra.Command{
	Use:   "locate <library>",
	Short: "Find where a library's documentation lives",
	Long: `Looks a library up across registry metadata, repository search, and
web search, and prints every source's findings in one payload.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library := strings.TrimSpace(args[0])
		if library == "" {
			return domain.NewValidationError("library", "must not be empty")
		}

		gw, err := newGateway()
		if err != nil {
			return err
		}
		defer gw.Close()

		ctx, cancel := signalContext()
		defer cancel()

		limit, _ := cmd.Flags().GetInt("limit")
		result := gw.service.Locate(ctx, library, limit)
		return gw.printEncoded(outcomePayload("library", library, result))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search every provider that supports searching",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return domain.NewValidationError("query", "must not be empty")
		}

		gw, err := newGateway()
		if err != nil {
			return err
		}
		defer gw.Close()

		ctx, cancel := signalContext()
		defer cancel()

		limit, _ := cmd.Flags().GetInt("limit")
		result := gw.service.SearchAll(ctx, query, limit)
		return gw.printEncoded(outcomePayload("query", query, result))
	},
}

var metaCmd = &cobra.Command{
	Use:   "meta <provider> <subject>",
	Short: "Show registry metadata from one provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := newGateway()
		if err != nil {
			return err
		}
		defer gw.Close()

		ctx, cancel := signalContext()
		defer cancel()

		meta, err := gw.service.FetchMetadata(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return gw.printEncoded(meta)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity and configuration",
	Long:  "Verifies upstream connectivity, configuration, credentials, and output permissions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking documentation gateway setup...")
		allPassed := true

		// Check 1: Internet connection
		fmt.Print("  Internet connection: ")
		if checkInternet() {
			fmt.Println("OK")
		} else {
			fmt.Println("FAILED")
			allPassed = false
		}

		// Check 2: Config file
		fmt.Print("  Config file: ")
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("WARN (%v)\n", err)
			cfg = config.Default()
		} else {
			fmt.Println("OK")
		}

		// Check 3: Enabled providers
		fmt.Printf("  Providers: OK (%s)\n", strings.Join(cfg.Providers.Enabled, ", "))

		// Check 4: GitHub token
		fmt.Print("  GitHub token: ")
		if cfg.Providers.GitHubToken != "" {
			fmt.Println("OK")
		} else {
			fmt.Println("NOT SET (low search rate limits)")
		}

		// Check 5: Google Custom Search credentials
		fmt.Print("  Google API credentials: ")
		if cfg.Providers.GoogleAPIKey != "" && cfg.Providers.GoogleCSEID != "" {
			fmt.Println("OK")
		} else {
			fmt.Println("NOT SET (google falls back to HTML scraping)")
		}

		// Check 6: Output directory
		fmt.Print("  Write permissions: ")
		if checkWritePermissions(cfg.Output.Directory) {
			fmt.Printf("OK (%s)\n", cfg.Output.Directory)
		} else {
			fmt.Println("FAILED")
			allPassed = false
		}

		fmt.Println()
		if allPassed {
			fmt.Println("All critical checks passed!")
		} else {
			fmt.Println("Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// checkInternet checks if upstream registries are reachable
func checkInternet() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, internetCheckURL, nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// checkWritePermissions checks if the output directory accepts writes
func checkWritePermissions(dir string) bool {
	dir = utils.ExpandPath(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false
	}

	tmpFile := filepath.Join(dir, ".rtfd_write_test")
	f, err := os.Create(tmpFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(tmpFile)
	return true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
