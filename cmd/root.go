package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tabarek/iptvctl/config"
	"github.com/tabarek/iptvctl/store"
	"github.com/tabarek/iptvctl/xtream"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	service *xtream.Service

	// Command flags
	filterExpr string
	categoryID string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iptvctl",
	Short: "Browse an Xtream IPTV provider's catalog and program guide",
	Long: `iptvctl is a CLI for Xtream-codes IPTV providers. It lists live, VOD,
and series catalogs, answers program-guide queries (what's on now, what's
coming up), and keeps favorites and watch progress locally.

Responses are cached with per-resource TTLs and concurrent identical
requests are collapsed into a single upstream call.`,
	PersistentPreRunE: initializeApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if service != nil {
			service.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version information shown by --version.
func SetVersion(version, buildTime string) {
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp initializes the configuration, logger, store, and service
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	st, err := store.NewFileStore(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	service, err = xtream.NewService(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	service.Start(cmd.Context())
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when stderr is actually a terminal
	color := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection and authentication against the provider",
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to %s...\n", cfg.Xtream.BaseURL)

	session := service.Session()
	if info := session.UserInfo(); info != nil {
		fmt.Println("✓ Authentication successful!")
		fmt.Printf("  Account status: %s\n", info.Status)
		if info.ExpDate != "" {
			fmt.Printf("  Expires: %s\n", info.ExpDate)
		}
		if info.MaxConnections != "" {
			fmt.Printf("  Max connections: %s\n", info.MaxConnections)
		}
	} else {
		fmt.Println("✗ Authentication failed, check your credentials")
	}

	token, expiry := session.Snapshot()
	fmt.Printf("  Connection: %s\n", session.Status())
	if token != "" {
		fmt.Printf("  Session valid until: %s\n", expiry.Format(time.RFC3339))
	}

	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
