package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/config"
	"github.com/harrylevesque/taskboard/internal/dashboard"
	"github.com/harrylevesque/taskboard/internal/files"
	"github.com/harrylevesque/taskboard/internal/utils"
)

var (
	configPath string
	serverURL  string
	verbose    bool
	timeout    time.Duration
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "taskboard",
	Short:         "Command-line dashboard for taskboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Client.ServerURL = strings.TrimRight(serverURL, "/")
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err = utils.NewLogger(utils.LogOptions{Level: level, File: cfg.Logging.File})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "taskboard.yaml", "config file")
	pf.StringVar(&serverURL, "server", "", "server base URL (overrides config)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	pf.BoolVar(&jsonOutput, "json", false, "machine-readable output")

	rootCmd.AddCommand(
		loginCmd, logoutCmd,
		dashboardCmd, watchCmd,
		addCmd, suggestCmd, doneCmd, undoCmd, extendCmd,
		feedbackCmd, goalCmd, profileCmd, showCacheCmd,
	)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: .env not loaded: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, dashboard.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Error: session expired or missing, run `taskboard login` first")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func sessionStore() *files.SessionStore {
	return files.NewSessionStore(cfg.Client.DataDir)
}

func profileStore() *files.ProfileStore {
	return files.NewProfileStore(cfg.Client.CacheFile, cfg.Client.DataDir)
}

// newController builds a controller for the saved session. The server URL
// saved at login wins unless --server was given.
func newController() (*dashboard.Controller, error) {
	sess, err := sessionStore().Load()
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			return nil, dashboard.ErrUnauthorized
		}
		return nil, err
	}
	base := cfg.Client.ServerURL
	if serverURL == "" && sess.Server != "" {
		base = sess.Server
	}
	src := dashboard.NewHTTPSource(base, sess.Cookie, logger.Named("source"))
	src.HTTP.Timeout = timeout
	return dashboard.NewController(src, profileStore(), logger.Named("dashboard")), nil
}

// loaded returns a controller whose state has been fetched once.
func loaded(ctx context.Context) (*dashboard.Controller, dashboard.State, error) {
	c, err := newController()
	if err != nil {
		return nil, dashboard.State{}, err
	}
	st, err := c.Load(ctx)
	if err != nil {
		return nil, dashboard.State{}, err
	}
	return c, st, nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
