package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/api"
	"github.com/harrylevesque/taskboard/internal/auth"
	"github.com/harrylevesque/taskboard/internal/certs"
	"github.com/harrylevesque/taskboard/internal/config"
	"github.com/harrylevesque/taskboard/internal/crypto"
	"github.com/harrylevesque/taskboard/internal/files"
	"github.com/harrylevesque/taskboard/internal/upstream"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// certWarnWindow is how far ahead an expiring certificate is reported.
const certWarnWindow = 30 * 24 * time.Hour

var (
	configPath string
	addr       string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "taskboard-server",
	Short:         "Serve the taskboard dashboard API",
	Long:          `Serves the login and dashboard pages and proxies task, goal and profile data from the upstream automation service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

var hashCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for the users section of the config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := ""
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return errors.New("password is empty")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration to --config",
	RunE: func(cmd *cobra.Command, args []string) error {
		if files.FileExists(configPath) {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.Default().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "taskboard.yaml", "config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(hashCmd, initConfigCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: .env not loaded: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := utils.NewLogger(utils.LogOptions{Level: cfg.Logging.Level, File: cfg.Logging.File, JSON: cfg.Logging.JSON})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	master, err := files.ReadSessionKey(cfg.Session.KeyFile)
	if err != nil {
		return fmt.Errorf("session key: %w (run gensessionkey or set %s)", err, files.SessionKeyEnv)
	}
	keys, err := crypto.DeriveSessionKeys(master)
	if err != nil {
		return err
	}
	store := auth.NewCookieStore(keys, auth.CookieOptions{
		Name:   cfg.Session.Name,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure || cfg.Server.TLSCert != "",
	})

	provider := auth.NewStaticProvider(cfg.Users)
	if len(cfg.Users) == 0 {
		logger.Warn("no users configured; sign up through /signup")
	}
	sessionAuth := auth.New(provider, store, cfg.Session.Name)

	up := upstream.New(cfg.Upstream.BaseURL, logger.Named("upstream"))
	srv := api.NewServer(up, sessionAuth, provider, api.Options{
		AllowedOrigin: cfg.Server.AllowedOrigin,
		StaticDir:     cfg.Server.StaticDir,
		PrivatePage:   cfg.Server.PrivatePage,
		Debug:         cfg.Server.Debug,
	}, logger.Named("api"))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.Server.TLSCert != "" {
		cm := certs.NewCertManager(cfg.Server.TLSCert, cfg.Server.TLSKey)
		tlsConfig, leaf, err := cm.TLSConfig()
		if err != nil {
			return err
		}
		if cm.ExpiresWithin(leaf, certWarnWindow) {
			logger.Warn("TLS certificate expires soon", zap.Time("not_after", leaf.NotAfter))
		}
		httpServer.TLSConfig = tlsConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.Bool("tls", httpServer.TLSConfig != nil),
		)
		var err error
		if httpServer.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
