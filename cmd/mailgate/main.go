package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailgate/internal/api"
	"github.com/nhle/mailgate/internal/credential"
	"github.com/nhle/mailgate/internal/model"
	"github.com/nhle/mailgate/internal/render"
	"github.com/nhle/mailgate/internal/session"
	"github.com/nhle/mailgate/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mailgate: %v\n", err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "mailgate",
		Short:         "Session-gated web inbox for an AI email API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newSessionCmd(opts),
		newInboxCmd(opts),
	)
	return root
}

// env is what a command gets after config, logging and storage are set up.
type env struct {
	cfg     *model.AppConfig
	logger  *slog.Logger
	storage session.Storage
	close   func() error
}

func (e *env) repo() session.Repository {
	return session.NewRepository(e.storage)
}

func (e *env) apiClient() *api.Client {
	return api.NewClient(e.cfg.API.BaseURL, e.cfg.API.EmailsPath)
}

func (o *options) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := model.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := setupLogger(cfg.LogLevel, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	storage, closeFn, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Debug("storage ready", "backend", cfg.Storage.Backend)

	return &env{cfg: cfg, logger: logger, storage: storage, close: closeFn}, nil
}

func setupLogger(level string, w io.Writer) *slog.Logger {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)

	switch level {
	case "debug":
		lv.Set(slog.LevelDebug)
	case "info":
		lv.Set(slog.LevelInfo)
	case "warn":
		lv.Set(slog.LevelWarn)
	case "error":
		lv.Set(slog.LevelError)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
}

// openStorage builds the configured session storage backend.
func openStorage(cfg model.StorageConfig) (session.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case model.StorageMemory:
		return session.NewMemoryStorage(), noop, nil

	case model.StorageKeyring:
		s, err := credential.Open(credential.Config{
			ServiceName: cfg.KeyringService,
			FileDir:     cfg.KeyringDir,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, noop, fmt.Errorf("creating storage directory: %w", err)
			}
		}
		s, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
}

func newRenderer(cfg model.DisplayConfig) (*render.Renderer, error) {
	opts := render.Options{DateLayout: cfg.DateLayout}
	if cfg.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("display.time_zone: %w", err)
		}
		opts.Location = loc
	}
	return render.New(opts), nil
}

// baseURL is where the web host is reachable.
func baseURL(cfg model.ServerConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	return "http://" + cfg.Listen
}
