package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alphabot-ai/newsboard/internal/config"
	httpapp "github.com/alphabot-ai/newsboard/internal/http"
	"github.com/alphabot-ai/newsboard/internal/logging"
	"github.com/alphabot-ai/newsboard/internal/rate"
	"github.com/alphabot-ai/newsboard/internal/seed"
	"github.com/alphabot-ai/newsboard/internal/store"
	"github.com/alphabot-ai/newsboard/internal/store/postgres"
	"github.com/alphabot-ai/newsboard/internal/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the Newsboard server (default if no command)",
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the bundled sample dataset or --file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := seed.Sample()
		if err != nil {
			return err
		}
		if seedFile != "" {
			raw, err := os.ReadFile(seedFile)
			if err != nil {
				return err
			}
			data = store.Dataset{}
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("decode %s: %w", seedFile, err)
			}
		}

		_, st, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := seed.Load(cmd.Context(), st, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d topics, %d users, %d articles, %d comments\n",
			len(data.Topics), len(data.Users), len(data.Articles), len(data.Comments))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON dataset with topics, users, articles and comments")
}

func loadStore(ctx context.Context) (config.Config, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, st, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		st, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return st, nil
	default:
		st, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	limiter := rate.NewMemory()
	go sweepLimiter(ctx, limiter, logger)

	server, err := httpapp.NewServer(st, logger, limiter, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("newsboard listening", zap.String("addr", cfg.Addr), zap.String("driver", cfg.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func sweepLimiter(ctx context.Context, limiter *rate.MemoryLimiter, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Debug("rate buckets swept", zap.Int("count", n))
			}
		}
	}
}
