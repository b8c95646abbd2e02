package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/config"
	"github.com/tbourn/go-coach-sim/internal/engine"
	httpapi "github.com/tbourn/go-coach-sim/internal/http"
	"github.com/tbourn/go-coach-sim/internal/kv"
	"github.com/tbourn/go-coach-sim/internal/llm"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/observability"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/repo"
	"github.com/tbourn/go-coach-sim/internal/services"
	"github.com/tbourn/go-coach-sim/internal/sysutil"
)

// loadConfig reads .env (when present) and the environment, then sets up
// the global logger.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	sysutil.SetupLogger(os.Stderr, sysutil.LogOptions{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Version: version})
	return cfg, nil
}

func openDB(path string) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

const turnKeySweepEvery = time.Hour

// sweepTurnKeys deletes expired turn keys until ctx is done.
func sweepTurnKeys(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeTurnKeys(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("turn key sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("expired turn keys swept")
			}
		}
	}
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Port = sysutil.FirstNonEmpty(port, cfg.Port)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version, observability.LLMAttributes(cfg.LLM)...)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(db); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}()
	catalog, err := persona.Load()
	if err != nil {
		return fmt.Errorf("load personas: %w", err)
	}

	metrics := observability.NewCoachMetrics(prometheus.DefaultRegisterer)
	model := llm.New(cfg.LLM)
	deps := httpapi.Deps{Catalog: catalog}
	if p, ok := model.(*llm.OpenAI); ok {
		deps.LLM = p
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set: client replies will fail unless LLM_FALLBACK is enabled")
	}

	pool, err := memory.NewPool(cfg.Coaching.MemoryCacheSize, func(userID string) kv.Store {
		return repo.NewKVStore(db, userID)
	})
	if err != nil {
		return err
	}
	eng := &engine.Engine{
		Catalog:         catalog,
		LLM:             model,
		Tokens:          llm.NewTokenCounter(),
		MaxPromptTokens: cfg.LLM.MaxPromptTokens,
		Fallback:        cfg.LLM.Fallback,
	}
	deps.Sessions = &services.SessionService{
		DB:              db,
		Catalog:         catalog,
		Engine:          eng,
		Memory:          pool,
		Metrics:         metrics,
		MaxMessages:     cfg.Coaching.SessionMaxMessages,
		MaxMessageRunes: cfg.Coaching.MessageMaxRunes,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	}
	deps.Memory = &services.MemoryService{Catalog: catalog, Memory: pool}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go sweepTurnKeys(ctx, db, turnKeySweepEvery)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Int("personas", catalog.Len()).Object("config", cfg).Msg("coachsim listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
