package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/anchorlab/anchorlab/internal/agent"
	"github.com/anchorlab/anchorlab/internal/anchor"
	"github.com/anchorlab/anchorlab/internal/api"
	"github.com/anchorlab/anchorlab/internal/config"
	"github.com/anchorlab/anchorlab/internal/memory"
	"github.com/anchorlab/anchorlab/internal/orchestrator"
	"github.com/anchorlab/anchorlab/internal/profile"
	"github.com/anchorlab/anchorlab/internal/session"
	pgstore "github.com/anchorlab/anchorlab/internal/store"
)

const defaultSessionID = "global"

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting AnchorLab...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/anchorlab.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Load the trait catalog
	var catalog *profile.Catalog
	if cfg.Seeds.Dir != "" {
		catalog, err = profile.LoadDir(cfg.Seeds.Dir, logger)
		if err != nil {
			logger.Fatal("failed to load trait profiles", zap.String("dir", cfg.Seeds.Dir), zap.Error(err))
		}
	} else {
		catalog = profile.DefaultCatalog(logger)
	}
	mixer := profile.NewMixer(catalog, logger)
	logger.Info("Catalog loaded", zap.Int("profiles", catalog.Len()))

	// Initialize memory store
	mem := memory.NewStore(cfg.Memory.MaxMemories, cfg.Memory.CleanupThreshold, logger)

	// Session persistence is optional; without Redis memories are process-local.
	var sessions *session.Store
	if cfg.Database.Redis.URL != "" {
		ss, sErr := session.NewStore(cfg.Database.Redis.URL, logger)
		if sErr != nil {
			logger.Warn("Redis unavailable, running without session persistence", zap.Error(sErr))
		} else {
			sessions = ss
			if lErr := sessions.Load(context.Background(), defaultSessionID, mem); lErr != nil {
				logger.Warn("failed to restore session memories", zap.Error(lErr))
			} else {
				logger.Info("Session memories restored", zap.Int("count", mem.Len()))
			}
		}
	}

	// Initialize PostgreSQL seed store
	var pgStore *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without seed persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pgStore = ps
		}
	}

	// Initialize the orchestrator with one controller per configured personality
	orch := orchestrator.New(logger)
	agentCfg := agent.Config{
		Cadence:      cfg.Agents.Cadence(),
		ErrorBackoff: cfg.Agents.Backoff(),
	}
	for i, name := range cfg.Agents.Personalities {
		strategy, ok := agent.NewStrategy(name)
		if !ok {
			logger.Warn("unknown personality, skipping", zap.String("personality", name))
			continue
		}
		id := fmt.Sprintf("%s-%d", name, i+1)
		ctrl := agent.NewController(id, strategy, anchor.NewVector(), mem, agentCfg, logger)
		if err := orch.Add(ctrl); err != nil {
			logger.Warn("failed to register agent", zap.String("agent", id), zap.Error(err))
		}
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	orch.StartAll(runCtx)

	// Abandoned-session sweeper
	if sessions != nil {
		go sessions.RunPeriodicSweep(runCtx, cfg.Session.SweepInterval(), cfg.Session.Retention())
	}

	// Build HTTP handler
	handler := api.NewHandler(mixer, mem, orch, pgStore, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("AnchorLab listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down AnchorLab...")
	ctx := context.Background()
	srv.Shutdown(ctx)
	orch.StopAll()
	cancelRun()

	if sessions != nil {
		if err := sessions.Save(ctx, defaultSessionID, mem.Export()); err != nil {
			logger.Warn("failed to persist session memories", zap.Error(err))
		}
		sessions.Close()
	}
	if pgStore != nil {
		pgStore.Close()
	}
}
