package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/cleanup"
	"github.com/Jdubz/job-finder-worker-sub014/internal/company"
	"github.com/Jdubz/job-finder-worker-sub014/internal/config"
	"github.com/Jdubz/job-finder-worker-sub014/internal/db"
	"github.com/Jdubz/job-finder-worker-sub014/internal/dedup"
	"github.com/Jdubz/job-finder-worker-sub014/internal/events"
	"github.com/Jdubz/job-finder-worker-sub014/internal/intake"
	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
	"github.com/Jdubz/job-finder-worker-sub014/internal/match"
	"github.com/Jdubz/job-finder-worker-sub014/internal/pipeline"
	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
	"github.com/Jdubz/job-finder-worker-sub014/internal/scheduler"
	"github.com/Jdubz/job-finder-worker-sub014/internal/scoring"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the matcher service: intake consumer, queue workers, and the cleanup cron",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run() {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("loading config", zap.Error(err))
	}

	zlog.Info("starting the matcher service",
		zap.String("version", version),
		zap.Int("workers", cfg.Workers),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zlog.Fatal("connecting to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Stores and shared components.
	queueStore := queue.NewStore(pool, zlog)
	matchStore := match.NewStore(pool, zlog)
	companyStore := company.NewStore(pool)
	policies := policy.NewCached(policy.NewStore(pool), cfg.PolicyCacheTTL, zlog)
	guard := dedup.New(queueStore, matchStore, zlog)
	sink := events.NewPublisher(rdb, zlog)
	engine := scoring.NewEngine(zlog)

	// Intake: Redis command consumer feeding the shared service.
	intakeSvc := intake.NewService(guard, queueStore, sink, zlog, cfg.MaxRetries)
	consumer := intake.NewConsumer(rdb, intakeSvc, zlog)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(ctx)
	}()

	// Queue workers.
	workerCfg := pipeline.Config{
		PollInterval: cfg.PollInterval,
		ItemTimeout:  cfg.ItemTimeout,
	}
	for i := 0; i < cfg.Workers; i++ {
		w := pipeline.New(workerCfg, queueStore, guard, matchStore,
			companyStore, policies, engine, sink, zlog.With(zap.Int("worker", i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	// Periodic duplicate cleanup.
	resolver := cleanup.NewResolver(matchStore, sink, zlog)
	sched := scheduler.New(resolver, cfg.CleanupIntervalHours, zlog)
	if err := sched.Start(ctx); err != nil {
		zlog.Fatal("starting cleanup scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Health endpoint.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}

	wg.Wait()
	zlog.Info("stopped")
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": app,
		"version": version,
	})
}
