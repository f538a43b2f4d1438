// cmd/matcher-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"yojana-workers/internal/common/config"
	"yojana-workers/internal/common/database"
	"yojana-workers/internal/common/logger"
	"yojana-workers/internal/common/observability"
	"yojana-workers/internal/engine/criterion"
	"yojana-workers/internal/engine/orchestrator"
	"yojana-workers/internal/engine/qualifier"
	"yojana-workers/internal/engine/ranking"
	"yojana-workers/internal/engine/suggest"
	"yojana-workers/internal/models"
	"yojana-workers/internal/stores/prefstore"
	"yojana-workers/internal/stores/profilestore"
	"yojana-workers/internal/stores/schemestore"

	fis "yojana-workers/internal/workers/catalog/flag-invalid-scheme"
	em "yojana-workers/internal/workers/matching/explain-match"
	fm "yojana-workers/internal/workers/matching/find-matches"
	si "yojana-workers/internal/workers/matching/suggest-improvements"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matcher manager...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores ---
	profiles := profilestore.New(pg.DB, redis.Client,
		time.Duration(cfg.Catalog.ProfileTTLSeconds)*time.Second, log)
	schemes := schemestore.New(pg.DB, redis.Client,
		time.Duration(cfg.Catalog.SnapshotTTLSeconds)*time.Second, log)
	searchIndex := schemestore.NewSearchIndex(esClient.Client, cfg.Catalog.IndexName)
	prefs := prefstore.New(redis.Client,
		time.Duration(cfg.Matching.PreferenceTTLSeconds)*time.Second, log)

	// --- Scheme flagger (SNS) ---
	flagHandler, err := fis.NewHandler(&fis.Config{
		AWSRegion: cfg.Notifications.SNS.Region,
		TopicARN:  cfg.Notifications.SNS.TopicARN,
		Timeout:   time.Duration(cfg.Workers[fis.TaskType].Timeout) * time.Millisecond,
	}, log)
	if err != nil {
		zapLog.Fatal("flag handler init failed", zap.Error(err))
	}

	// --- Matching engine ---
	m := cfg.Matching
	spans := criterion.Spans{Age: m.AgeReferenceSpan, Income: m.IncomeReferenceSpan}
	engine := orchestrator.New(
		orchestrator.Config{
			Parallelism:    m.Parallelism,
			PageSize:       m.PageSize,
			SuggestionTopK: m.SuggestionTopK,
			SoftDeadline:   time.Duration(m.SoftDeadlineMillis) * time.Millisecond,
			HardDeadline:   time.Duration(m.HardDeadlineMillis) * time.Millisecond,
		},
		qualifier.New(spans, log),
		ranking.NewScorer(models.ScoreWeights{
			Benefit:    m.WeightBenefit,
			Deadline:   m.WeightDeadline,
			Margin:     m.WeightMargin,
			Preference: m.WeightPreference,
		}),
		suggest.New(m.SuggestionTopK, spans),
		fis.NewFlagger(flagHandler),
		log,
	)

	// --- Register Workers ---
	{
		handler := fm.NewHandler(&fm.Config{
			Timeout: time.Duration(cfg.Workers[fm.TaskType].Timeout) * time.Millisecond,
		}, profiles, schemes, prefs, searchIndex, engine, log)
		startWorker(zeebeClient, fm.TaskType, cfg.Workers[fm.TaskType], handler.Handle, zapLog)
	}
	{
		handler := em.NewHandler(&em.Config{
			Timeout: time.Duration(cfg.Workers[em.TaskType].Timeout) * time.Millisecond,
		}, profiles, schemes, engine, log)
		startWorker(zeebeClient, em.TaskType, cfg.Workers[em.TaskType], handler.Handle, zapLog)
	}
	{
		handler := si.NewHandler(&si.Config{
			Timeout: time.Duration(cfg.Workers[si.TaskType].Timeout) * time.Millisecond,
		}, profiles, schemes, engine, log)
		startWorker(zeebeClient, si.TaskType, cfg.Workers[si.TaskType], handler.Handle, zapLog)
	}
	startWorker(zeebeClient, fis.TaskType, cfg.Workers[fis.TaskType], flagHandler.Handle, zapLog)

	// --- Health/Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Matcher manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
