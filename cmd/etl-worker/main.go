/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command etl-worker is the long-running daemon: it starts CoreManager's
// cron scheduler and serves until signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wagerflow/etlcore/internal/analytics"
	"github.com/wagerflow/etlcore/internal/archive"
	"github.com/wagerflow/etlcore/internal/configprovider"
	"github.com/wagerflow/etlcore/internal/core"
	"github.com/wagerflow/etlcore/internal/events"
	"github.com/wagerflow/etlcore/internal/scheduler"
	"github.com/wagerflow/etlcore/internal/tableconfig"
	"github.com/wagerflow/etlcore/pkg/logging"
	"github.com/wagerflow/etlcore/pkg/metrics"
)

type flags struct {
	sourceConn    string
	targetConn    string
	staticConfig  string
	remoteBaseURL string
	remoteSignKey string
	remoteService string
	redisAddrs    string
	kafkaBrokers  string
	kafkaTopic    string
	coldBucket    string
	coldRegion    string
	coldEndpoint  string
	metricsAddr   string
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.sourceConn, "source-conn", "", "Source Postgres conn string")
	flag.StringVar(&f.targetConn, "target-conn", "", "Target Postgres conn string")
	flag.StringVar(&f.staticConfig, "static-config", "", "Path to static YAML config (if set, skips remote config)")
	flag.StringVar(&f.remoteBaseURL, "remote-config-url", "", "Remote config service base URL")
	flag.StringVar(&f.remoteService, "service-tag", "etl-worker", "Service tag presented to the remote config service")
	flag.StringVar(&f.redisAddrs, "redis-addrs", "", "Redis addresses (csv), used for config cache and analytics cache")
	flag.StringVar(&f.kafkaBrokers, "kafka-brokers", "", "Kafka brokers (csv); leave empty to disable real-time events")
	flag.StringVar(&f.kafkaTopic, "kafka-topic", "etlcore-events", "Kafka topic for published events")
	flag.StringVar(&f.coldBucket, "cold-bucket", "", "S3 bucket for archived sync logs; leave empty to disable archival")
	flag.StringVar(&f.coldRegion, "cold-region", "", "S3 region")
	flag.StringVar(&f.coldEndpoint, "cold-endpoint", "", "S3-compatible endpoint override")
	flag.StringVar(&f.metricsAddr, "metrics-addr", ":9090", "Metrics listen address")
	flag.Parse()

	if f.sourceConn == "" {
		f.sourceConn = os.Getenv("SOURCE_CONN")
	}
	if f.targetConn == "" {
		f.targetConn = os.Getenv("TARGET_CONN")
	}
	if f.remoteSignKey == "" {
		f.remoteSignKey = os.Getenv("REMOTE_CONFIG_SIGNING_KEY")
	}
	return f
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f := parseFlags()

	zapLog, err := logging.NewZapLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()
	log := zapLog.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := startMetricsServer(f.metricsAddr, log)
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	if f.sourceConn == "" || f.targetConn == "" {
		return fmt.Errorf("--source-conn/SOURCE_CONN and --target-conn/TARGET_CONN are required")
	}

	sourcePool, err := pgxpool.New(ctx, f.sourceConn)
	if err != nil {
		return fmt.Errorf("connecting source pool: %w", err)
	}
	defer sourcePool.Close()

	targetPool, err := pgxpool.New(ctx, f.targetConn)
	if err != nil {
		return fmt.Errorf("connecting target pool: %w", err)
	}
	defer targetPool.Close()

	provider, err := buildProvider(f)
	if err != nil {
		return err
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	defer cleanup()

	var publisher events.Publisher = events.NoopPublisher{}
	if f.kafkaBrokers != "" {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: strings.Split(f.kafkaBrokers, ","),
			Topic:   f.kafkaTopic,
		}, log)
		if err != nil {
			return fmt.Errorf("creating kafka publisher: %w", err)
		}
		publisher = kp
		cleanups = append(cleanups, func() { _ = kp.Close() })
	}

	var analyticsCache analytics.Cache
	if f.redisAddrs != "" {
		rc, err := analytics.NewRedisCacheFromAddrs(strings.Split(f.redisAddrs, ","), "", 0)
		if err != nil {
			return fmt.Errorf("creating analytics redis cache: %w", err)
		}
		analyticsCache = rc
		cleanups = append(cleanups, func() { _ = rc.Close() })
	}

	var archiver *archive.Archiver
	if f.coldBucket != "" {
		archiver, err = archive.NewArchiver(ctx, archive.S3Config{
			Bucket:   f.coldBucket,
			Region:   f.coldRegion,
			Endpoint: f.coldEndpoint,
		})
		if err != nil {
			return fmt.Errorf("creating archiver: %w", err)
		}
	}

	manager, err := core.New(core.Config{
		SourcePool:     sourcePool,
		TargetPool:     targetPool,
		Provider:       provider,
		Archiver:       archiver,
		Publisher:      publisher,
		AnalyticsCache: analyticsCache,
		Metrics: core.Metrics{
			Sync:      metrics.NewSyncMetrics(),
			Analytics: metrics.NewAnalyticsMetrics(),
			Scheduler: metrics.NewSchedulerMetrics(),
		},
		SchedulerConfig: scheduler.DefaultConfig(),
		Log:             log,
	})
	if err != nil {
		return fmt.Errorf("building core manager: %w", err)
	}

	if err := manager.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing core manager: %w", err)
	}

	log.Info("etl-worker started")
	<-ctx.Done()
	log.Info("shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := manager.Stop(stopCtx); err != nil && stopCtx.Err() == nil {
		log.Warnw("manager stop returned error", "error", err)
	}
	return nil
}

func buildProvider(f *flags) (configprovider.ConfigProvider, error) {
	validator := tableconfig.NewValidator()
	if f.staticConfig != "" {
		return configprovider.LoadStaticProvider(f.staticConfig, validator)
	}
	if f.remoteBaseURL == "" {
		return nil, fmt.Errorf("one of --static-config or --remote-config-url is required")
	}
	if f.remoteSignKey == "" {
		return nil, fmt.Errorf("--remote-config-url requires REMOTE_CONFIG_SIGNING_KEY")
	}
	if f.redisAddrs == "" {
		return nil, fmt.Errorf("--remote-config-url requires --redis-addrs for response caching")
	}
	redisClient := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: strings.Split(f.redisAddrs, ","),
	})
	return configprovider.NewRemoteProvider(
		f.remoteBaseURL, []byte(f.remoteSignKey), f.remoteService, redisClient,
		configprovider.WithTableValidator(validator),
	), nil
}

func startMetricsServer(addr string, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infow("starting metrics server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("metrics server error", "error", err)
		}
	}()
	return srv
}
