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

// Command etl-sync runs a single full or incremental sync pass (or one
// table via -table) and exits, for manual operator runs and cron-less
// deployments that drive the scheduler externally.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wagerflow/etlcore/internal/configprovider"
	"github.com/wagerflow/etlcore/internal/core"
	"github.com/wagerflow/etlcore/internal/etl"
	"github.com/wagerflow/etlcore/internal/scheduler"
	"github.com/wagerflow/etlcore/internal/tableconfig"
	"github.com/wagerflow/etlcore/pkg/logging"
	"github.com/wagerflow/etlcore/pkg/metrics"
)

type flags struct {
	sourceConn   string
	targetConn   string
	staticConfig string
	mode         string
	table        string
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.sourceConn, "source-conn", "", "Source Postgres conn string")
	flag.StringVar(&f.targetConn, "target-conn", "", "Target Postgres conn string")
	flag.StringVar(&f.staticConfig, "static-config", "", "Path to static YAML config")
	flag.StringVar(&f.mode, "mode", "full", `Sync mode: "full" or "incremental"`)
	flag.StringVar(&f.table, "table", "", "Sync only this table (default: every enabled table)")
	flag.Parse()

	if f.sourceConn == "" {
		f.sourceConn = os.Getenv("SOURCE_CONN")
	}
	if f.targetConn == "" {
		f.targetConn = os.Getenv("TARGET_CONN")
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
	if f.sourceConn == "" || f.targetConn == "" {
		return fmt.Errorf("--source-conn/SOURCE_CONN and --target-conn/TARGET_CONN are required")
	}
	if f.staticConfig == "" {
		return fmt.Errorf("--static-config is required")
	}

	mode, err := parseMode(f.mode)
	if err != nil {
		return err
	}

	zapLog, err := logging.NewZapLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()
	log := zapLog.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	provider, err := configprovider.LoadStaticProvider(f.staticConfig, tableconfig.NewValidator())
	if err != nil {
		return fmt.Errorf("loading static config: %w", err)
	}

	manager, err := core.New(core.Config{
		SourcePool: sourcePool,
		TargetPool: targetPool,
		Provider:   provider,
		Metrics: core.Metrics{
			Sync: metrics.NewSyncMetrics(),
		},
		SchedulerConfig: scheduler.DefaultConfig(),
		Log:             log,
	})
	if err != nil {
		return fmt.Errorf("building core manager: %w", err)
	}

	if f.table != "" {
		result, err := manager.SyncTable(ctx, f.table, mode, etl.SyncOpts{})
		log.Infow("table sync finished", "table", f.table, "mode", mode,
			"recordsProcessed", result.RecordsProcessed, "recordsFailed", result.RecordsFailed)
		if err != nil {
			return fmt.Errorf("syncing table %q: %w", f.table, err)
		}
		return nil
	}

	switch mode {
	case etl.ModeFull:
		err = manager.RunFullSync(ctx)
	case etl.ModeIncremental:
		err = manager.RunIncrementalSync(ctx)
	}
	if err != nil {
		return fmt.Errorf("running %s sync: %w", mode, err)
	}
	log.Infow("sync finished", "mode", mode)
	return nil
}

func parseMode(s string) (etl.SyncMode, error) {
	switch s {
	case "full":
		return etl.ModeFull, nil
	case "incremental":
		return etl.ModeIncremental, nil
	default:
		return "", fmt.Errorf("unrecognized -mode %q (want \"full\" or \"incremental\")", s)
	}
}
