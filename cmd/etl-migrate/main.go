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

// Command etl-migrate applies or rolls back the target database schema
// (data_sync_logs, sync_watermarks, sync_configurations, data_cache,
// user_analytics, affiliate_analytics, data_exports).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wagerflow/etlcore/internal/migrations"
	"github.com/wagerflow/etlcore/pkg/logging"
)

type flags struct {
	targetConn string
	direction  string
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.targetConn, "target-conn", "", "Target Postgres conn string")
	flag.StringVar(&f.direction, "direction", "up", `Migration direction: "up", "down", or "version"`)
	flag.Parse()

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
	if f.targetConn == "" {
		return fmt.Errorf("--target-conn/TARGET_CONN is required")
	}

	log, sync, err := logging.NewLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer sync()

	mg, err := migrations.NewMigrator(f.targetConn, log)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() { _ = mg.Close() }()

	switch f.direction {
	case "up":
		return mg.Up()
	case "down":
		return mg.Down()
	case "version":
		v, dirty, err := mg.Version()
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unrecognized -direction %q (want \"up\", \"down\", or \"version\")", f.direction)
	}
}
