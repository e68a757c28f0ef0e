/*
main.go - Schema migration tool

PURPOSE:
  Applies or rolls back the embedded SQLite migrations outside the server.
  The server migrates on startup; this tool is for inspection and rollback.

USAGE:
  migrate [-db path] up          Apply all pending migrations
  migrate [-db path] down        Roll back every migration (drops all data)
  migrate [-db path] steps N     Apply N migrations (negative rolls back)
  migrate [-db path] version     Print the current schema version

SEE ALSO:
  - store/sqlite/migrate.go: Migrator
*/
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pvzops/workforce-engine/config"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/pvzops/workforce-engine/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-db path] up|down|steps N|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg.Database.Path, flag.Args(), log); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
}

func run(path string, args []string, log *zap.Logger) error {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	m, err := sqlite.NewMigrator(db, log)
	if err != nil {
		return err
	}

	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		if len(args) < 2 {
			return fmt.Errorf("steps requires a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[1], err)
		}
		return m.Steps(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
