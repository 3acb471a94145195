package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/crosslist/backend/internal/infrastructure/config"
	"github.com/crosslist/backend/internal/infrastructure/logger"
	"github.com/crosslist/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "migrations", "path to the migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// create and list only touch the filesystem.
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("usage: migrate create <name>")
		}
		mf, err := migration.CreateMigration(migrationsPath, args[1])
		if err != nil {
			log.Fatal("create migration failed", zap.Error(err))
		}
		log.Info("migration created",
			zap.String("version", mf.Version),
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath),
		)
		return
	case "list":
		names, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("list migrations failed", zap.Error(err))
		}
		if len(names) == 0 {
			log.Info("no migrations found", zap.String("path", migrationsPath))
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load configuration failed", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("ping database failed", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("init migrator failed", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("migrate up failed", zap.Error(err))
		}
	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("migrate down failed", zap.Error(err))
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("read version failed", zap.Error(err))
		}
		if version == 0 {
			log.Info("no migrations applied yet")
			return
		}
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	default:
		log.Error("unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`crosslist schema migration tool

Usage:
  migrate [flags] <command>

Commands:
  up              apply all pending migrations
  down            roll back the most recent migration
  version         show the current schema version
  create <name>   create an empty up/down migration pair
  list            list migrations on disk

Flags:
  -path string       migrations directory (default "migrations")
  -log-level string  debug, info, warn, error (default "info")

Database connection comes from the server configuration (config file or
CROSSLIST_ environment overrides).`)
}
