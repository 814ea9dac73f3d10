// Command migrate manages the Postgres schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/migration"
	"github.com/shop/backend/migrations"
	"go.uber.org/zap"
)

const usage = `Shop database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Force set migration version after a failed run
  create <name> [desc]  Create a new migration file pair
  list                  List migration files

Flags:
`

var errUsage = errors.New("usage")

// schemaCommand runs against a live database. minArgs counts arguments
// after the command name.
type schemaCommand struct {
	minArgs int
	run     func(m *migration.Migrator, log *zap.Logger, args []string) error
}

var schemaCommands = map[string]schemaCommand{
	"up":   {run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() }},
	"down": {run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() }},
	"step": {minArgs: 1, run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("step count %q: %w", args[0], err)
		}
		return m.Steps(n)
	}},
	"force": {minArgs: 1, run: func(m *migration.Migrator, log *zap.Logger, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version %q: %w", args[0], err)
		}
		log.Warn("Forcing migration version", zap.Int("version", version))
		return m.Force(version)
	}},
	"version": {run: func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}},
}

func main() {
	dir := flag.String("path", "", "Read migrations from this directory instead of the embedded set")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), "\nThe database is configured by config.toml or SHOP_DATABASE_* variables.")
	}
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: *logLevel, Format: "console", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(flag.Args(), *dir, log); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		log.Error("Migration command failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(args []string, dir string, log *zap.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	name, rest := args[0], args[1:]

	fileDir := dir
	if fileDir == "" {
		fileDir = "migrations"
	}
	switch name {
	case "create":
		if len(rest) == 0 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		description := ""
		if len(rest) > 1 {
			description = rest[1]
		}
		mf, err := migration.CreateMigration(fileDir, rest[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("version", mf.Version), zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil
	case "list":
		names, err := migration.ListMigrations(fileDir)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	cmd, ok := schemaCommands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if len(rest) < cmd.minArgs {
		return fmt.Errorf("%w: %s needs %d argument(s)", errUsage, name, cmd.minArgs)
	}

	m, closeDB, err := openMigrator(dir, log)
	if err != nil {
		return err
	}
	defer closeDB()

	log.Info("Running migration command", zap.String("command", name))
	return cmd.run(m, log, rest)
}

func openMigrator(dir string, log *zap.Logger) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver != "postgres" {
		return nil, nil, fmt.Errorf("migrations target postgres, configured driver is %s", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.New(db, migrations.FS, log)
	}
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return m, func() {
		m.Close()
		db.Close()
	}, nil
}
