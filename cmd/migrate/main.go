// Command migrate manages the POS schema. Without -dir, up, current and
// validate work from the migrations compiled into the binary; the other
// commands read SQL files from -dir.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/warung-pos/pkg/config"
	"github.com/angelmondragon/warung-pos/pkg/db"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/angelmondragon/warung-pos/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

type dbCommand func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error

var dbCommands = map[string]dbCommand{
	"up": func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
		if opts.dir == "" {
			results, err := migrate.Up(ctx, sqlDB, dialect)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", len(results))
			return nil
		}
		return migrate.Run(ctx, sqlDB, dialect, opts.dir, "up")
	},
	"current": func(ctx context.Context, sqlDB *sql.DB, dialect string, _ options) error {
		v, err := migrate.Version(ctx, sqlDB, dialect)
		if err != nil {
			return err
		}
		fmt.Println("schema version:", v)
		return nil
	},
	"down": needsDir(func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
		return migrate.Run(ctx, sqlDB, dialect, opts.dir, "down")
	}),
	"status": needsDir(func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
		return migrate.Run(ctx, sqlDB, dialect, opts.dir, "status")
	}),
	"version": needsDir(func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
		if opts.version == "" {
			return errors.New("-version is required")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	}),
}

func needsDir(cmd dbCommand) dbCommand {
	return func(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
		if opts.dir == "" {
			return errors.New("-dir is required for this command")
		}
		return cmd(ctx, sqlDB, dialect, opts)
	}
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|current|create|validate")
	var opts options
	flag.StringVar(&opts.dir, "dir", "", "migrations directory on disk (empty uses the embedded set)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmd, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd string, opts options) error {
	// file-only commands run without config or a database
	switch cmd {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required")
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		var err error
		if opts.dir == "" {
			err = migrate.ValidateFS(migrate.Migrations())
		} else {
			err = migrate.ValidateDir(opts.dir)
		}
		if err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	dbCmd, ok := dbCommands[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "cmd": cmd},
	})
	ctx := context.Background()

	dbClient, err := db.Open(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	logg.Info(logg.WithField(ctx, "dialect", dbClient.Dialect()), "running migration command")
	return dbCmd(ctx, sqlDB, dbClient.Dialect(), opts)
}
