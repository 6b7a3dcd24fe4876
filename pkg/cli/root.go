package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/config"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage/sqldb"
)

const name = "spicectl"

// overridden during build with ldflags
var version = "dev"

// NewRootCommand builds the spicectl command tree
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               version,
		EnableShellCompletion: true,
		Usage:                 "Administer the recipe catalogue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("SPICE_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "db-driver",
				Usage: "database driver (sqlite or postgres), overrides SPICE_DB_DRIVER",
			},
			&cli.StringFlag{
				Name:  "db-url",
				Usage: "database URL, overrides SPICE_DB_URL",
			},
		},
		Commands: []*cli.Command{
			migrateCmd(),
			seedCmd(),
			importCmd(),
			exportCmd(),
			purgeTokensCmd(),
		},
	}
}

// Execute runs spicectl with the process arguments and exits non-zero on error.
// SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := NewRootCommand().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cli.Command) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(errWriter(cmd))
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

// storageConfig loads SPICE_DB_* settings and applies flag overrides
func storageConfig(cmd *cli.Command) (storage.Config, error) {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return storage.Config{}, err
	}
	if driver := cmd.String("db-driver"); driver != "" {
		cfg.Driver = strings.ToLower(driver)
	}
	if url := cmd.String("db-url"); url != "" {
		cfg.DatabaseURL = url
	}
	if err := cfg.Validate(); err != nil {
		return storage.Config{}, err
	}
	return cfg, nil
}

// openStore connects to the database, migrating first when migrate is set
// and auto-migration is enabled
func openStore(ctx context.Context, cfg storage.Config, migrate bool) (*sqldb.Store, error) {
	store, err := sqldb.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if migrate && cfg.AutoMigrate {
		if _, err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return store, nil
}
