package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/importer"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/maintenance"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage/sqldb"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := storageConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer store.Close()

			applied, err := store.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(outWriter(cmd), "Applied %d migrations, schema version %d\n", applied, version)
			return nil
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the default skill levels",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := storageConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()

			levels, err := importer.Seed(ctx, store)
			if err != nil {
				return err
			}
			for _, level := range levels {
				fmt.Fprintf(outWriter(cmd), "Skill level %d: %s\n", level.ID, level.Level)
			}
			return nil
		},
	}
}

func importCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import recipes from YAML files",
		Description: `Imports every .yaml and .yml file directly inside --dir. Categories,
ingredients and skill levels are created as needed.

With --watch the command keeps running and imports files as they are
written, until interrupted.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Usage:    "directory containing recipe files",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "keep importing files as they change",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "quiet period before a changed file is imported",
				Value: importer.DefaultDebounce,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := storageConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()

			dir := cmd.String("dir")
			im := importer.New(store, logger)
			report, err := im.ImportDir(ctx, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(outWriter(cmd), "Imported %d recipes from %d files (%d unchanged, %d failed)\n",
				report.Created, report.Files, report.Skipped, report.Failed)

			if cmd.Bool("watch") {
				return im.Watch(ctx, dir, cmd.Duration("debounce"))
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d recipes failed to import", report.Failed)
			}
			return nil
		},
	}
}

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a catalogue snapshot",
		Description: `Writes the whole catalogue as JSON. With --out the snapshot goes to a
local file; otherwise it is uploaded to the bucket named by SPICE_S3_BUCKET.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "write the snapshot to this file instead of S3",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := storageConfig(cmd)
			if err != nil {
				return err
			}

			var sink maintenance.SnapshotSink
			switch {
			case cmd.String("out") != "":
				sink = maintenance.FileSink{Path: cmd.String("out")}
			case cfg.SnapshotsEnabled():
				uploader, err := sqldb.NewSnapshotUploader(ctx, cfg)
				if err != nil {
					return err
				}
				if err := uploader.EnsureBucket(ctx); err != nil {
					return err
				}
				sink = uploader
			default:
				return fmt.Errorf("either --out or SPICE_S3_BUCKET is required")
			}

			store, err := openStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()

			location, err := maintenance.ExportSnapshot(ctx, store, sink)
			if err != nil {
				return err
			}
			fmt.Fprintf(outWriter(cmd), "Snapshot written to %s\n", location)
			return nil
		},
	}
}

func purgeTokensCmd() *cli.Command {
	return &cli.Command{
		Name:  "purge-tokens",
		Usage: "Delete revocation records for expired tokens",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := storageConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer store.Close()

			purged, err := maintenance.PurgeTokens(ctx, store, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(outWriter(cmd), "Purged %d expired revocations\n", purged)
			return nil
		},
	}
}
