package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"modelfan/internal/config"
	"modelfan/internal/kvstore"
	"modelfan/internal/models"
)

const migrateUsage = `Usage:
  modelfan migrate --config <path>

Rewrites legacy bin records so every record carries createdAt/updatedAt
timestamps. Safe to run repeatedly.`

func migrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, migrateUsage)
	}

	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse migrate flags: %w", err)
	}

	if cfgPath == "" {
		return errors.New("migrate command requires --config <path>")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	store, err := kvstore.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return err
	}

	keys, err := store.List(ctx, "bin:")
	if err != nil {
		return fmt.Errorf("list bin records: %w", err)
	}

	migrated := 0
	for _, key := range keys {
		data, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("load record %q: %w", key, err)
		}

		var bin models.Bin
		if err := json.Unmarshal(data, &bin); err != nil {
			slog.Warn("skipping undecodable record", "key", key, "error", err)
			continue
		}

		if bin.CreatedAt != 0 && bin.UpdatedAt != 0 {
			continue
		}

		now := time.Now().Unix()
		if bin.CreatedAt == 0 {
			if bin.UpdatedAt != 0 {
				bin.CreatedAt = bin.UpdatedAt
			} else {
				bin.CreatedAt = now
			}
		}
		if bin.UpdatedAt == 0 {
			bin.UpdatedAt = bin.CreatedAt
		}

		updated, err := json.Marshal(bin)
		if err != nil {
			return fmt.Errorf("encode record %q: %w", key, err)
		}
		if err := store.Put(ctx, key, updated); err != nil {
			return fmt.Errorf("rewrite record %q: %w", key, err)
		}
		migrated++
	}

	slog.Info("migration complete", "scanned", len(keys), "migrated", migrated)
	return nil
}
