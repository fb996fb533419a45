package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"blogledger/app/repositories"
	"blogledger/internal/config"

	"github.com/spf13/cobra"
)

var errInMemoryStore = errors.New("the store is configured in-memory, there is nothing on disk")

func openStore(cfg *config.Config) (*repositories.Repository, error) {
	// keep badger quiet on the terminal
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repositories.NewRepository(cfg.StorePath(), logger)
}

func backupCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup of the record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.StorePath() == "" {
				return errInMemoryStore
			}
			if _, err := os.Stat(cfg.StorePath()); os.IsNotExist(err) {
				return fmt.Errorf("no database exists at %s", cfg.StorePath())
			}
			if out == "" {
				out = filepath.Join("backups", fmt.Sprintf("backup_%d.db", time.Now().Unix()))
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return fmt.Errorf("failed to create backup directory: %w", err)
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer f.Close()

			if _, err := store.Backup(f); err != nil {
				return fmt.Errorf("failed to backup database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "backup file (default: backups/backup_<unix time>.db)")
	return cmd
}

func restoreCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the record store with the contents of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.StorePath() == "" {
				return errInMemoryStore
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()

			if _, err := os.Stat(cfg.StorePath()); err == nil {
				if !force {
					return fmt.Errorf("a database already exists at %s, pass --force to replace it", cfg.StorePath())
				}
				if err := os.RemoveAll(cfg.StorePath()); err != nil {
					return fmt.Errorf("failed to remove existing database: %w", err)
				}
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Restore(f); err != nil {
				return fmt.Errorf("failed to restore database: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing database")
	return cmd
}
