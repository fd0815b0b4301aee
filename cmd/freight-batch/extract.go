package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/export"
	"github.com/joseph-ayodele/freight-reader/internal/ingest"
	"github.com/joseph-ayodele/freight-reader/internal/intake"
	repo "github.com/joseph-ayodele/freight-reader/internal/repository"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
	"github.com/joseph-ayodele/freight-reader/internal/vision/anthropic"
)

const batchUser = "local-batch"

func extractCmd() *cobra.Command {
	var (
		dir, out, formatStr string
		watch               bool
		debounce            time.Duration
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract page images in a directory through the vision model and store the records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := slog.Default()

			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			db, err := repo.Open(ctx, repo.Config{
				Driver:          cfg.Database.Driver,
				DSN:             cfg.Database.DSN,
				MaxConns:        cfg.Database.MaxConns,
				MinConns:        cfg.Database.MinConns,
				MaxConnLifetime: cfg.Database.MaxConnLifetime,
				MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
				DialTimeout:     cfg.Database.DialTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			client := anthropic.NewClient(anthropic.Config{
				APIKey:    cfg.Vision.APIKey,
				BaseURL:   cfg.Vision.BaseURL,
				Model:     cfg.Vision.Model,
				MaxTokens: cfg.Vision.MaxTokens,
				Timeout:   cfg.Vision.Timeout,
				Retries:   cfg.Vision.Retries,
				RPS:       cfg.Vision.RPS,
			}, logger)
			runner := vision.NewRunner(client, logger,
				vision.WithWorkers(cfg.Intake.Workers),
				vision.WithTimeout(cfg.Intake.ExtractTimeout),
				vision.WithMaxPages(cfg.Intake.MaxPages),
			)
			svc := intake.NewService(repo.NewDocumentRepository(db, logger), runner, export.NewService(logger), logger)

			submit := func(ctx context.Context, path string) (string, error) {
				pages, err := ingest.LoadPageImage(path)
				if err != nil {
					return "", err
				}
				rec, err := svc.Submit(ctx, batchUser, filepath.Base(path), pages)
				if err != nil {
					return "", err
				}
				logger.Info("batch.extract.stored",
					"path", path,
					"record_id", rec.ID,
					"ready", rec.Document != nil && rec.Document.ReadyForExport,
				)
				return rec.ID.String(), nil
			}

			if watch {
				return watchDirectory(ctx, dir, debounce, submit, logger)
			}

			_, stats, err := ingest.ScanDirectory(ctx, dir, ingest.ImageExts, true, submit)
			if err != nil {
				return err
			}
			if formatStr == "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "files: %d matched, %d stored, %d failed\n",
					stats.Matched, stats.Succeeded, stats.Failed)
				return nil
			}

			format, err := export.ParseFormat(formatStr)
			if err != nil {
				return err
			}
			f, rep, err := svc.ExportAll(ctx, batchUser, format)
			if err != nil {
				if errors.Is(err, common.ErrNothingToExport) {
					printSummary(cmd.OutOrStdout(), stats, rep, "")
				}
				return err
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(filepath.Clean(dir)), f.Name)
			}
			if err := os.WriteFile(out, f.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			printSummary(cmd.OutOrStdout(), stats, rep, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of page images (required)")
	cmd.Flags().StringVar(&out, "out", "", "output ZIP path when --format is set")
	cmd.Flags().StringVar(&formatStr, "format", "", "also export every stored document: csv, json, quickbooks or xlsx")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and extract new images as they appear")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a new file is picked up")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func watchDirectory(ctx context.Context, dir string, debounce time.Duration, submit ingest.HandleFunc, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		AllowedExts: ingest.ImageExts,
		InitialScan: true,
		Debounce:    debounce,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("batch.watch.started", "dir", dir)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				logger.Info("batch.watch.stopped", "dir", dir)
				return nil
			}
			if _, err := submit(ctx, path); err != nil {
				logger.Warn("batch.watch.submit_failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("batch.watch.error", "error", err)
			}
		}
	}
}
