package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/export"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/ingest"
)

func exportCmd() *cobra.Command {
	var dir, out, formatStr string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Normalize every raw page JSON file in a directory and write a ZIP export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := export.ParseFormat(formatStr)
			if err != nil {
				return err
			}
			logger := slog.Default()

			var items []export.Item
			results, stats, err := ingest.ScanDirectory(cmd.Context(), dir, ingest.RawPageExts, true,
				func(_ context.Context, path string) (string, error) {
					pages, err := ingest.LoadRawPages(path)
					if err != nil {
						return "", err
					}
					items = append(items, export.Item{
						ID:       path,
						Name:     filepath.Base(path),
						Document: freight.Normalize(pages),
					})
					return path, nil
				})
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Err != "" {
					logger.Warn("batch.export.read_failed", "path", r.Path, "error", r.Err)
				}
			}

			f, rep, err := export.NewService(logger).ExportBulk(items, format)
			if err != nil {
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
	cmd.Flags().StringVar(&dir, "dir", "", "directory of raw page JSON files (required)")
	cmd.Flags().StringVar(&out, "out", "", "output ZIP path (defaults to the parent of --dir)")
	cmd.Flags().StringVar(&formatStr, "format", string(constants.ExportCSV), "export format: csv, json, quickbooks or xlsx")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func printSummary(w io.Writer, stats ingest.DirStats, rep export.BulkReport, out string) {
	_, _ = fmt.Fprintf(w, "files: %d matched, %d failed\n", stats.Matched, stats.Failed)
	_, _ = fmt.Fprintf(w, "documents: %d exported, %d skipped (not ready)\n", rep.Exported, rep.Skipped)
	if out != "" {
		_, _ = fmt.Fprintf(w, "wrote %s\n", out)
	}
}
