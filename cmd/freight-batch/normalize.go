package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/ingest"
)

type normalizedFile struct {
	File     string            `json:"file"`
	Document *freight.Document `json:"document"`
}

func normalizeCmd() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "normalize FILE...",
		Short: "Normalize raw page JSON files into canonical records",
		Long: "Each FILE holds the raw extraction of one document: a single page object " +
			"or an array of pages. The canonical records are printed as a JSON array.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]normalizedFile, 0, len(args))
			for _, path := range args {
				pages, err := ingest.LoadRawPages(path)
				if err != nil {
					return err
				}
				out = append(out, normalizedFile{File: path, Document: freight.Normalize(pages)})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	return cmd
}
