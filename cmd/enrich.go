package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/motorgrid/lotsync/internal/enrich"
	"github.com/motorgrid/lotsync/internal/export"
	"github.com/motorgrid/lotsync/internal/matching"
	"github.com/motorgrid/lotsync/pkg/anthropic"
)

var (
	enrichInput  string
	enrichSheet  string
	enrichOutput string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Match a stock snapshot and enrich confident matches with technical data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		ctx := cmd.Context()

		sources, cleanup, err := readSources(ctx, enrichInput, enrichSheet)
		defer cleanup()
		if err != nil {
			return err
		}

		catalogRecords, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		selector := matching.NewSelector(cfg.Matcher)
		matches, err := selector.SelectAll(ctx, sources, catalogRecords)
		if err != nil {
			return err
		}

		enricher := enrich.NewEnricher(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic, cfg.Batch)
		results, err := enricher.EnrichAll(ctx, matches)
		if err != nil {
			return err
		}

		if err := export.WriteEnrichReport(enrichOutput, results); err != nil {
			return err
		}

		fmt.Printf("%d records enriched, report: %s\n", len(results), enrichOutput)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "stock snapshot (xlsx path or ftp:// URL, default feed.ftp_url)")
	enrichCmd.Flags().StringVar(&enrichSheet, "sheet", "", "sheet name (default first sheet)")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "enriched.xlsx", "enrichment report path")
	rootCmd.AddCommand(enrichCmd)
}
