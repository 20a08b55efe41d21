package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/motorgrid/lotsync/internal/catalog"
	"github.com/motorgrid/lotsync/internal/export"
	"github.com/motorgrid/lotsync/internal/matching"
	"github.com/motorgrid/lotsync/internal/model"
)

var (
	matchInput   string
	matchSheet   string
	matchOutput  string
	matchOffline bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a stock snapshot against the catalog",
	Long: "Imports a dealer stock spreadsheet (local path or ftp:// URL), scores every row " +
		"against the catalog and writes a match report with confidence columns.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := matching.ValidateConfig(cfg.Matcher); err != nil {
			return err
		}

		sources, cleanup, err := readSources(ctx, matchInput, matchSheet)
		defer cleanup()
		if err != nil {
			return err
		}

		catalogRecords, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		selector := matching.NewSelector(cfg.Matcher)
		results, err := selector.SelectAll(ctx, sources, catalogRecords)
		if err != nil {
			return err
		}

		if err := export.WriteMatchReport(matchOutput, results); err != nil {
			return err
		}

		matched := 0
		for i := range results {
			if results[i].HasMatch() {
				matched++
			}
		}
		fmt.Printf("%d/%d rows matched, report: %s\n", matched, len(sources), matchOutput)
		return nil
	},
}

// loadCatalog returns the fresh feed, or the latest stored snapshot
// when --offline is set.
func loadCatalog(cmd *cobra.Command) ([]model.CatalogRecord, error) {
	ctx := cmd.Context()

	if matchOffline {
		store, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		snap, records, err := store.Latest(ctx)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, eris.New("no stored snapshot; run fetch first or drop --offline")
		}
		return records, nil
	}

	if err := cfg.Validate("fetch"); err != nil {
		return nil, err
	}
	return catalog.NewClient(cfg.Catalog).FetchAll(ctx)
}

func init() {
	matchCmd.Flags().StringVar(&matchInput, "input", "", "stock snapshot (xlsx path or ftp:// URL, default feed.ftp_url)")
	matchCmd.Flags().StringVar(&matchSheet, "sheet", "", "sheet name (default first sheet)")
	matchCmd.Flags().StringVar(&matchOutput, "output", "matches.xlsx", "match report path")
	matchCmd.Flags().BoolVar(&matchOffline, "offline", false, "use latest stored snapshot instead of the live feed")
	rootCmd.AddCommand(matchCmd)
}
