package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/catalog"
)

var fetchLabel string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the live catalog feed and store it as a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		ctx := cmd.Context()

		client := catalog.NewClient(cfg.Catalog)
		records, err := client.FetchAll(ctx)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.Save(ctx, fetchLabel, records)
		if err != nil {
			return err
		}

		zap.L().Info("catalog snapshot stored",
			zap.String("id", snap.ID),
			zap.Int("records", snap.RecordCount),
		)
		fmt.Printf("snapshot %s: %d records\n", snap.ID, snap.RecordCount)
		return nil
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored catalog snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		snaps, err := store.List(ctx, 20)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			fmt.Printf("%s  %-20s %5d records  %s\n",
				s.ID, s.Label, s.RecordCount, s.TakenAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchLabel, "label", "catalog", "snapshot label")
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
