package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/motorgrid/lotsync/internal/export"
)

var (
	exportSnapshot string
	exportOutput   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored snapshot to XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		id := exportSnapshot
		if id == "" {
			snap, _, err := store.Latest(ctx)
			if err != nil {
				return err
			}
			if snap == nil {
				return eris.New("no stored snapshot; run fetch first")
			}
			id = snap.ID
		}

		records, err := store.Records(ctx, id)
		if err != nil {
			return err
		}
		if err := export.WriteRecordSet(exportOutput, "Catalog", records); err != nil {
			return err
		}

		fmt.Printf("%d records exported to %s\n", len(records), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSnapshot, "snapshot", "", "snapshot id (default latest)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "catalog.xlsx", "output path")
	rootCmd.AddCommand(exportCmd)
}
