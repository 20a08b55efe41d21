package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/motorgrid/lotsync/internal/catalog"
	"github.com/motorgrid/lotsync/internal/export"
	"github.com/motorgrid/lotsync/internal/model"
	"github.com/motorgrid/lotsync/internal/reconcile"
)

var (
	reconcileDir   string
	reconcilePrior string
	reconcileSave  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a prior snapshot against the live feed",
	Long: "Partitions the prior snapshot and the fresh feed into unchanged, modified, new " +
		"and deleted records, writes the reports and optionally stores the merged result " +
		"as the new snapshot. The prior side defaults to the latest stored snapshot; " +
		"--prior points it at a previously exported XLSX instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		var prior []model.CatalogRecord
		if reconcilePrior != "" {
			prior, err = export.ReadRecordSet(reconcilePrior, "")
			if err != nil {
				return err
			}
		} else {
			snap, records, err := store.Latest(ctx)
			if err != nil {
				return err
			}
			if snap == nil {
				return eris.New("no prior snapshot; run fetch first or pass --prior")
			}
			prior = records
		}

		fresh, err := catalog.NewClient(cfg.Catalog).FetchAll(ctx)
		if err != nil {
			return err
		}

		engine, err := reconcile.NewEngine(cfg.Reconcile)
		if err != nil {
			return err
		}
		partition := engine.Reconcile(prior, fresh)

		dir := reconcileDir
		if dir == "" {
			dir = cfg.Export.Dir
		}
		if err := export.WriteReconcileReport(filepath.Join(dir, "reconcile.xlsx"), partition); err != nil {
			return err
		}
		if err := export.WriteFinalSet(filepath.Join(dir, "final.xlsx"), partition); err != nil {
			return err
		}
		if cfg.Export.Format == "yaml" {
			if err := export.WriteReconcileYAML(filepath.Join(dir, "reconcile.yaml"), partition); err != nil {
				return err
			}
		}

		if reconcileSave {
			merged, err := store.Save(ctx, "reconciled", partition.Merged())
			if err != nil {
				return err
			}
			fmt.Printf("merged snapshot stored: %s\n", merged.ID)
		}

		fmt.Println(partition.String())
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileDir, "output-dir", "", "report directory (default from config)")
	reconcileCmd.Flags().StringVar(&reconcilePrior, "prior", "", "exported XLSX to reconcile against (default latest stored snapshot)")
	reconcileCmd.Flags().BoolVar(&reconcileSave, "save", false, "store the merged result as the new snapshot")
	rootCmd.AddCommand(reconcileCmd)
}
