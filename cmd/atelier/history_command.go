package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"atelier/internal/history"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List published listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No published listings recorded.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					fmt.Sprintf("%d", record.ListingID),
					record.Title,
					record.InputName,
					record.ShopID,
					record.CreatedAt.Local().Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					numericColumn("Listing"),
					textColumn("Title"),
					textColumn("Input"),
					textColumn("Shop"),
					textColumn("Published"),
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of records to show (0 for all)")
	return cmd
}
