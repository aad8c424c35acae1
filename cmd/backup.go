package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SeJohnEff/simprov/internal/domain"
)

func newBackupCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive and restore card records",
	}

	cmd.AddCommand(newBackupCreateCmd(app), newBackupRestoreCmd(app))

	return cmd
}

func newBackupCreateCmd(app *app) *cobra.Command {
	var csvPath string
	var row int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write one batch record to a timestamped backup file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(cmd, app, csvPath, row)
			if err != nil {
				return err
			}

			path, err := app.backups.Create(cmd.Context(), record)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().IntVar(&row, "row", 0, "Row to back up (1-based)")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("row")

	return cmd
}

func newBackupRestoreCmd(app *app) *cobra.Command {
	var backupPath string
	var csvPath string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a backup file, optionally appending it to a batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := app.backups.Restore(cmd.Context(), backupPath)
			if err != nil {
				return err
			}

			if csvPath != "" {
				batch, err := app.batchService.Load(cmd.Context(), csvPath)
				if err != nil {
					return err
				}
				batch.Add(record)
				if err := app.batchService.Save(cmd.Context(), csvPath, batch); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored as row %d of %s\n", batch.Len(), csvPath)
				return nil
			}

			for _, column := range domain.StandardColumns {
				if value := record.Get(column); value != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", column, value)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backupPath, "file", "", "Backup file to restore")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file to append the record to")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
