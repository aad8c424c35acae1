package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeJohnEff/simprov/internal/domain"
)

func newBatchCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Edit and validate provisioning batch files",
	}

	cmd.AddCommand(
		newBatchValidateCmd(app),
		newBatchListCmd(app),
		newBatchAddCmd(app),
		newBatchRemoveCmd(app),
		newBatchSetCmd(app),
		newBatchImportParamsCmd(app),
	)

	return cmd
}

func newBatchValidateCmd(app *app) *cobra.Command {
	var csvPath string
	var row int

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate batch records against the field format rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			var defects []domain.Defect
			if row > 0 {
				defects = batch.ValidateRecord(row - 1)
			} else {
				defects = batch.ValidateAll()
			}

			rendered, err := app.defectsRenderer(defects)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
				return err
			}
			if len(defects) > 0 {
				return fmt.Errorf("%d validation defects", len(defects))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().IntVar(&row, "row", 0, "Validate a single row (1-based; 0 validates all)")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func newBatchListCmd(app *app) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batch records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			for i, record := range batch.Records() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n",
					i+1, record.Get(domain.FieldIMSI), record.Get(domain.FieldICCID))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "records: %d\n", batch.Len())

			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func newBatchAddCmd(app *app) *cobra.Command {
	var csvPath string
	var fields []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a record to the batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			record, err := parseFieldAssignments(fields)
			if err != nil {
				return err
			}
			batch.Add(record)

			if err := app.batchService.Save(cmd.Context(), csvPath, batch); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added row %d\n", batch.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field assignment FIELD=VALUE (repeatable; empty row if omitted)")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func newBatchRemoveCmd(app *app) *cobra.Command {
	var csvPath string
	var row int

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a record from the batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			if !batch.Remove(row - 1) {
				return fmt.Errorf("row %d: %w", row, domain.ErrRecordNotFound)
			}

			if err := app.batchService.Save(cmd.Context(), csvPath, batch); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed row %d, %d records remain\n", row, batch.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().IntVar(&row, "row", 0, "Row to remove (1-based)")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("row")

	return cmd
}

func newBatchSetCmd(app *app) *cobra.Command {
	var csvPath string
	var row int
	var field string
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set one field of a batch record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			if !batch.Update(row-1, field, value) {
				return fmt.Errorf("row %d: %w", row, domain.ErrRecordNotFound)
			}

			return app.batchService.Save(cmd.Context(), csvPath, batch)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().IntVar(&row, "row", 0, "Row to update (1-based)")
	cmd.Flags().StringVar(&field, "field", "", "Field name")
	cmd.Flags().StringVar(&value, "value", "", "Field value")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func newBatchImportParamsCmd(app *app) *cobra.Command {
	var csvPath string
	var paramsPath string

	cmd := &cobra.Command{
		Use:   "import-params",
		Short: "Import a key=value card parameter file as one record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			record, err := app.batchService.ImportParameters(cmd.Context(), batch, paramsPath)
			if err != nil {
				return err
			}

			if err := app.batchService.Save(cmd.Context(), csvPath, batch); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d fields as row %d\n", len(record), batch.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().StringVar(&paramsPath, "params", "", "key=value parameter file")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("params")

	return cmd
}

func parseFieldAssignments(assignments []string) (domain.Record, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	record := domain.Record{}
	for _, assignment := range assignments {
		field, value, found := strings.Cut(assignment, "=")
		if !found || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("%w: field assignment %q is not FIELD=VALUE", domain.ErrInvalidInput, assignment)
		}
		record[strings.TrimSpace(field)] = strings.TrimSpace(value)
	}
	return record, nil
}
