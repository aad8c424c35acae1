package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SeJohnEff/simprov/internal/application"
)

func newRunCmd(app *app) *cobra.Command {
	var csvPath string
	var adm1 string
	var force bool
	var noVerify bool
	var withBackup bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision every record of a batch, one card at a time",
		Long:  "run validates, programs, and verifies each record of the batch in order. Failures are collected per record and reported at the end; one bad card never aborts the rest of the batch.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, err := app.batchService.Load(cmd.Context(), csvPath)
			if err != nil {
				return err
			}

			session := app.newSession()
			opts := application.RunOptions{
				ADM1:   adm1,
				Force:  force,
				Verify: !noVerify,
				Backup: withBackup,
			}

			var report application.RunReport
			runBatch := func() {
				report = app.batchService.Run(cmd.Context(), session, batch, opts)
			}

			if asJSON {
				runBatch()
			} else if err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(),
				fmt.Sprintf("Provisioning %d records...", batch.Len()), runBatch); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				rendered, err := app.reportRenderer(report)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
					return err
				}
			}

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d records failed", report.Failed, report.Processed())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().StringVar(&adm1, "adm1", "", "Fallback ADM1 key for records without one")
	cmd.Flags().BoolVar(&force, "force", false, "Proceed despite a low attempt counter (risky)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the post-programming verification read")
	cmd.Flags().BoolVar(&withBackup, "backup", false, "Archive each record before programming it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}
