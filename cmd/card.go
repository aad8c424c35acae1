package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SeJohnEff/simprov/internal/application"
	"github.com/SeJohnEff/simprov/internal/domain"
)

func newCardCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Operate on the card in the reader",
	}

	cmd.AddCommand(
		newCardDetectCmd(app),
		newCardStatusCmd(app),
		newCardReadCmd(app),
		newCardProgramCmd(app),
		newCardVerifyCmd(app),
	)

	return cmd
}

func newCardDetectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Probe the card tool and reader",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.newSession()
			defer session.Disconnect()

			message, err := session.Detect(cmd.Context())
			if err != nil {
				return cardError(err, message)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), message)

			rendered, err := app.statusRenderer(session.Status())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

func newCardStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the card status panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.newSession()
			defer session.Disconnect()

			// A failed probe still renders: the panel then shows the
			// idle state instead of an error.
			_, _ = session.Detect(cmd.Context())

			rendered, err := app.statusRenderer(session.Status())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}

func newCardReadCmd(app *app) *cobra.Command {
	var adm1 string
	var force bool

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Authenticate and read the card's identity data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.newSession()
			defer session.Disconnect()

			if err := detectAndAuthenticate(cmd, session, adm1, force); err != nil {
				return err
			}

			fields, err := session.ReadCardData(cmd.Context())
			if err != nil {
				return cardError(err, "")
			}

			for _, column := range domain.StandardColumns {
				if value := fields.Get(column); value != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", column, value)
				}
			}

			rendered, err := app.statusRenderer(session.Status())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	addAuthFlags(cmd, &adm1, &force)

	return cmd
}

func newCardProgramCmd(app *app) *cobra.Command {
	var csvPath string
	var row int
	var adm1 string
	var force bool
	var withBackup bool

	cmd := &cobra.Command{
		Use:   "program",
		Short: "Program one batch record onto the card",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(cmd, app, csvPath, row)
			if err != nil {
				return err
			}

			session := app.newSession()
			defer session.Disconnect()

			if err := detectAndAuthenticate(cmd, session, recordADM1(record, adm1), force); err != nil {
				return err
			}

			if withBackup {
				path, err := app.backups.Create(cmd.Context(), record)
				if err != nil {
					return fmt.Errorf("create backup: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s\n", path)
			}

			message, err := session.ProgramCard(cmd.Context(), record)
			if err != nil {
				return cardError(err, message)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
			return err
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().IntVar(&row, "row", 0, "Row to program (1-based)")
	cmd.Flags().BoolVar(&withBackup, "backup", false, "Archive the record before programming")
	addAuthFlags(cmd, &adm1, &force)
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("row")

	return cmd
}

func newCardVerifyCmd(app *app) *cobra.Command {
	var csvPath string
	var row int
	var adm1 string
	var force bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the card against one batch record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := loadRecord(cmd, app, csvPath, row)
			if err != nil {
				return err
			}

			session := app.newSession()
			defer session.Disconnect()

			if err := detectAndAuthenticate(cmd, session, recordADM1(record, adm1), force); err != nil {
				return err
			}

			mismatches, err := session.VerifyCard(cmd.Context(), record)
			if err != nil {
				return cardError(err, "")
			}

			if len(mismatches) > 0 {
				return fmt.Errorf("verification failed, mismatched fields: %s", strings.Join(mismatches, ", "))
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Card matches the record")
			return err
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Batch CSV file")
	cmd.Flags().IntVar(&row, "row", 0, "Row to verify against (1-based)")
	addAuthFlags(cmd, &adm1, &force)
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("row")

	return cmd
}

func addAuthFlags(cmd *cobra.Command, adm1 *string, force *bool) {
	cmd.Flags().StringVar(adm1, "adm1", "", "ADM1 key (8 characters)")
	cmd.Flags().BoolVar(force, "force", false, "Proceed despite a low attempt counter (risky)")
}

func detectAndAuthenticate(cmd *cobra.Command, session *application.CardSession, adm1 string, force bool) error {
	message, err := session.Detect(cmd.Context())
	if err != nil {
		return cardError(err, message)
	}

	if _, err := session.Authenticate(cmd.Context(), adm1, force); err != nil {
		return cardError(err, "")
	}

	return nil
}

func loadRecord(cmd *cobra.Command, app *app, csvPath string, row int) (domain.Record, error) {
	batch, err := app.batchService.Load(cmd.Context(), csvPath)
	if err != nil {
		return nil, err
	}

	record, ok := batch.Get(row - 1)
	if !ok {
		return nil, fmt.Errorf("row %d: %w", row, domain.ErrRecordNotFound)
	}
	return record, nil
}

func recordADM1(record domain.Record, fallback string) string {
	if adm1 := record.Get(domain.FieldADM1); adm1 != "" {
		return adm1
	}
	return fallback
}

// cardError turns session errors into actionable messages: what went
// wrong and what the operator can do about it.
func cardError(err error, output string) error {
	switch {
	case errors.Is(err, domain.ErrConfirmationRequired):
		return fmt.Errorf("%w; re-run with --force once you are certain the ADM1 key is correct — a wrong key locks the card", err)
	case errors.Is(err, domain.ErrCardLocked):
		return fmt.Errorf("%w: the card reports no authentication attempts left", err)
	case errors.Is(err, domain.ErrToolExecutionFailed):
		// The invoker already wraps the captured tool output.
		return err
	case errors.Is(err, domain.ErrToolNotFound), errors.Is(err, domain.ErrScriptNotFound):
		if output != "" {
			return fmt.Errorf("%w: %s", err, output)
		}
		return err
	case output != "":
		return fmt.Errorf("%w: %s", err, output)
	default:
		return err
	}
}
