package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "simprov",
		Short:         "simprov: provision and verify SIM card batches",
		Long:          "simprov prepares batches of SIM provisioning records (ICCID, IMSI, Ki, OPc, ADM1), validates them before anything touches a card, and drives the sysmo-usim-tool CLI to program and verify cards one at a time.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newBatchCmd(app),
		newCardCmd(app),
		newRunCmd(app),
		newBackupCmd(app),
	)

	return rootCmd
}
