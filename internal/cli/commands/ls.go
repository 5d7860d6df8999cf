package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"decoyfs/internal/config"
	"decoyfs/internal/jail"
	"decoyfs/internal/listing"
)

var lsSourceDir string

var lsCmd = &cobra.Command{
	Use:   "ls <protocol> [path]",
	Short: "Seed a jail and render a directory listing as a client would see it",
	Long: `Seeds a fresh in-memory jail for the named protocol (from settings, or
--source) and prints the ls -lA rendering of the given jail path. Useful for
checking what a probing client will be shown before wiring up an emulator.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		protocol := args[0]
		target := "/"
		if len(args) == 2 {
			target = args[1]
		}

		sourceDir := lsSourceDir
		var ignores []string
		if sourceDir == "" {
			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}
			pc := settings.Protocol(protocol)
			if pc == nil {
				return fmt.Errorf("protocol %q not configured and no --source given", protocol)
			}
			sourceDir = pc.SourceDir
			ignores = pc.Ignores
		}

		j, err := jail.New(jail.NewRoot(), protocol, sourceDir, ignores)
		if err != nil {
			return err
		}
		names, err := j.List(target)
		if err != nil {
			return err
		}
		for line, err := range listing.FormatList(j, target, names) {
			if err != nil {
				return err
			}
			// Lines carry the protocol CRLF; terminal output keeps it.
			fmt.Fprint(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	lsCmd.Flags().StringVar(&lsSourceDir, "source", "", "source directory to mirror (overrides settings)")
	rootCmd.AddCommand(lsCmd)
}
