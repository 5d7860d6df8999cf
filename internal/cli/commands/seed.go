package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"decoyfs/internal/config"
	"decoyfs/internal/jail"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a jail for every configured protocol and report the outcome",
	Long: `Builds a fresh in-memory jail for each protocol in settings by mirroring
its source directory, then discards them. Jails are rebuilt per session, so
nothing persists; this doubles as a configuration and source-tree check
before wiring up emulators.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		if len(settings.Protocols) == 0 {
			return fmt.Errorf("no protocols configured in %s", config.SettingsPath())
		}

		root := jail.NewRoot()
		failures := 0
		for _, pc := range settings.Protocols {
			j, err := jail.New(root, pc.Name, pc.SourceDir, pc.Ignores)
			if err != nil {
				failures++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %-12s %v\n", pc.Name, err)
				continue
			}
			names, err := j.List("/")
			if err != nil {
				failures++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %-12s %v\n", pc.Name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK    %-12s %s -> %s (%d entries)\n",
				pc.Name, pc.SourceDir, j.Home(), len(names))
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d protocols failed to seed", failures, len(settings.Protocols))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
