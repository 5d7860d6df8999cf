package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"decoyfs/internal/capture"
	"decoyfs/internal/config"
)

var (
	capturesLimit   int
	capturesSession string
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "List recorded uploads from the capture index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		idx, err := capture.OpenIndex(settings.CaptureIndex)
		if err != nil {
			return err
		}
		defer idx.Close()

		var recs []capture.UploadRecord
		if capturesSession != "" {
			recs, err = idx.BySession(cmd.Context(), capturesSession)
		} else {
			recs, err = idx.Recent(cmd.Context(), capturesLimit)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tPROTOCOL\tSESSION\tSIZE\tORIGINAL\tSTORED")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.Protocol, r.SessionID, r.Size, r.OriginalName, r.StoredName)
		}
		return w.Flush()
	},
}

func init() {
	capturesCmd.Flags().IntVar(&capturesLimit, "limit", 50, "maximum number of records to show")
	capturesCmd.Flags().StringVar(&capturesSession, "session", "", "show only records for one session ID")
	rootCmd.AddCommand(capturesCmd)
}
