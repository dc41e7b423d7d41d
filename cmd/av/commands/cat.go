package commands

import (
	"fmt"
	"io"
	"os"

	"archivault/pkg/client"
	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var catVersion string

var catCmd = &cobra.Command{
	Use:   "cat [path]",
	Short: "Show datastream content",
	Long:  `Stream datastream content to stdout. Binary content can be redirected with > file.bin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}

		var ds *client.Datastream
		if catVersion != "" {
			ds, err = AV.GetDatastreamVersion(cmd.Context(), path, catVersion)
		} else {
			ds, err = AV.GetDatastream(cmd.Context(), path)
		}
		if err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}

		rc, err := ds.Content(cmd.Context())
		if err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		defer rc.Close()

		if _, err := io.Copy(os.Stdout, rc); err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		return nil
	},
}

func init() {
	catCmd.Flags().StringVar(&catVersion, "version", "", "Read a named version snapshot instead of the live content")
	rootCmd.AddCommand(catCmd)
}
