package commands

import (
	"fmt"
	"os"

	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var (
	putContentType string
	putRedirect    string
)

var putCmd = &cobra.Command{
	Use:   "put [path] [file]",
	Short: "Create or replace datastream content",
	Long: `Upload a local file as datastream content at the given path.
With --redirect the datastream points at an external URL instead and no file is read;
the server dereferences the target on every read.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}

		if putRedirect != "" {
			if len(args) == 2 {
				return fmt.Errorf("cannot combine --redirect with a local file")
			}
			if _, err := AV.CreateOrUpdateRedirectDatastream(cmd.Context(), path, putRedirect); err != nil {
				return fmt.Errorf("put failed: %w", err)
			}
			fmt.Printf("%s -> %s\n", path, putRedirect)
			return nil
		}

		if len(args) != 2 {
			return fmt.Errorf("a local file is required unless --redirect is given")
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := AV.CreateDatastream(cmd.Context(), path, putContentType, f); err != nil {
			return fmt.Errorf("put failed: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	putCmd.Flags().StringVar(&putContentType, "content-type", "application/octet-stream", "MIME type to store with the content")
	putCmd.Flags().StringVar(&putRedirect, "redirect", "", "External URL for a redirect datastream")
	rootCmd.AddCommand(putCmd)
}
