package commands

import (
	"fmt"
	"io"
	"os"

	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var patchExpr string

var patchCmd = &cobra.Command{
	Use:   "patch [path]",
	Short: "Patch resource properties",
	Long: `Apply a SPARQL-Update patch (INSERT DATA / DELETE DATA blocks, <> = the resource)
to the resource's properties. The patch is read from stdin unless -e is given.
The patch is atomic: on a syntax error nothing is changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}

		patch := patchExpr
		if patch == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			patch = string(data)
		}

		res, err := handleOf(cmd, path)
		if err != nil {
			return fmt.Errorf("patch failed: %w", err)
		}
		if err := res.UpdateProperties(cmd.Context(), patch); err != nil {
			return fmt.Errorf("patch failed: %w", err)
		}
		return nil
	},
}

func init() {
	patchCmd.Flags().StringVarP(&patchExpr, "expr", "e", "", "Patch text (default: read from stdin)")
	rootCmd.AddCommand(patchCmd)
}
