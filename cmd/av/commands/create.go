package commands

import (
	"fmt"

	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [path]",
	Short: "Create an object",
	Long:  `Create an empty object at the given path. Without a path the server mints an identifier under the repository root.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw string
		if len(args) == 1 {
			raw = args[0]
		}
		path, err := types.ParsePath(raw)
		if err != nil {
			return err
		}

		obj, err := AV.CreateResource(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("create failed: %w", err)
		}
		fmt.Println(obj.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
