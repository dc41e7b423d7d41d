package commands

import (
	"fmt"

	"archivault/pkg/client"
	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var getVersion string

var getCmd = &cobra.Command{
	Use:   "get [path]",
	Short: "Show an object's properties and children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}

		var obj *client.Object
		if getVersion != "" {
			obj, err = AV.GetObjectVersion(cmd.Context(), path, getVersion)
		} else {
			obj, err = AV.GetObject(cmd.Context(), path)
		}
		if err != nil {
			return fmt.Errorf("get failed: %w", err)
		}

		for t := range obj.Properties() {
			fmt.Printf("%s %s\n", t.Predicate, t.Object)
		}
		for _, child := range obj.Children() {
			fmt.Printf("contains %s\n", child)
		}
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getVersion, "version", "", "Read a named version snapshot instead of the live state")
	rootCmd.AddCommand(getCmd)
}
