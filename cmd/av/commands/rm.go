package commands

import (
	"fmt"

	"archivault/pkg/client"
	"archivault/pkg/core"
	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm [path]",
	Short: "Delete a resource",
	Long: `Delete the resource (and its subtree). The path keeps a tombstone that blocks reuse;
--force clears the tombstone so the path is immediately reusable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}

		res, err := handleOf(cmd, path)
		if err != nil {
			return fmt.Errorf("rm failed: %w", err)
		}

		if rmForce {
			err = res.ForceDelete(cmd.Context())
		} else {
			err = res.Delete(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("rm failed: %w", err)
		}
		return nil
	},
}

// handleOf 拿到路径上资源的句柄，对象或数据流均可。
func handleOf(cmd *cobra.Command, path types.Path) (*client.Resource, error) {
	obj, err := AV.GetObject(cmd.Context(), path)
	if err == nil {
		return &obj.Resource, nil
	}
	if !core.IsConflict(err) {
		return nil, err
	}
	ds, err := AV.GetDatastream(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	return &ds.Resource, nil
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Also clear the tombstone")
	rootCmd.AddCommand(rmCmd)
}
