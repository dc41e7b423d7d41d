package commands

import (
	"fmt"

	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var mvForce bool

var mvCmd = &cobra.Command{
	Use:   "mv [src] [dst]",
	Short: "Move a subtree",
	Long: `Move the resource and everything under it to a new path. The source keeps a
tombstone; --force clears it so the source path is immediately reusable.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}
		dst, err := types.ParsePath(args[1])
		if err != nil {
			return err
		}

		res, err := handleOf(cmd, src)
		if err != nil {
			return fmt.Errorf("mv failed: %w", err)
		}

		if mvForce {
			err = res.ForceMove(cmd.Context(), dst)
		} else {
			err = res.Move(cmd.Context(), dst)
		}
		if err != nil {
			return fmt.Errorf("mv failed: %w", err)
		}
		fmt.Println(dst)
		return nil
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp [src] [dst]",
	Short: "Copy a subtree",
	Long:  `Deep-copy the resource, its children and its version history to a new path. The source is untouched.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}
		dst, err := types.ParsePath(args[1])
		if err != nil {
			return err
		}

		res, err := handleOf(cmd, src)
		if err != nil {
			return fmt.Errorf("cp failed: %w", err)
		}
		if err := res.Copy(cmd.Context(), dst); err != nil {
			return fmt.Errorf("cp failed: %w", err)
		}
		fmt.Println(dst)
		return nil
	},
}

func init() {
	mvCmd.Flags().BoolVarP(&mvForce, "force", "f", false, "Also clear the source tombstone")
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(cpCmd)
}
