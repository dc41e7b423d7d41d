package commands

import (
	"fmt"

	"archivault/pkg/types"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [path] [name]",
	Short: "Freeze the resource's current state as a named version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}
		res, err := handleOf(cmd, path)
		if err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
		if err := res.CreateVersionSnapshot(cmd.Context(), args[1]); err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
		fmt.Printf("%s @ %s\n", path, args[1])
		return nil
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions [path]",
	Short: "List version snapshots in creation order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}
		res, err := handleOf(cmd, path)
		if err != nil {
			return fmt.Errorf("versions failed: %w", err)
		}
		names, err := res.VersionNames(cmd.Context())
		if err != nil {
			return fmt.Errorf("versions failed: %w", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert [path] [name]",
	Short: "Roll the live state back to a named version",
	Long:  `Overwrite the live state with the named snapshot. The version list itself is unchanged.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}
		res, err := handleOf(cmd, path)
		if err != nil {
			return fmt.Errorf("revert failed: %w", err)
		}
		if err := res.RevertToVersion(cmd.Context(), args[1]); err != nil {
			return fmt.Errorf("revert failed: %w", err)
		}
		return nil
	},
}

var dropVersionCmd = &cobra.Command{
	Use:   "drop-version [path] [name]",
	Short: "Delete a version snapshot",
	Long:  `Delete a named snapshot. The last remaining version of a resource cannot be deleted.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := types.ParsePath(args[0])
		if err != nil {
			return err
		}
		res, err := handleOf(cmd, path)
		if err != nil {
			return fmt.Errorf("drop-version failed: %w", err)
		}
		if err := res.DeleteVersion(cmd.Context(), args[1]); err != nil {
			return fmt.Errorf("drop-version failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(dropVersionCmd)
}
