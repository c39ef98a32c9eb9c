package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeWorkspace string

var removeCmd = &cobra.Command{
	Use:   "remove <dataset-id>",
	Short: "Remove a dataset from a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		ws, err := loadWorkspace(removeWorkspace)
		if err != nil {
			return err
		}
		if !ws.Remove(args[0]) {
			return fmt.Errorf("dataset %s not found in workspace '%s'", args[0], ws.Name)
		}
		if err := ws.Save(); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Dataset removed: %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVarP(&removeWorkspace, "workspace", "w", "", "workspace name")
}
