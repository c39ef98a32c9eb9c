package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/utils"
	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <workspace-name>",
	Short: "Initialize a new ClimateLens workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir, err := resolveWorkspaceDir(name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing workspace.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if workspace.Exists(dir) {
				return fmt.Errorf("workspace already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect workspace directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize workspace", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat workspace directory: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		ws := workspace.New(name, initDescription, dir)
		if err := ws.Save(); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Workspace initialized: %s", filepath.Clean(dir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "workspace description")
}
