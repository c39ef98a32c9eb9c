package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

var (
	addWorkspace string
	addKind      string
	addDesc      string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Register a dataset file in a workspace",
	Long: `Register a dataset file in a workspace. Each kind holds one file; adding a
second file of the same kind replaces the first.

Kinds: means, youth, co2, tax, epi, countries, questions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		if addWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		kind, err := workspace.ParseKind(addKind)
		if err != nil {
			return err
		}
		ws, err := loadWorkspace(addWorkspace)
		if err != nil {
			return err
		}
		added, replaced, err := ws.AddDataset(file, kind, addDesc)
		if err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if replaced != nil {
			warn(out, "replaced %s dataset %s", kind, replaced.Name)
		}
		success(out, "Dataset added: %s (%s, %d rows)", filepath.Base(added.Path), kind, added.Rows)
		return nil
	},
}

// register adds path to the named workspace, replacing any dataset of kind.
func register(cmd *cobra.Command, wsName, path string, kind workspace.Kind, desc string) error {
	ws, err := loadWorkspace(wsName)
	if err != nil {
		return err
	}
	if _, _, err := ws.AddDataset(path, kind, desc); err != nil {
		return err
	}
	if err := ws.Save(); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Registered %s as %s dataset in workspace '%s'", filepath.Base(path), kind, ws.Name)
	return nil
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addWorkspace, "workspace", "w", "", "workspace name")
	addCmd.Flags().StringVarP(&addKind, "kind", "k", "", "dataset kind")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "dataset description")
}
