package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

var (
	listWorkspaces bool
	listDatasets   bool
	listWsName     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces or datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listWorkspaces == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --workspaces or --datasets")
		}
		out := cmd.OutOrStdout()
		if listWorkspaces {
			return listAllWorkspaces(out)
		}
		if listWsName == "" {
			return fmt.Errorf("--workspace is required when using --datasets")
		}
		ws, err := loadWorkspace(listWsName)
		if err != nil {
			return err
		}
		if len(ws.Datasets) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		table := newTable(out, []string{"Kind", "Name", "Columns", "Rows", "ID", "Description"})
		for _, d := range ws.Sorted() {
			table.Append([]string{
				string(d.Kind), d.Name, strconv.Itoa(d.Columns), strconv.Itoa(d.Rows), d.ID, d.Description,
			})
		}
		table.Render()
		return nil
	},
}

func listAllWorkspaces(out io.Writer) error {
	root, err := defaultWorkspacesDir()
	if err != nil {
		return err
	}
	names, err := workspace.List(root)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "(no workspaces)")
		return nil
	}
	for _, n := range names {
		fmt.Fprintf(out, "- %s\n", n)
	}
	return nil
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listWorkspaces, "workspaces", false, "list workspaces")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a workspace")
	listCmd.Flags().StringVarP(&listWsName, "workspace", "w", "", "workspace name for --datasets")
}
