package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climatelens-cli/internal/server"
)

var (
	serveWorkspace string
	serveAddr      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard views of a workspace over HTTP",
	Long: `Serve the dashboard views of a workspace over HTTP.

  GET /api/questions | /api/countries | /api/waves
  GET /api/trends | /api/youth | /api/emissions | /api/pricing | /api/epi
  GET /charts/{view}.png

Filters are query parameters: country, wave, question, from, to, year.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		d, err := loadDashboard(serveWorkspace)
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" && cfg != nil {
			addr = cfg.ServerAddr
		}
		if addr == "" {
			addr = "127.0.0.1:8501"
		}
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(d, logger)
		success(cmd.OutOrStdout(), "Serving workspace '%s' on http://%s", serveWorkspace, addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveWorkspace, "workspace", "w", "", "workspace name")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config server_addr)")
}
