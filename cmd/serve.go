package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/server"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	servePreload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workspace over HTTP",
	Long: `Serve starts the HTTP API used by the dashboard. Uploads received over HTTP
are kept in memory. With --preload the saved CLI workspace is loaded first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		log := newLogger(false)
		clock := clockwork.NewRealClock()

		ws := workspace.New("", workspace.WithClock(clock), workspace.WithLogger(log))
		if servePreload {
			ws, err = workspace.Load(c.WorkspaceDir, workspace.WithClock(clock), workspace.WithLogger(log))
			if err != nil {
				return err
			}
			log.Info("workspace preloaded", "dir", c.WorkspaceDir, "uploads", ws.Len())
		}
		defaults, err := cleaning.ParseOptions(c.DefaultOptions)
		if err != nil {
			return err
		}

		addr := c.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(server.Config{
			Addr:           addr,
			MaxUploadBytes: int64(c.ServerMaxUploadMB) << 20,
			RatePerMinute:  c.ServerRatePerMinute,
			RateBurst:      c.ServerRateBurst,
			CORSOrigins:    c.ServerCORSOrigins,
			ChartMaxPoints: c.ChartMaxPoints,
			DefaultOptions: defaults,
			Export:         c.ExportOptions(),
		}, ws, cleaning.New(c.CleaningConfig(), log), clock, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Printf("✓ Serving on %s (Ctrl+C to stop)\n", addr)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")
	serveCmd.Flags().BoolVar(&servePreload, "preload", false, "load the saved CLI workspace at startup")
}
