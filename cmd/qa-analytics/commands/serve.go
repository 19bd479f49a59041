package commands

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"qa-analytics/internal/api"
)

var httpAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics views over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, store, closeFn, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		addr := cfg.HTTPAddr
		if httpAddr != "" {
			addr = httpAddr
		}
		return api.NewServer(engine, store).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
}
