package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hupe1980/schoolmate/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := newDeps(ctx, cfg, os.Stdout)
		if err != nil {
			return err
		}
		defer d.Close()

		gin.SetMode(gin.ReleaseMode)
		return server.Serve(ctx, cfg.Addr, d.app.Handler(cfg.AuthSecret), d.logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides SCHOOLMATE_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
