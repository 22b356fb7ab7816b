package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-describe/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP server on stdin/stdout",
		Long: `Run a Model Context Protocol server over stdin/stdout exposing the
image_describe, image_source_info and color_classify tools. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			a.log.WithField("version", a.info.Version).Info("MCP server starting")
			srv := server.New(client, a.cfg.Timeout, a.log, a.info.Version)
			err = srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
