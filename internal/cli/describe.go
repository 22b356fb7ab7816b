package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-describe/internal/describe"
)

func newDescribeCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Describe the configured image (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
				defer cancel()
			}

			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			d, err := describe.Describe(ctx, client, a.cfg.ImagePath, a.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Result string `json:"result"`
					*describe.Description
				}{d.String(), d})
			}
			fmt.Fprintln(out, "Analysis Results:")
			fmt.Fprintln(out, d.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result and its parts as JSON")
	return cmd
}
