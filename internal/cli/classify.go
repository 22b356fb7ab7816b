package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-describe/internal/imaging"
)

func newClassifyCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify R G B",
		Short: "Print the basic color name of an RGB triple",
		Example: `  $ image-describe classify 255 180 50
  Orange`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ch [3]int
			for i, s := range args {
				v, err := strconv.Atoi(s)
				if err != nil {
					return fmt.Errorf("invalid channel %q: %w", s, err)
				}
				ch[i] = v
			}

			c := imaging.RGBColor{R: ch[0], G: ch[1], B: ch[2]}
			name := c.Name()
			a.log.WithField("rgb", c.String()).Debugf("classified as %s", name)

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"name": name,
					"hex":  c.Hex(),
					"rgb":  c,
				})
			}
			fmt.Fprintln(out, name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print name, hex and components as JSON")
	return cmd
}
