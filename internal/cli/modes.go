package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hydrokit/negflo/pkg/negflo"
)

// modeInfo is the JSON shape of one mode for 'modes --json'.
type modeInfo struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Description string `json:"description"`
	NeedsLimit  bool   `json:"requires_non_negative_limit"`
	Implemented bool   `json:"implemented"`
}

// modesCommand creates the modes command.
func (c *CLI) modesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the smoothing modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := negflo.AllModes()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(describeModes(modes))
			}
			fmt.Println(renderModesTable(modes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print modes as JSON")
	return cmd
}

func describeModes(modes []negflo.Mode) []modeInfo {
	out := make([]modeInfo, len(modes))
	for i, m := range modes {
		out[i] = modeInfo{
			Number:      int(m),
			Name:        m.String(),
			Extension:   m.Extension(),
			Description: m.Description(),
			NeedsLimit:  m.RequiresNonNegativeLimit(),
			Implemented: implemented(m),
		}
	}
	return out
}
