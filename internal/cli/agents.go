package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Leadflow/internal/domain"
)

// NewAgentsCmd создаёт команду, выводящую список агентов.
func NewAgentsCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List available agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type agentRow struct {
				Name string `json:"name"`
				Slug string `json:"slug"`
			}

			kinds := domain.AllAgentKinds()
			data := make([]agentRow, len(kinds))
			rows := make([][]string, len(kinds))
			for i, k := range kinds {
				data[i] = agentRow{Name: k.String(), Slug: k.Slug()}
				rows[i] = []string{k.String(), k.Slug()}
			}

			outputFn().Print([]string{"NAME", "SLUG"}, rows, data)
			return nil
		},
	}
}
