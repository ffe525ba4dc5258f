package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration after defaults and environment overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		effective := *cfg
		if effective.Feishu.AppSecret != "" {
			effective.Feishu.AppSecret = "********"
		}

		if jsonOutput {
			return printJSON(effective)
		}

		source := effective.Path
		if source == "" {
			source = "(defaults)"
		}
		fmt.Printf("# loaded from %s\n", source)

		out, err := yaml.Marshal(&effective)
		if err != nil {
			return err
		}
		fmt.Print(string(out))

		gate := effective.ToGateConfig()
		if err := gate.Validate(); err != nil {
			fmt.Printf("# gate inactive: %v\n", err)
		} else if gate.Enabled {
			if p, ok := effective.Provider(gate.ProviderID); !ok {
				fmt.Printf("# gate inactive: provider %q is not listed under providers\n", gate.ProviderID)
			} else if p.APIKey() == "" {
				fmt.Printf("# gate inactive: provider %q has no API key in $%s\n", p.ID, p.APIKeyEnv)
			}
		}
		return nil
	},
}
