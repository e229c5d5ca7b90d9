package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nhle/trelloha/internal/model"
)

const redacted = "<redacted>"

func configCmd(flags *rootFlags) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}

			if write {
				if err := model.SaveConfig(flags.configPath, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", flags.configPath)
			}

			out, err := renderConfig(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "also write the effective configuration to the config file")

	return cmd
}

// renderConfig marshals cfg with secrets masked.
func renderConfig(cfg *model.AppConfig) ([]byte, error) {
	shown := *cfg
	if shown.GitHub.Token != "" {
		shown.GitHub.Token = redacted
	}

	out, err := yaml.Marshal(&shown)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return out, nil
}
