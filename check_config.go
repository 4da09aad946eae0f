package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckConfigCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and credential files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			keysets, err := loadKeysets(cfg)
			if err != nil {
				return fmt.Errorf("load credentials: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", *configFlag)
			fmt.Fprintf(out, "Bus: %s, state: %s\n", cfg.Bus.Kind, cfg.State.Kind)
			for i, ks := range keysets {
				tag := cfg.AirTags[i]
				fmt.Fprintf(out, "  %s  credential=%s (%s, %d keys) accessory=%s\n",
					tag.ID, tag.CredentialPath, ks.Name(), ks.Size(), accessoryOf(tag))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
