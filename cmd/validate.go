package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/rawlink/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `
Load the configuration file, check it and print the effective
configuration after defaults and flag overrides.

Examples:
  rawlink validate -c config.yml
  rawlink validate                  # effective defaults
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError("invalid configuration", err)
		}
		if ifaceFlag != "" {
			cfg.Interface = ifaceFlag
		}
		if protoFlag != "" {
			cfg.Protocol = protoFlag
			if err := cfg.Validate(); err != nil {
				exitWithError("invalid configuration", err)
			}
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError("failed to render configuration", err)
		}
		fmt.Fprint(os.Stdout, string(out))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
