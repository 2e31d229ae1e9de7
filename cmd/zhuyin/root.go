package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

type rootOptions struct {
	cfgFile      string
	outputFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "zhuyin",
		Short: "Zhuyin typing corpus tools",
		Long: `zhuyin indexes the annotated lesson corpus used by the Zhuyin typing
game, derives the keystrokes for every target glyph and manages the
player's custom vocabulary.

Examples:
  zhuyin metadata                         # Publishers, grades and lessons
  zhuyin items -n 5 --lesson "第 1 課"     # Random filtered sample
  zhuyin lint --strict                    # Fail on corpus authoring errors
  zhuyin custom add 紅 ㄏㄨㄥˊ --post 色    # Add a custom entry`,
		Version:      zhuyin.Version(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.outputFormat {
			case "yaml", "json":
				return nil
			}
			return fmt.Errorf("unknown output format: %s", opts.outputFormat)
		},
	}

	cmd.PersistentFlags().StringVar(
		&opts.cfgFile, "config", "", "config file (default: $ZHUYIN_CONFIG or ./zhuyin.yaml)",
	)
	cmd.PersistentFlags().StringVarP(
		&opts.outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	cmd.AddCommand(
		newMetadataCmd(opts),
		newItemsCmd(opts),
		newLintCmd(opts),
		newWatchCmd(opts),
		newCustomCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
