package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zhuyin %s\n", zhuyin.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  Go:     %s\n", runtime.Version())
		},
	}
}
