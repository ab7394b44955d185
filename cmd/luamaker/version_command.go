package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.1.2"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the luamaker version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "luamaker %s\n", version)
			return nil
		},
	}
}
