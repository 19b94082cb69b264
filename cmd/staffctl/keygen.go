package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arnavshah/staffing-engine-go/pkg/auth"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <client>",
		Short: "Print an HMAC-signed API key for a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateHMACKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}
}
