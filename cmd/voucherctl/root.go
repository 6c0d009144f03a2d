package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "voucherctl",
		Short:         "Voucher service operator helpers",
		Long:          "Operator helpers for the voucher service: mint dev tokens and inspect issued voucher files.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVoucherCmd())
	return rootCmd
}
