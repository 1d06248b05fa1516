package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/taskboard/internal/crypto"
	"github.com/harrylevesque/taskboard/internal/files"
)

func newRootCmd() *cobra.Command {
	var keyFile string
	cmd := &cobra.Command{
		Use:           "gensessionkey",
		Short:         "Write a fresh random session key file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := files.WriteSessionKey(keyFile, crypto.MustRandom(32)); err != nil {
				if errors.Is(err, files.ErrKeyExists) {
					return fmt.Errorf("%s already exists. Refusing to overwrite", keyFile)
				}
				return fmt.Errorf("writing %s: %w", keyFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session key written to %s\n", keyFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyFile, "out", "o", "session.key", "key file to create")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
