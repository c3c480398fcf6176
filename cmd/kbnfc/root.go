package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kbnfc",
	Short: "Drive a constrained-decoding engine from the command line",
	Long: `kbnfc loads a compiled grammar and a vocabulary and drives the
constrained-decoding engine over them:
- run replays a sequence of committed token ids, printing the allowed
  mask before each commit.
- describe prints a compiled grammar's rules and terminals.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
