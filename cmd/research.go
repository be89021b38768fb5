package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:   "research <company name>",
	Short: "Run a one-shot research query for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp()
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.runner.Research(cmd.Context(), args[0])
		if !result.Success {
			return eris.Errorf("research failed: %s", result.Content)
		}

		fmt.Fprintln(os.Stdout, result.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
}
