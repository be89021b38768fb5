package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pitch-intel/internal/model"
)

var (
	scrapeURL      string
	scrapeCompany  string
	scrapeIndustry string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape-and-research job synchronously",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp()
		if err != nil {
			return err
		}
		defer env.Close()

		job := env.jobs.Create(scrapeURL, scrapeCompany, scrapeIndustry)
		env.runner.Run(cmd.Context(), job)

		done, err := env.jobs.Get(job.ID)
		if err != nil {
			return eris.Wrap(err, "read job")
		}

		if done.Status == model.JobStatusFailed {
			return eris.Errorf("scrape failed: %s", done.Error)
		}

		out, err := json.MarshalIndent(done.Result, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode result")
		}
		fmt.Fprintln(os.Stdout, string(out))

		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "company website URL (required)")
	scrapeCmd.Flags().StringVar(&scrapeCompany, "company", "Unknown Company", "company name")
	scrapeCmd.Flags().StringVar(&scrapeIndustry, "industry", "", "industry label")
	_ = scrapeCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(scrapeCmd)
}
