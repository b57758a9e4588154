package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/latam-scholars/status-cli/internal/report"
)

var validateInput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Dry-run the input loader and report rows that would be dropped",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, dropped, err := report.ReadRecords(validateInput, cfg.Report.InputSheet)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d valid records, %d rows dropped\n", validateInput, len(records), dropped)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "students.xlsx", "input spreadsheet to validate")
	rootCmd.AddCommand(validateCmd)
}
