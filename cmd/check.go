package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/batch"
	"github.com/latam-scholars/status-cli/internal/captcha"
	"github.com/latam-scholars/status-cli/internal/model"
	"github.com/latam-scholars/status-cli/internal/report"
	"github.com/latam-scholars/status-cli/internal/scrape"
)

var (
	checkInput  string
	checkOutput string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch the application status for every student in a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		records, dropped, err := report.ReadRecords(checkInput, cfg.Report.InputSheet)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("no valid records in %s (%d rows dropped)", checkInput, dropped)
		}

		browser, err := scrape.Launch(cfg.Browser)
		if err != nil {
			// A browser that cannot start aborts the whole run.
			return err
		}
		defer browser.Close()

		var prompter captcha.Prompter
		if cfg.Captcha.ManualEnabled {
			prompter = newTerminalPrompter()
		}
		resolver := captcha.NewFromConfig(cfg.Captcha, prompter)

		delay := time.Duration(cfg.Batch.RequestDelaySecs * float64(time.Second))
		fetcher := scrape.NewFetcher(browser, resolver, scrape.FetcherConfig{
			TrackingURL: cfg.Browser.TrackingURL,
			PageTimeout: time.Duration(cfg.Browser.PageTimeoutSecs) * time.Second,
			MaxAttempts: cfg.Batch.MaxAttempts,
			BaseDelay:   delay,
		})

		coordinator := batch.New(fetcher, delay, func(completed, total int, latest model.Result) {
			zap.L().Info("progress",
				zap.Int("completed", completed),
				zap.Int("total", total),
				zap.String("reg_number", latest.RegNumber),
				zap.Bool("success", latest.Succeeded()),
			)
		})

		results := coordinator.Process(ctx, records)

		if err := report.WriteResults(checkOutput, results); err != nil {
			return err
		}

		var succeeded int
		for _, res := range results {
			if res.Succeeded() {
				succeeded++
			}
		}
		zap.L().Info("check complete",
			zap.Int("requested", len(records)),
			zap.Int("processed", len(results)),
			zap.Int("succeeded", succeeded),
			zap.Int("input_rows_dropped", dropped),
			zap.String("output", checkOutput),
		)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkInput, "input", "students.xlsx", "input spreadsheet with registration tokens and emails")
	checkCmd.Flags().StringVar(&checkOutput, "output", "student_status_results.xlsx", "output spreadsheet for the status report")
	rootCmd.AddCommand(checkCmd)
}
