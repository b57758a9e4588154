package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/latam-scholars/status-cli/internal/captcha"
)

var solveCmd = &cobra.Command{
	Use:   "solve <image.png>",
	Short: "Run the challenge-solving cascade against an image file",
	Long:  "Runs the configured solving strategies (remote service, OCR ensemble, operator prompt) against a saved challenge image. Useful for tuning the ensemble against the diagnostics directory offline.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read challenge image %s", args[0])
		}

		var prompter captcha.Prompter
		if cfg.Captcha.ManualEnabled {
			prompter = newTerminalPrompter()
		}
		resolver := captcha.NewFromConfig(cfg.Captcha, prompter)

		answer, err := resolver.Resolve(cmd.Context(), image)
		if err != nil {
			return err
		}

		fmt.Println(answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
}
