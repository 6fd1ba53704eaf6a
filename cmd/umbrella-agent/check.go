package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/umbrella-agent/internal/subscription"
)

var (
	flagEmail   string
	flagCity    string
	flagCountry string
	flagDryRun  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one umbrella check now and print the outcome",
	Long: `Fetch the current weather for a location and, if an umbrella is needed,
email the reminder. With --dry-run the message is logged instead of sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		req, err := subscription.Request{
			Email:       flagEmail,
			City:        flagCity,
			CountryCode: flagCountry,
		}.Validate(cfg.DailyCheckAt)
		if err != nil {
			return err
		}

		checker := buildAgent(cfg, buildSender(cfg, log, flagDryRun), log)
		out := checker.RunCheck(cmd.Context(), subscription.Subscription{
			Email:    req.Email,
			Location: req.Location(),
			NotifyAt: req.NotifyAt,
			Enabled:  true,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("print outcome: %w", err)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&flagEmail, "email", "", "recipient email address")
	checkCmd.Flags().StringVar(&flagCity, "city", "", "city name")
	checkCmd.Flags().StringVar(&flagCountry, "country", "", "two-letter country code")
	checkCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "log the email instead of sending it")
	_ = checkCmd.MarkFlagRequired("email")
	_ = checkCmd.MarkFlagRequired("city")
	_ = checkCmd.MarkFlagRequired("country")
}
