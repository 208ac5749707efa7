package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hbox/claimtrack/common/clients"
	"github.com/hbox/claimtrack/common/logger"
)

var (
	apiURL    string
	apiToken  string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "claimctl",
	Short: "Command-line client for the claims tracker API",
	Long:  "Searches, inspects and edits medical billing claims through the claims API, including their audit history.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&apiURL, "api", envOr("CLAIMS_API_URL", "http://localhost:8080"), "Claims API base URL (or set CLAIMS_API_URL)")
	pf.StringVar(&apiToken, "token", os.Getenv("CLAIMS_API_TOKEN"), "Bearer token (or set CLAIMS_API_TOKEN)")
	pf.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// newClient builds an API client from the global flags
func newClient() (*clients.ClaimsClient, *logger.Logger) {
	log := logger.New(logLevel, logFormat)
	client := clients.NewClaimsClient(apiURL, log)
	client.SetToken(apiToken)
	return client, log
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
