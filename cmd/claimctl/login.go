package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and print a bearer token",
	Long:  "Exchanges credentials for a bearer token. Export the token as CLAIMS_API_TOKEN for subsequent commands.",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (required)")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, _ := newClient()

	result, err := client.Login(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s (%s)\n", result.User.Name, result.User.Role)
	fmt.Println(result.Token)
	return nil
}
