package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <claim-id>",
	Short: "Fetch one claim as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("claim-id must be a number: %q", args[0])
	}

	client, _ := newClient()
	claim, err := client.GetClaim(cmd.Context(), id)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(claim, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
