package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hbox/claimtrack/common/models"
)

var setCmd = &cobra.Command{
	Use:   "set <claim-id> <field=value> [field=value...]",
	Short: "Edit claim fields",
	Long:  "Applies one or more field edits to a claim. Numeric fields accept numbers, date fields accept YYYY-MM-DD, and an empty value clears the field.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("claim-id must be a number: %q", args[0])
	}

	fields := make(map[string]any, len(args)-1)
	for _, arg := range args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected field=value, got %q", arg)
		}
		if _, known := models.LookupField(name); !known {
			return fmt.Errorf("unknown or read-only field %q", name)
		}
		fields[name] = value
	}

	client, _ := newClient()
	claim, err := client.UpdateClaim(cmd.Context(), id, fields)
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
