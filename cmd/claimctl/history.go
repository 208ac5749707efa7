package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <claim-id>",
	Short: "Show the change log for one claim",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("claim-id must be a number: %q", args[0])
	}

	client, _ := newClient()
	result, err := client.ClaimHistory(cmd.Context(), id)
	if err != nil {
		return err
	}

	if result.Unavailable {
		fmt.Println("change history is unavailable (audit table missing)")
		return nil
	}
	if len(result.Entries) == 0 {
		fmt.Println("no changes recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tUSER\tACTION\tFIELD\tOLD\tNEW")
	for _, e := range result.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Username,
			e.Action,
			e.FieldName,
			strOr(e.OldValue, "-"),
			strOr(e.NewValue, "-"),
		)
	}
	return w.Flush()
}
