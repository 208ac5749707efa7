package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hbox/claimtrack/common/models"
)

var (
	auditUserID    int
	auditCptID     int
	auditStartDate string
	auditEndDate   string
	auditPage      int
	auditLimit     int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse the global change log",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().IntVar(&auditUserID, "user-id", 0, "Filter by the user who made the change")
	auditCmd.Flags().IntVar(&auditCptID, "cpt-id", 0, "Filter by CPT ID")
	auditCmd.Flags().StringVar(&auditStartDate, "start", "", "Only changes on or after this date (YYYY-MM-DD)")
	auditCmd.Flags().StringVar(&auditEndDate, "end", "", "Only changes on or before this date (YYYY-MM-DD)")
	auditCmd.Flags().IntVar(&auditPage, "page", 1, "Page number")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Entries per page")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	client, _ := newClient()

	var filter models.HistoryFilter
	if auditUserID > 0 {
		filter.UserID = &auditUserID
	}
	if auditCptID > 0 {
		filter.CptID = &auditCptID
	}
	filter.StartDate = auditStartDate
	filter.EndDate = auditEndDate

	page, err := client.AllHistory(cmd.Context(), filter, auditPage, auditLimit)
	if err != nil {
		return err
	}

	if page.Unavailable {
		fmt.Println("change history is unavailable (audit table missing)")
		return nil
	}
	if len(page.Entries) == 0 {
		fmt.Println("no changes recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tCLAIM\tCPT\tUSER\tACTION\tFIELD\tOLD\tNEW")
	for _, e := range page.Entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.ClaimID,
			strOr(e.CptCode, "-"),
			e.Username,
			e.Action,
			e.FieldName,
			strOr(e.OldValue, "-"),
			strOr(e.NewValue, "-"),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("page %d of %d (%d entries)\n", page.Page, page.TotalPages, page.TotalCount)
	return nil
}
