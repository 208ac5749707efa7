package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hbox/claimtrack/common/models"
)

var (
	searchPatientID  int
	searchCptID      int
	searchServiceEnd string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search claims by patient, CPT or service end date",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchPatientID, "patient-id", 0, "Filter by patient ID")
	searchCmd.Flags().IntVar(&searchCptID, "cpt-id", 0, "Filter by CPT ID")
	searchCmd.Flags().StringVar(&searchServiceEnd, "service-end", "", "Filter by service end date (YYYY-MM-DD)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	client, _ := newClient()

	var filter models.ClaimFilter
	if searchPatientID > 0 {
		filter.PatientID = &searchPatientID
	}
	if searchCptID > 0 {
		filter.CptID = &searchCptID
	}
	filter.ServiceEnd = searchServiceEnd

	claims, err := client.ListClaims(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if len(claims) == 0 {
		fmt.Println("no claims found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATIENT\tCPT\tSERVICE END\tPROVIDER\tSTATUS")
	for _, claim := range claims {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			claim.ID,
			claim.PatientID,
			strOr(claim.CptCode, "-"),
			strOr(claim.ServiceEnd, "-"),
			strOr(claim.ProviderName, "-"),
			strOr(claim.ClaimStatus, "-"),
		)
	}
	return w.Flush()
}

func strOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
