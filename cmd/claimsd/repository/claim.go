package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hbox/claimtrack/common/db"
	"github.com/hbox/claimtrack/common/models"
)

// listLimit caps the filtered list endpoint; the search UI never pages.
const listLimit = 10

// Date columns are selected as text so the model carries YYYY-MM-DD strings
// end to end.
const claimColumns = `
	id, patient_id, patient_emr_no, cpt_id, cpt_code,
	first_name, last_name, date_of_birth::text, service_start::text, service_end::text,
	icd_code, provider_name, units, oa_claim_id, oa_visit_id,
	charge_dt::text, charge_amt, allowed_amt, allowed_add_amt, allowed_exp_amt,
	total_amt, charges_adj_amt, write_off_amt, bal_amt, reimb_pct,
	claim_status, claim_status_type, prim_ins, prim_amt, prim_post_dt::text,
	prim_chk_det, prim_recv_dt::text, prim_chk_amt, prim_cmt, sec_ins,
	sec_amt, sec_post_dt::text, sec_chk_det, sec_recv_dt::text, sec_chk_amt,
	sec_cmt, sec_denial_code, pat_amt, pat_recv_dt::text`

// ClaimRepository handles database operations for claims
type ClaimRepository struct {
	db *db.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(database *db.DB) *ClaimRepository {
	return &ClaimRepository{db: database}
}

func scanClaim(row pgx.Row) (*models.Claim, error) {
	c := &models.Claim{}
	err := row.Scan(
		&c.ID, &c.PatientID, &c.PatientEmrNo, &c.CptID, &c.CptCode,
		&c.FirstName, &c.LastName, &c.DateOfBirth, &c.ServiceStart, &c.ServiceEnd,
		&c.IcdCode, &c.ProviderName, &c.Units, &c.OaClaimID, &c.OaVisitID,
		&c.ChargeDt, &c.ChargeAmt, &c.AllowedAmt, &c.AllowedAddAmt, &c.AllowedExpAmt,
		&c.TotalAmt, &c.ChargesAdjAmt, &c.WriteOffAmt, &c.BalAmt, &c.ReimbPct,
		&c.ClaimStatus, &c.ClaimStatusType, &c.PrimIns, &c.PrimAmt, &c.PrimPostDt,
		&c.PrimChkDet, &c.PrimRecvDt, &c.PrimChkAmt, &c.PrimCmt, &c.SecIns,
		&c.SecAmt, &c.SecPostDt, &c.SecChkDet, &c.SecRecvDt, &c.SecChkAmt,
		&c.SecCmt, &c.SecDenialCode, &c.PatAmt, &c.PatRecvDt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves claims matching the filter, newest service date first with
// nulls last, capped at the list limit.
func (r *ClaimRepository) List(ctx context.Context, filter models.ClaimFilter) ([]*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims`

	var conditions []string
	var params []any

	if filter.PatientID != nil {
		params = append(params, *filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(params)))
	}
	if filter.CptID != nil {
		params = append(params, *filter.CptID)
		conditions = append(conditions, fmt.Sprintf("cpt_id = $%d", len(params)))
	}
	if filter.ServiceEnd != "" {
		params = append(params, filter.ServiceEnd)
		conditions = append(conditions, fmt.Sprintf("service_end = $%d", len(params)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY service_end DESC NULLS LAST LIMIT %d", listLimit)

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claims: %w", err)
	}

	return claims, nil
}

// GetByID retrieves a claim by primary key. Returns (nil, nil) when the
// claim does not exist.
func (r *ClaimRepository) GetByID(ctx context.Context, id int) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`

	c, err := scanClaim(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return c, nil
}

// Update applies the validated field updates in a single parameterized
// UPDATE and returns the new row. Returns (nil, nil) when the row vanished
// between read and write; a single-statement UPDATE needs no transaction.
func (r *ClaimRepository) Update(ctx context.Context, id int, updates []models.FieldUpdate) (*models.Claim, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	setClauses := make([]string, 0, len(updates))
	params := make([]any, 0, len(updates)+1)
	for _, u := range updates {
		params = append(params, u.Value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", u.Field.Name, len(params)))
	}
	params = append(params, id)

	query := fmt.Sprintf(
		"UPDATE claims SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), len(params), claimColumns,
	)

	c, err := scanClaim(r.db.QueryRow(ctx, query, params...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	return c, nil
}
