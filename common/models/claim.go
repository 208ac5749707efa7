package models

// Claim represents one billable insurance encounter.
// Maps to: claims table (one row per encounter)
//
// Date columns are carried as YYYY-MM-DD strings end to end; the store casts
// them to text on read and Postgres coerces the text parameter on write.
// Money columns are NUMERIC in the store and float64 here.
type Claim struct {
	ID        int `db:"id" json:"id"`
	PatientID int `db:"patient_id" json:"patient_id"`
	CptID     int `db:"cpt_id" json:"cpt_id"`

	// Patient / encounter identity (read-only through the API)
	PatientEmrNo *string `db:"patient_emr_no" json:"patient_emr_no"`
	CptCode      *string `db:"cpt_code" json:"cpt_code"`
	FirstName    *string `db:"first_name" json:"first_name"`
	LastName     *string `db:"last_name" json:"last_name"`
	DateOfBirth  *string `db:"date_of_birth" json:"date_of_birth"`
	ServiceStart *string `db:"service_start" json:"service_start"`
	ServiceEnd   *string `db:"service_end" json:"service_end"`
	IcdCode      *string `db:"icd_code" json:"icd_code"`
	ProviderName *string `db:"provider_name" json:"provider_name"`
	Units        *int    `db:"units" json:"units"`

	// Claim & billing
	OaClaimID       *string  `db:"oa_claim_id" json:"oa_claim_id"`
	OaVisitID       *string  `db:"oa_visit_id" json:"oa_visit_id"`
	ChargeDt        *string  `db:"charge_dt" json:"charge_dt"`
	ChargeAmt       *float64 `db:"charge_amt" json:"charge_amt"`
	AllowedAmt      *float64 `db:"allowed_amt" json:"allowed_amt"`
	AllowedAddAmt   *float64 `db:"allowed_add_amt" json:"allowed_add_amt"`
	AllowedExpAmt   *float64 `db:"allowed_exp_amt" json:"allowed_exp_amt"`
	TotalAmt        *float64 `db:"total_amt" json:"total_amt"`
	ChargesAdjAmt   *float64 `db:"charges_adj_amt" json:"charges_adj_amt"`
	WriteOffAmt     *float64 `db:"write_off_amt" json:"write_off_amt"`
	BalAmt          *float64 `db:"bal_amt" json:"bal_amt"`
	ReimbPct        *float64 `db:"reimb_pct" json:"reimb_pct"`
	ClaimStatus     *string  `db:"claim_status" json:"claim_status"`
	ClaimStatusType *string  `db:"claim_status_type" json:"claim_status_type"`

	// Primary insurance
	PrimIns    *string  `db:"prim_ins" json:"prim_ins"`
	PrimAmt    *float64 `db:"prim_amt" json:"prim_amt"`
	PrimPostDt *string  `db:"prim_post_dt" json:"prim_post_dt"`
	PrimChkDet *string  `db:"prim_chk_det" json:"prim_chk_det"`
	PrimRecvDt *string  `db:"prim_recv_dt" json:"prim_recv_dt"`
	PrimChkAmt *float64 `db:"prim_chk_amt" json:"prim_chk_amt"`
	PrimCmt    *string  `db:"prim_cmt" json:"prim_cmt"`

	// Secondary insurance
	SecIns        *string  `db:"sec_ins" json:"sec_ins"`
	SecAmt        *float64 `db:"sec_amt" json:"sec_amt"`
	SecPostDt     *string  `db:"sec_post_dt" json:"sec_post_dt"`
	SecChkDet     *string  `db:"sec_chk_det" json:"sec_chk_det"`
	SecRecvDt     *string  `db:"sec_recv_dt" json:"sec_recv_dt"`
	SecChkAmt     *float64 `db:"sec_chk_amt" json:"sec_chk_amt"`
	SecCmt        *string  `db:"sec_cmt" json:"sec_cmt"`
	SecDenialCode *string  `db:"sec_denial_code" json:"sec_denial_code"`

	// Patient payment
	PatAmt    *float64 `db:"pat_amt" json:"pat_amt"`
	PatRecvDt *string  `db:"pat_recv_dt" json:"pat_recv_dt"`
}

// ClaimFilter narrows the claims list query. Nil/empty values are skipped.
type ClaimFilter struct {
	PatientID  *int
	CptID      *int
	ServiceEnd string
}
