package repository

import (
	"context"
	"fmt"

	"github.com/hbox/claimtrack/common/db"
)

// DDL for the two tables the service owns. There is no migration tooling;
// deployments run this once (or the integration tests do).
const claimsDDL = `
CREATE TABLE IF NOT EXISTS claims (
	id SERIAL PRIMARY KEY,
	patient_id INTEGER NOT NULL,
	patient_emr_no TEXT,
	cpt_id INTEGER NOT NULL,
	cpt_code TEXT,
	first_name TEXT,
	last_name TEXT,
	date_of_birth DATE,
	service_start DATE,
	service_end DATE,
	icd_code TEXT,
	provider_name TEXT,
	units INTEGER,
	oa_claim_id TEXT,
	oa_visit_id TEXT,
	charge_dt DATE,
	charge_amt NUMERIC(12,2),
	allowed_amt NUMERIC(12,2),
	allowed_add_amt NUMERIC(12,2),
	allowed_exp_amt NUMERIC(12,2),
	total_amt NUMERIC(12,2),
	charges_adj_amt NUMERIC(12,2),
	write_off_amt NUMERIC(12,2),
	bal_amt NUMERIC(12,2),
	reimb_pct NUMERIC(6,2),
	claim_status TEXT,
	claim_status_type TEXT,
	prim_ins TEXT,
	prim_amt NUMERIC(12,2),
	prim_post_dt DATE,
	prim_chk_det TEXT,
	prim_recv_dt DATE,
	prim_chk_amt NUMERIC(12,2),
	prim_cmt TEXT,
	sec_ins TEXT,
	sec_amt NUMERIC(12,2),
	sec_post_dt DATE,
	sec_chk_det TEXT,
	sec_recv_dt DATE,
	sec_chk_amt NUMERIC(12,2),
	sec_cmt TEXT,
	sec_denial_code TEXT,
	pat_amt NUMERIC(12,2),
	pat_recv_dt DATE
)`

const changeLogDDL = `
CREATE TABLE IF NOT EXISTS claim_change_log (
	id BIGSERIAL PRIMARY KEY,
	claim_id INTEGER NOT NULL REFERENCES claims(id),
	user_id INTEGER NOT NULL,
	username TEXT NOT NULL,
	cpt_id INTEGER,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	field_name TEXT NOT NULL,
	old_value TEXT,
	new_value TEXT,
	action_type TEXT NOT NULL
)`

const changeLogIndexDDL = `
CREATE INDEX IF NOT EXISTS idx_claim_change_log_claim_id
ON claim_change_log (claim_id, timestamp DESC)`

// CreateSchema creates the claims table and, optionally, the change-log
// table. The change log may legitimately be absent in a fresh environment;
// the update pipeline tolerates that.
func CreateSchema(ctx context.Context, database *db.DB, withChangeLog bool) error {
	if _, err := database.Exec(ctx, claimsDDL); err != nil {
		return fmt.Errorf("create claims table: %w", err)
	}
	if withChangeLog {
		if _, err := database.Exec(ctx, changeLogDDL); err != nil {
			return fmt.Errorf("create change log table: %w", err)
		}
		if _, err := database.Exec(ctx, changeLogIndexDDL); err != nil {
			return fmt.Errorf("create change log index: %w", err)
		}
	}
	return nil
}

// ChangeLogTableExists probes for the change-log table. Used at startup and
// by the health endpoint to report a degraded history surface instead of
// silently fabricating entries.
func ChangeLogTableExists(ctx context.Context, database *db.DB) (bool, error) {
	var exists bool
	err := database.QueryRow(ctx, `SELECT to_regclass('claim_change_log') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("probe change log table: %w", err)
	}
	return exists, nil
}
