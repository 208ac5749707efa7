package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hbox/claimtrack/common/db"
	"github.com/hbox/claimtrack/common/models"
)

// ChangeLogRepository handles database operations for the append-only audit
// trail. Rows are only ever inserted.
type ChangeLogRepository struct {
	db *db.DB
}

// NewChangeLogRepository creates a new change-log repository
func NewChangeLogRepository(database *db.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: database}
}

// IsUndefinedTable reports whether err is Postgres "relation does not exist".
// A missing change-log table is an expected state in a fresh environment,
// not a failure.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// InsertBatch writes all change rows for one edit event in a single
// statement. Callers stamp every entry with the same timestamp so the batch
// is recognizable in the log.
func (r *ChangeLogRepository) InsertBatch(ctx context.Context, entries []models.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	valueClauses := make([]string, 0, len(entries))
	params := make([]any, 0, len(entries)*9)
	for i, e := range entries {
		offset := i * 9
		valueClauses = append(valueClauses, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			offset+1, offset+2, offset+3, offset+4, offset+5, offset+6, offset+7, offset+8, offset+9,
		))
		params = append(params,
			e.ClaimID, e.UserID, e.Username, e.CptID, e.Timestamp,
			e.FieldName, e.OldValue, e.NewValue, e.Action,
		)
	}

	query := `
		INSERT INTO claim_change_log (
			claim_id, user_id, username, cpt_id, timestamp,
			field_name, old_value, new_value, action_type
		) VALUES ` + strings.Join(valueClauses, ", ")

	if _, err := r.db.Exec(ctx, query, params...); err != nil {
		return fmt.Errorf("failed to insert change log batch: %w", err)
	}

	return nil
}

// ListByClaim retrieves the change rows for one claim, newest first
func (r *ChangeLogRepository) ListByClaim(ctx context.Context, claimID int) ([]models.ChangeLogEntry, error) {
	query := `
		SELECT id, claim_id, user_id, username, cpt_id, timestamp,
		       field_name, old_value, new_value, action_type
		FROM claim_change_log
		WHERE claim_id = $1
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claim history: %w", err)
	}
	defer rows.Close()

	var entries []models.ChangeLogEntry
	for rows.Next() {
		var e models.ChangeLogEntry
		err := rows.Scan(
			&e.ID, &e.ClaimID, &e.UserID, &e.Username, &e.CptID, &e.Timestamp,
			&e.FieldName, &e.OldValue, &e.NewValue, &e.Action,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change log entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change log: %w", err)
	}

	return entries, nil
}

// ListAll retrieves a page of the global change log with display columns
// joined from the claims table. Returns the page and the unpaginated total.
func (r *ChangeLogRepository) ListAll(ctx context.Context, filter models.HistoryFilter, limit, offset int) ([]models.ChangeLogEntry, int, error) {
	var conditions []string
	var params []any

	if filter.UserID != nil {
		params = append(params, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("cl.user_id = $%d", len(params)))
	}
	if filter.CptID != nil {
		params = append(params, *filter.CptID)
		conditions = append(conditions, fmt.Sprintf("cl.cpt_id = $%d", len(params)))
	}
	if filter.StartDate != "" {
		params = append(params, filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("cl.timestamp >= $%d::date", len(params)))
	}
	if filter.EndDate != "" {
		// Inclusive of the whole end day
		params = append(params, filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("cl.timestamp < $%d::date + INTERVAL '1 day'", len(params)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM claim_change_log cl" + whereClause
	var totalCount int
	if err := r.db.QueryRow(ctx, countQuery, params...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count change log: %w", err)
	}

	params = append(params, limit)
	limitParam := len(params)
	params = append(params, offset)
	offsetParam := len(params)

	query := fmt.Sprintf(`
		SELECT cl.id, cl.claim_id, cl.user_id, cl.username, cl.cpt_id, cl.timestamp,
		       cl.field_name, cl.old_value, cl.new_value, cl.action_type,
		       c.cpt_code, c.first_name, c.last_name
		FROM claim_change_log cl
		LEFT JOIN claims c ON cl.claim_id = c.id
		%s
		ORDER BY cl.timestamp DESC, cl.id DESC
		LIMIT $%d OFFSET $%d`, whereClause, limitParam, offsetParam)

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list change log: %w", err)
	}
	defer rows.Close()

	var entries []models.ChangeLogEntry
	for rows.Next() {
		var e models.ChangeLogEntry
		err := rows.Scan(
			&e.ID, &e.ClaimID, &e.UserID, &e.Username, &e.CptID, &e.Timestamp,
			&e.FieldName, &e.OldValue, &e.NewValue, &e.Action,
			&e.CptCode, &e.FirstName, &e.LastName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan change log entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating change log: %w", err)
	}

	return entries, totalCount, nil
}
