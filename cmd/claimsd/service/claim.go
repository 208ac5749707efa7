package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hbox/claimtrack/cmd/claimsd/repository"
	"github.com/hbox/claimtrack/common/cache"
	"github.com/hbox/claimtrack/common/config"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

var (
	// ErrClaimNotFound means the claim id does not exist
	ErrClaimNotFound = errors.New("claim not found")

	// ErrNoEditableFields means the request body contained no allow-listed field
	ErrNoEditableFields = errors.New("no valid fields to update")

	// ErrUpdateConflict means the row existed at read time but the UPDATE
	// returned nothing: a concurrent delete won the race
	ErrUpdateConflict = errors.New("claim was removed while updating")
)

// Actor identifies who performed an edit, for change-log attribution
type Actor struct {
	UserID   int
	Username string
}

// ClaimStore is the persistence surface the claim service needs
type ClaimStore interface {
	List(ctx context.Context, filter models.ClaimFilter) ([]*models.Claim, error)
	GetByID(ctx context.Context, id int) (*models.Claim, error)
	Update(ctx context.Context, id int, updates []models.FieldUpdate) (*models.Claim, error)
}

// ChangeLogStore is the audit-trail surface the claim service needs
type ChangeLogStore interface {
	InsertBatch(ctx context.Context, entries []models.ChangeLogEntry) error
}

// ClaimService orchestrates claim reads and the update/diff/audit pipeline
type ClaimService struct {
	claims ClaimStore
	logs   ChangeLogStore
	cache  cache.Cache
	ttl    config.CacheConfig
	log    *logger.Logger

	// now is replaceable in tests; one call stamps a whole change batch
	now func() time.Time
}

// NewClaimService creates a new claim service
func NewClaimService(claims ClaimStore, logs ChangeLogStore, c cache.Cache, ttl config.CacheConfig, log *logger.Logger) *ClaimService {
	return &ClaimService{
		claims: claims,
		logs:   logs,
		cache:  c,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Cache tags. A claim update invalidates its own entry, its history, and
// every list query; lists are tagged collectively because any update can
// reorder or reshape them.
func claimTag(id int) string { return fmt.Sprintf("claim:%d", id) }

func historyTag(id int) string { return fmt.Sprintf("claim-history:%d", id) }

const listTag = "claims"

func listCacheKey(f models.ClaimFilter) string {
	p, c := 0, 0
	if f.PatientID != nil {
		p = *f.PatientID
	}
	if f.CptID != nil {
		c = *f.CptID
	}
	return fmt.Sprintf("claims-list:p=%d;c=%d;se=%s", p, c, f.ServiceEnd)
}

// List returns claims matching the filter, memoized briefly since the search
// UI refires the same query aggressively.
func (s *ClaimService) List(ctx context.Context, filter models.ClaimFilter) ([]*models.Claim, error) {
	key := listCacheKey(filter)
	if cached, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var claims []*models.Claim
		if err := json.Unmarshal(cached, &claims); err == nil {
			return claims, nil
		}
	}

	claims, err := s.claims.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	if data, err := json.Marshal(claims); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl.ListTTL, listTag); err != nil {
			s.log.Warn("failed to cache claims list", "error", err)
		}
	}

	return claims, nil
}

// Get returns one claim by id
func (s *ClaimService) Get(ctx context.Context, id int) (*models.Claim, error) {
	key := claimTag(id)
	if cached, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var claim models.Claim
		if err := json.Unmarshal(cached, &claim); err == nil {
			return &claim, nil
		}
	}

	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}

	if data, err := json.Marshal(claim); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl.ClaimTTL, claimTag(id)); err != nil {
			s.log.Warn("failed to cache claim", "error", err)
		}
	}

	return claim, nil
}

// Update applies a partial edit to a claim and appends the resulting field
// diffs to the change log. The UPDATE itself is the atomic unit; the audit
// insert is best-effort and never fails the edit.
func (s *ClaimService) Update(ctx context.Context, id int, body map[string]any, actor Actor) (*models.Claim, error) {
	current, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch claim for update: %w", err)
	}
	if current == nil {
		return nil, ErrClaimNotFound
	}

	updates, err := models.FilterEditable(body)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, ErrNoEditableFields
	}

	changes := ComputeDiff(current, updates)

	updated, err := s.claims.Update(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	if updated == nil {
		// Row vanished between the read and the write
		return nil, ErrUpdateConflict
	}

	if err := s.cache.InvalidateTags(ctx, claimTag(id), historyTag(id), listTag); err != nil {
		s.log.Warn("cache invalidation failed", "claim_id", id, "error", err)
	}

	if len(changes) > 0 {
		s.recordChanges(ctx, current, changes, actor)
	}

	s.log.Info("claim updated",
		"claim_id", id,
		"fields", len(updates),
		"changed", len(changes),
		"user_id", actor.UserID,
	)

	return updated, nil
}

// recordChanges appends one change-log row per changed field, all stamped
// with the same timestamp. Attribution falls back to the system identity,
// and cpt_id comes from the pre-update row. A missing change-log table is an
// expected fresh-environment state and is skipped quietly; any other insert
// failure is logged and swallowed so history never blocks the edit.
func (s *ClaimService) recordChanges(ctx context.Context, before *models.Claim, changes []Change, actor Actor) {
	userID := actor.UserID
	if userID == 0 {
		userID = 1
	}
	username := actor.Username
	if username == "" {
		if userID != 1 {
			username = "Admin"
		} else {
			username = "System"
		}
	}

	cptID := before.CptID
	batchTime := s.now()

	entries := make([]models.ChangeLogEntry, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, models.ChangeLogEntry{
			ClaimID:   before.ID,
			UserID:    userID,
			Username:  username,
			CptID:     &cptID,
			Timestamp: batchTime,
			FieldName: ch.FieldName,
			OldValue:  ch.OldValue,
			NewValue:  ch.NewValue,
			Action:    models.ActionUpdated,
		})
	}

	if err := s.logs.InsertBatch(ctx, entries); err != nil {
		if repository.IsUndefinedTable(err) {
			s.log.Debug("change log table missing, skipping history", "claim_id", before.ID)
			return
		}
		s.log.Error("failed to write change log", "claim_id", before.ID, "error", err)
		return
	}

	s.log.Debug("change log written",
		"claim_id", before.ID,
		"entries", len(entries),
		"username", username,
	)
}
