package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hbox/claimtrack/cmd/claimsd/repository"
	"github.com/hbox/claimtrack/common/cache"
	"github.com/hbox/claimtrack/common/config"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

// HistoryStore is the audit-trail read surface
type HistoryStore interface {
	ListByClaim(ctx context.Context, claimID int) ([]models.ChangeLogEntry, error)
	ListAll(ctx context.Context, filter models.HistoryFilter, limit, offset int) ([]models.ChangeLogEntry, int, error)
}

// HistoryResult is the change log for one claim. Unavailable is set when the
// change-log table has not been created yet; the entries are then empty
// rather than fabricated.
type HistoryResult struct {
	Entries     []models.ChangeLogEntry
	Unavailable bool
}

// HistoryPage is one page of the global change log
type HistoryPage struct {
	Entries     []models.ChangeLogEntry
	TotalCount  int
	Page        int
	Limit       int
	TotalPages  int
	Unavailable bool
}

// HistoryService serves the audit-trail read endpoints
type HistoryService struct {
	claims ClaimStore
	logs   HistoryStore
	cache  cache.Cache
	ttl    config.CacheConfig
	log    *logger.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(claims ClaimStore, logs HistoryStore, c cache.Cache, ttl config.CacheConfig, log *logger.Logger) *HistoryService {
	return &HistoryService{
		claims: claims,
		logs:   logs,
		cache:  c,
		ttl:    ttl,
		log:    log,
	}
}

// ClaimHistory returns the change log for one claim, newest first. The claim
// must exist. A missing change-log table yields an empty, flagged result
// instead of an error so a fresh deployment still renders.
func (s *HistoryService) ClaimHistory(ctx context.Context, claimID int) (*HistoryResult, error) {
	key := historyTag(claimID)
	if cached, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var result HistoryResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	}

	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("check claim for history: %w", err)
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}

	result := &HistoryResult{}
	entries, err := s.logs.ListByClaim(ctx, claimID)
	switch {
	case repository.IsUndefinedTable(err):
		s.log.Warn("change log table missing, history unavailable", "claim_id", claimID)
		result.Unavailable = true
	case err != nil:
		return nil, fmt.Errorf("load claim history: %w", err)
	default:
		result.Entries = entries
	}

	s.cacheResult(ctx, key, result, historyTag(claimID))
	return result, nil
}

// AllHistory returns a filtered, paginated view of the whole change log with
// display columns joined from claims.
func (s *HistoryService) AllHistory(ctx context.Context, filter models.HistoryFilter, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	key := allHistoryCacheKey(filter, page, limit)
	if cached, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var result HistoryPage
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	}

	result := &HistoryPage{Page: page, Limit: limit}
	entries, totalCount, err := s.logs.ListAll(ctx, filter, limit, offset)
	switch {
	case repository.IsUndefinedTable(err):
		s.log.Warn("change log table missing, history unavailable")
		result.Unavailable = true
	case err != nil:
		return nil, fmt.Errorf("load change history: %w", err)
	default:
		result.Entries = entries
		result.TotalCount = totalCount
		result.TotalPages = (totalCount + limit - 1) / limit
	}

	s.cacheResult(ctx, key, result, listTag)
	return result, nil
}

func (s *HistoryService) cacheResult(ctx context.Context, key string, result any, tags ...string) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := s.ttl.HistoryTTL
	if _, ok := result.(*HistoryPage); ok {
		ttl = s.ttl.AllHistoryTTL
	}
	if err := s.cache.Set(ctx, key, data, ttl, tags...); err != nil {
		s.log.Warn("failed to cache history", "key", key, "error", err)
	}
}

func allHistoryCacheKey(f models.HistoryFilter, page, limit int) string {
	u, c := 0, 0
	if f.UserID != nil {
		u = *f.UserID
	}
	if f.CptID != nil {
		c = *f.CptID
	}
	return fmt.Sprintf("all-history:u=%d;c=%d;s=%s;e=%s;p=%d;l=%d",
		u, c, f.StartDate, f.EndDate, page, limit)
}
