package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/hbox/claimtrack/common/models"
)

// ErrSyncFailed is returned when an edit was applied locally but could
// not be pushed to the server after all retry attempts.
var ErrSyncFailed = errors.New("saved locally, sync failed")

const (
	defaultRetries  = 3
	defaultBackoff  = time.Second
	defaultDebounce = 800 * time.Millisecond
)

// StoreOptions tune the retry and debounce behavior of a ClaimStore
type StoreOptions struct {
	// Retries is the total number of update attempts (default 3)
	Retries int
	// Backoff is the fixed delay between attempts (default 1s)
	Backoff time.Duration
	// Debounce is the trailing-edge delay for SaveField (default 800ms)
	Debounce time.Duration
}

// ClaimStore is a client-side view of the claims table with optimistic
// updates: edits land in local state immediately, then sync to the
// server in the background. A failed sync never reverts the local edit;
// the claim is marked unsynced instead.
type ClaimStore struct {
	api      *ClaimsClient
	logger   Logger
	retries  int
	backoff  time.Duration
	debounce time.Duration

	mu            sync.Mutex
	principal     *models.Principal
	claims        []*models.Claim
	searchResults []*models.Claim
	current       *models.Claim
	unsynced      map[int]bool

	flightMu sync.Mutex
	inFlight map[int]bool
	locks    map[int]*sync.Mutex

	timerMu sync.Mutex
	timers  map[string]*time.Timer
}

// NewClaimStore creates a claim store backed by the given API client
func NewClaimStore(api *ClaimsClient, logger Logger, opts StoreOptions) *ClaimStore {
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	return &ClaimStore{
		api:      api,
		logger:   logger,
		retries:  opts.Retries,
		backoff:  opts.Backoff,
		debounce: opts.Debounce,
		unsynced: make(map[int]bool),
		inFlight: make(map[int]bool),
		locks:    make(map[int]*sync.Mutex),
		timers:   make(map[string]*time.Timer),
	}
}

// Login authenticates against the API and remembers the principal so
// subsequent edits carry attribution
func (s *ClaimStore) Login(ctx context.Context, email, password string) (*models.Principal, error) {
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.principal = result.User
	s.mu.Unlock()
	return result.User, nil
}

// SetPrincipal sets the actor attributed in the change log for edits made
// through this store. Login sets it automatically.
func (s *ClaimStore) SetPrincipal(p *models.Principal) {
	s.mu.Lock()
	s.principal = p
	s.mu.Unlock()
}

// Load fetches the default claim list into the store
func (s *ClaimStore) Load(ctx context.Context) error {
	claims, err := s.api.ListClaims(ctx, models.ClaimFilter{})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.claims = claims
	s.mu.Unlock()
	return nil
}

// Search fetches claims matching the filter into the search results
func (s *ClaimStore) Search(ctx context.Context, filter models.ClaimFilter) ([]*models.Claim, error) {
	claims, err := s.api.ListClaims(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.searchResults = claims
	s.mu.Unlock()
	return claims, nil
}

// Open fetches one claim and makes it current
func (s *ClaimStore) Open(ctx context.Context, id int) (*models.Claim, error) {
	claim, err := s.api.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = claim
	s.mu.Unlock()
	return claim, nil
}

// Claims returns the loaded claim list
func (s *ClaimStore) Claims() []*models.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims
}

// SearchResults returns the last search's results
func (s *ClaimStore) SearchResults() []*models.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchResults
}

// Current returns the currently open claim
func (s *ClaimStore) Current() *models.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Unsynced reports whether a claim has local edits the server has not accepted
func (s *ClaimStore) Unsynced(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsynced[id]
}

// InFlight reports whether an update for the claim is currently syncing
func (s *ClaimStore) InFlight(id int) bool {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()
	return s.inFlight[id]
}

// claimLock returns the per-claim mutex, creating it on first use.
// Updates to different claims run concurrently; updates to the same
// claim are serialized.
func (s *ClaimStore) claimLock(id int) *sync.Mutex {
	s.flightMu.Lock()
	defer s.flightMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *ClaimStore) setInFlight(id int, v bool) {
	s.flightMu.Lock()
	s.inFlight[id] = v
	s.flightMu.Unlock()
}

// UpdateClaim applies the edit to local state immediately, then syncs it
// to the server with retries. On total failure the local edit stays and
// the claim is marked unsynced; on success the server's row replaces the
// optimistic one everywhere it appears.
func (s *ClaimStore) UpdateClaim(ctx context.Context, id int, fields map[string]any) (*models.Claim, error) {
	if len(fields) == 0 {
		return nil, errors.New("no fields to update")
	}

	normalized := normalizeFields(fields)

	lock := s.claimLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.setInFlight(id, true)
	defer s.setInFlight(id, false)

	if err := s.applyOptimistic(id, normalized); err != nil {
		s.logger.Warn("optimistic merge failed", "claim_id", id, "error", err)
	}

	// Attribution rides in the body alongside the fields; it is not part of
	// the optimistic merge since it is not claim data
	payload := normalized
	s.mu.Lock()
	if s.principal != nil {
		payload = make(map[string]any, len(normalized)+2)
		for k, v := range normalized {
			payload[k] = v
		}
		payload["user_id"] = s.principal.ID
		payload["username"] = s.principal.Name
	}
	s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		claim, err := s.api.UpdateClaim(ctx, id, payload)
		if err == nil {
			s.reconcile(claim)
			return claim, nil
		}
		lastErr = err

		// Do not burn retries on auth failures or a dead context
		if errors.Is(err, ErrUnauthorized) || ctx.Err() != nil {
			break
		}

		s.logger.Warn("claim sync attempt failed",
			"claim_id", id,
			"attempt", attempt,
			"error", err)

		if attempt < s.retries {
			select {
			case <-time.After(s.backoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
			}
		}
	}

	s.mu.Lock()
	s.unsynced[id] = true
	s.mu.Unlock()

	return nil, fmt.Errorf("%w: %w", ErrSyncFailed, lastErr)
}

// SaveField schedules a single-field save with trailing-edge debounce:
// rapid successive edits to the same field collapse into one update
// carrying the final value. Different fields debounce independently.
func (s *ClaimStore) SaveField(ctx context.Context, id int, field string, value any) {
	key := fmt.Sprintf("%d:%s", id, field)

	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(s.debounce, func() {
		s.timerMu.Lock()
		delete(s.timers, key)
		s.timerMu.Unlock()

		if _, err := s.UpdateClaim(ctx, id, map[string]any{field: value}); err != nil {
			s.logger.Error("debounced save failed", "claim_id", id, "field", field, "error", err)
		}
	})
}

// Flush cancels pending debounced saves without executing them
func (s *ClaimStore) Flush() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// History fetches the change log for a claim
func (s *ClaimStore) History(ctx context.Context, id int) (*ClaimHistoryResult, error) {
	return s.api.ClaimHistory(ctx, id)
}

// applyOptimistic merge-patches the edit into every local copy of the claim
func (s *ClaimStore) applyOptimistic(id int, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merge := func(claim *models.Claim) (*models.Claim, error) {
		original, err := json.Marshal(claim)
		if err != nil {
			return nil, err
		}
		merged, err := jsonpatch.MergePatch(original, patch)
		if err != nil {
			return nil, err
		}
		var next models.Claim
		if err := json.Unmarshal(merged, &next); err != nil {
			return nil, err
		}
		return &next, nil
	}

	var firstErr error
	replace := func(list []*models.Claim) {
		for i, claim := range list {
			if claim != nil && claim.ID == id {
				next, err := merge(claim)
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				list[i] = next
			}
		}
	}

	replace(s.claims)
	replace(s.searchResults)
	if s.current != nil && s.current.ID == id {
		next, err := merge(s.current)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			s.current = next
		}
	}
	return firstErr
}

// reconcile replaces every local copy of the claim with the server's row
// and clears the unsynced mark
func (s *ClaimStore) reconcile(claim *models.Claim) {
	if claim == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replace := func(list []*models.Claim) {
		for i, c := range list {
			if c != nil && c.ID == claim.ID {
				list[i] = claim
			}
		}
	}

	replace(s.claims)
	replace(s.searchResults)
	if s.current != nil && s.current.ID == claim.ID {
		s.current = claim
	}
	delete(s.unsynced, claim.ID)
}

// normalizeFields truncates timestamp strings on date fields to their
// date part so the server always receives YYYY-MM-DD
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if str, ok := value.(string); ok && models.IsDateField(name) {
			if idx := strings.Index(str, "T"); idx == 10 {
				str = str[:10]
			}
			out[name] = str
			continue
		}
		out[name] = value
	}
	return out
}
