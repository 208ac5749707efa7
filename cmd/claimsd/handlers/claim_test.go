package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbox/claimtrack/cmd/claimsd/service"
	"github.com/hbox/claimtrack/common/cache"
	"github.com/hbox/claimtrack/common/config"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

// stubClaimStore backs handler tests with a single in-memory claim
type stubClaimStore struct {
	claim *models.Claim
}

func (s *stubClaimStore) List(ctx context.Context, filter models.ClaimFilter) ([]*models.Claim, error) {
	if s.claim == nil {
		return nil, nil
	}
	return []*models.Claim{s.claim}, nil
}

func (s *stubClaimStore) GetByID(ctx context.Context, id int) (*models.Claim, error) {
	if s.claim != nil && s.claim.ID == id {
		return s.claim, nil
	}
	return nil, nil
}

func (s *stubClaimStore) Update(ctx context.Context, id int, updates []models.FieldUpdate) (*models.Claim, error) {
	if s.claim == nil || s.claim.ID != id {
		return nil, nil
	}
	next := *s.claim
	for _, u := range updates {
		if u.Field.Name == "charge_amt" {
			if v, ok := u.Value.(float64); ok {
				next.ChargeAmt = &v
			}
		}
	}
	s.claim = &next
	return &next, nil
}

type stubChangeLogStore struct {
	batches [][]models.ChangeLogEntry
}

func (s *stubChangeLogStore) InsertBatch(ctx context.Context, entries []models.ChangeLogEntry) error {
	s.batches = append(s.batches, entries)
	return nil
}

func newTestHandler(store *stubClaimStore) *ClaimHandler {
	log := logger.New("error", "json")
	ttl := config.CacheConfig{
		ListTTL:       30 * time.Second,
		ClaimTTL:      time.Minute,
		HistoryTTL:    2 * time.Minute,
		AllHistoryTTL: time.Minute,
	}
	svc := service.NewClaimService(store, &stubChangeLogStore{}, cache.NewMemoryCache(log), ttl, log)
	return NewClaimHandler(svc, log)
}

func testClaim() *models.Claim {
	charge := 100.0
	return &models.Claim{ID: 42, PatientID: 7, CptID: 3, ChargeAmt: &charge}
}

func doRequest(method, target, body string, params map[string]string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for name, value := range params {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}
	_ = handler(c)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListHandler_ReturnsEnvelope(t *testing.T) {
	h := newTestHandler(&stubClaimStore{claim: testClaim()})

	rec := doRequest(http.MethodGet, "/api/claims", "", nil, h.List)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 1)
}

func TestListHandler_RejectsBadFilter(t *testing.T) {
	h := newTestHandler(&stubClaimStore{})

	rec := doRequest(http.MethodGet, "/api/claims?patient_id=abc", "", nil, h.List)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid patient_id", body["error"])
}

func TestGetHandler_Found(t *testing.T) {
	h := newTestHandler(&stubClaimStore{claim: testClaim()})

	rec := doRequest(http.MethodGet, "/api/claims/42", "", map[string]string{"id": "42"}, h.Get)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(42), data["id"])
}

func TestGetHandler_NotFound(t *testing.T) {
	h := newTestHandler(&stubClaimStore{})

	rec := doRequest(http.MethodGet, "/api/claims/42", "", map[string]string{"id": "42"}, h.Get)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Claim not found", body["error"])
	assert.Equal(t, "No claim found with ID: 42", body["message"])
}

func TestGetHandler_InvalidID(t *testing.T) {
	h := newTestHandler(&stubClaimStore{})

	rec := doRequest(http.MethodGet, "/api/claims/abc", "", map[string]string{"id": "abc"}, h.Get)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid ID format", body["error"])
}

func TestUpdateHandler_Success(t *testing.T) {
	h := newTestHandler(&stubClaimStore{claim: testClaim()})

	rec := doRequest(http.MethodPut, "/api/claims/42",
		`{"charge_amt": 150, "user_id": 2, "username": "jdoe"}`,
		map[string]string{"id": "42"}, h.Update)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Claim updated successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(150), data["charge_amt"])
}

func TestUpdateHandler_NoEditableFields(t *testing.T) {
	h := newTestHandler(&stubClaimStore{claim: testClaim()})

	rec := doRequest(http.MethodPut, "/api/claims/42",
		`{"patient_id": 9, "nonsense": true}`,
		map[string]string{"id": "42"}, h.Update)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "No valid fields to update", body["error"])
}

func TestUpdateHandler_ValidationError(t *testing.T) {
	h := newTestHandler(&stubClaimStore{claim: testClaim()})

	rec := doRequest(http.MethodPut, "/api/claims/42",
		`{"charge_amt": "lots"}`,
		map[string]string{"id": "42"}, h.Update)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid field value", body["error"])
	assert.Contains(t, body["message"], "charge_amt")
}

func TestUpdateHandler_NotFound(t *testing.T) {
	h := newTestHandler(&stubClaimStore{})

	rec := doRequest(http.MethodPut, "/api/claims/42",
		`{"charge_amt": 150}`,
		map[string]string{"id": "42"}, h.Update)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
