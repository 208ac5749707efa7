package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hbox/claimtrack/common/models"
)

// ErrUnauthorized is returned when the server rejects the bearer token
var ErrUnauthorized = errors.New("unauthorized")

// ClaimsClient handles communication with the claims API.
// All responses use the same envelope: {success, data?, message?, error?}.
type ClaimsClient struct {
	baseURL string
	token   string
	http    *HTTPClient
	logger  Logger
}

// NewClaimsClient creates a new claims API client
func NewClaimsClient(baseURL string, logger Logger) *ClaimsClient {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	return &ClaimsClient{
		baseURL: baseURL,
		http:    NewHTTPClient(httpClient, logger),
		logger:  logger,
	}
}

// SetToken sets the bearer token used for authenticated requests
func (c *ClaimsClient) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token
func (c *ClaimsClient) Token() string {
	return c.token
}

// envelope is the wire format shared by every endpoint
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`

	// pagination fields, present on page responses
	TotalCount  int  `json:"totalCount"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	Unavailable bool `json:"history_unavailable"`
}

// doJSON executes a request and decodes the envelope, mapping
// HTTP status and envelope errors into Go errors.
func (c *ClaimsClient) doJSON(ctx context.Context, method, requestURL string, body any) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	var resp *http.Response
	var err error
	if reader != nil {
		resp, err = c.http.DoRequest(ctx, method, requestURL, c.token, reader)
	} else {
		resp, err = c.http.DoRequest(ctx, method, requestURL, c.token, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: status=%d: %w", resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%s: %s", env.Error, env.Message)
		}
		return nil, fmt.Errorf("request failed: status=%d", resp.StatusCode)
	}

	return &env, nil
}

// LoginResult is the payload returned by a successful login
type LoginResult struct {
	Token string            `json:"token"`
	User  *models.Principal `json:"user"`
}

// Login authenticates and stores the returned token on the client
func (c *ClaimsClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	env, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	c.token = result.Token
	c.logger.Info("logged in", "user", result.User.Email)
	return &result, nil
}

// ListClaims fetches claims matching the optional filters
func (c *ClaimsClient) ListClaims(ctx context.Context, filter models.ClaimFilter) ([]*models.Claim, error) {
	query := url.Values{}
	if filter.PatientID != nil {
		query.Set("patient_id", strconv.Itoa(*filter.PatientID))
	}
	if filter.CptID != nil {
		query.Set("cpt_id", strconv.Itoa(*filter.CptID))
	}
	if filter.ServiceEnd != "" {
		query.Set("service_end", filter.ServiceEnd)
	}

	requestURL := c.baseURL + "/api/claims"
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	env, err := c.doJSON(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	var claims []*models.Claim
	if err := json.Unmarshal(env.Data, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	return claims, nil
}

// GetClaim fetches a single claim by ID
func (c *ClaimsClient) GetClaim(ctx context.Context, id int) (*models.Claim, error) {
	env, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/api/claims/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	var claim models.Claim
	if err := json.Unmarshal(env.Data, &claim); err != nil {
		return nil, fmt.Errorf("failed to decode claim: %w", err)
	}
	return &claim, nil
}

// UpdateClaim sends a partial edit and returns the server's row
func (c *ClaimsClient) UpdateClaim(ctx context.Context, id int, fields map[string]any) (*models.Claim, error) {
	env, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/api/claims/%d", c.baseURL, id), fields)
	if err != nil {
		return nil, err
	}

	var claim models.Claim
	if err := json.Unmarshal(env.Data, &claim); err != nil {
		return nil, fmt.Errorf("failed to decode updated claim: %w", err)
	}
	return &claim, nil
}

// ClaimHistoryResult holds one claim's change log
type ClaimHistoryResult struct {
	Entries     []models.ChangeLogEntry
	Unavailable bool
}

// ClaimHistory fetches the change log for a single claim
func (c *ClaimsClient) ClaimHistory(ctx context.Context, id int) (*ClaimHistoryResult, error) {
	env, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/api/claims/%d/history", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	var entries []models.ChangeLogEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return &ClaimHistoryResult{Entries: entries, Unavailable: env.Unavailable}, nil
}

// HistoryPage holds a page of the global change log
type HistoryPage struct {
	Entries     []models.ChangeLogEntry
	TotalCount  int
	Page        int
	Limit       int
	TotalPages  int
	Unavailable bool
}

// AllHistory fetches a filtered, paginated view of the global change log
func (c *ClaimsClient) AllHistory(ctx context.Context, filter models.HistoryFilter, page, limit int) (*HistoryPage, error) {
	query := url.Values{}
	if filter.UserID != nil {
		query.Set("user_id", strconv.Itoa(*filter.UserID))
	}
	if filter.CptID != nil {
		query.Set("cpt_id", strconv.Itoa(*filter.CptID))
	}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	requestURL := c.baseURL + "/api/claims/history/all"
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	env, err := c.doJSON(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	var entries []models.ChangeLogEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history page: %w", err)
	}
	return &HistoryPage{
		Entries:     entries,
		TotalCount:  env.TotalCount,
		Page:        env.Page,
		Limit:       env.Limit,
		TotalPages:  env.TotalPages,
		Unavailable: env.Unavailable,
	}, nil
}
