package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hbox/claimtrack/cmd/claimsd/middleware"
	"github.com/hbox/claimtrack/cmd/claimsd/service"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

// ClaimHandler handles claim read and update requests
type ClaimHandler struct {
	svc *service.ClaimService
	log *logger.Logger
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(svc *service.ClaimService, log *logger.Logger) *ClaimHandler {
	return &ClaimHandler{svc: svc, log: log}
}

// List returns claims matching the optional filters
// GET /api/claims?patient_id=&cpt_id=&service_end=
func (h *ClaimHandler) List(c echo.Context) error {
	var filter models.ClaimFilter

	if v := c.QueryParam("patient_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "Invalid patient_id", "patient_id must be a number")
		}
		filter.PatientID = &id
	}
	if v := c.QueryParam("cpt_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "Invalid cpt_id", "cpt_id must be a number")
		}
		filter.CptID = &id
	}
	filter.ServiceEnd = c.QueryParam("service_end")

	claims, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		h.log.Error("failed to list claims", "error", err)
		return respondError(c, http.StatusInternalServerError, "Failed to retrieve claims", "database query failed")
	}

	if claims == nil {
		claims = []*models.Claim{}
	}
	return respondData(c, http.StatusOK, claims)
}

// Get returns a single claim
// GET /api/claims/:id
func (h *ClaimHandler) Get(c echo.Context) error {
	id, err := claimID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid ID format", "The ID must be a number")
	}

	claim, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, service.ErrClaimNotFound) {
		return respondError(c, http.StatusNotFound, "Claim not found", fmt.Sprintf("No claim found with ID: %d", id))
	}
	if err != nil {
		h.log.Error("failed to get claim", "claim_id", id, "error", err)
		return respondError(c, http.StatusInternalServerError, "Failed to retrieve claim", "database query failed")
	}

	return respondData(c, http.StatusOK, claim)
}

// Update applies a partial edit to a claim
// PUT /api/claims/:id
func (h *ClaimHandler) Update(c echo.Context) error {
	id, err := claimID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid ID format", "The ID must be a number")
	}

	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid request body", "body must be a JSON object")
	}

	actor := actorFrom(c, body)

	claim, err := h.svc.Update(c.Request().Context(), id, body, actor)
	switch {
	case errors.Is(err, service.ErrClaimNotFound):
		return respondError(c, http.StatusNotFound, "Claim not found", fmt.Sprintf("No claim found with ID: %d", id))
	case errors.Is(err, service.ErrNoEditableFields):
		return respondError(c, http.StatusBadRequest, "No valid fields to update", "Request must include at least one valid field to update")
	case errors.Is(err, service.ErrUpdateConflict):
		h.log.Error("update returned no rows", "claim_id", id)
		return respondError(c, http.StatusInternalServerError, "Failed to update claim", "Update operation succeeded but no rows were returned")
	case err != nil:
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return respondError(c, http.StatusBadRequest, "Invalid field value", ve.Error())
		}
		h.log.Error("failed to update claim", "claim_id", id, "error", err)
		return respondError(c, http.StatusInternalServerError, "Failed to update claim", "database query failed")
	}

	return respondMessage(c, http.StatusOK, "Claim updated successfully", claim)
}

// Create is a stub; claims are created by an upstream ingest process
// POST /api/claims
func (h *ClaimHandler) Create(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid request body", "body must be a JSON object")
	}
	return respondMessage(c, http.StatusCreated, "Claim created successfully", body)
}

// Delete is a stub; claims are never hard-deleted by this service
// DELETE /api/claims/:id
func (h *ClaimHandler) Delete(c echo.Context) error {
	id, err := claimID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid ID format", "The ID must be a number")
	}
	return respondMessage(c, http.StatusOK, fmt.Sprintf("Claim with id %d deleted successfully", id), nil)
}

func claimID(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("id"))
}

// actorFrom resolves who made the edit. The authenticated principal wins;
// the body's user_id/username are honored for compatibility with clients
// that attribute explicitly.
func actorFrom(c echo.Context, body map[string]any) service.Actor {
	var actor service.Actor

	if principal := middleware.GetPrincipal(c); principal != nil {
		actor.UserID = principal.ID
		actor.Username = principal.Name
	}

	if v, ok := body["user_id"].(float64); ok {
		actor.UserID = int(v)
	}
	if v, ok := body["username"].(string); ok && v != "" {
		actor.Username = v
	}

	return actor
}
