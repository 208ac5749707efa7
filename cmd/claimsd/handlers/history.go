package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hbox/claimtrack/cmd/claimsd/service"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

// HistoryHandler handles audit-trail read requests
type HistoryHandler struct {
	svc *service.HistoryService
	log *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(svc *service.HistoryService, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, log: log}
}

// ClaimHistory returns the change log for one claim
// GET /api/claims/:id/history
func (h *HistoryHandler) ClaimHistory(c echo.Context) error {
	id, err := claimID(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid ID format", "The ID must be a number")
	}

	result, err := h.svc.ClaimHistory(c.Request().Context(), id)
	if errors.Is(err, service.ErrClaimNotFound) {
		return respondError(c, http.StatusNotFound, "Claim not found", fmt.Sprintf("No claim found with ID: %d", id))
	}
	if err != nil {
		h.log.Error("failed to load claim history", "claim_id", id, "error", err)
		return respondError(c, http.StatusInternalServerError, "Failed to retrieve claim history", "database query failed")
	}

	entries := result.Entries
	if entries == nil {
		entries = []models.ChangeLogEntry{}
	}

	body := map[string]any{
		"success": true,
		"data":    entries,
	}
	if result.Unavailable {
		body["history_unavailable"] = true
	}
	return c.JSON(http.StatusOK, body)
}

// AllHistory returns a filtered, paginated view of the global change log
// GET /api/claims/history/all?user_id=&cpt_id=&start_date=&end_date=&page=&limit=
func (h *HistoryHandler) AllHistory(c echo.Context) error {
	var filter models.HistoryFilter

	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "Invalid user_id", "user_id must be a number")
		}
		filter.UserID = &id
	}
	if v := c.QueryParam("cpt_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "Invalid cpt_id", "cpt_id must be a number")
		}
		filter.CptID = &id
	}
	filter.StartDate = c.QueryParam("start_date")
	filter.EndDate = c.QueryParam("end_date")

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	result, err := h.svc.AllHistory(c.Request().Context(), filter, page, limit)
	if err != nil {
		h.log.Error("failed to load change history", "error", err)
		return respondError(c, http.StatusInternalServerError, "Failed to retrieve change history", "database query failed")
	}

	entries := result.Entries
	if entries == nil {
		entries = []models.ChangeLogEntry{}
	}
	return respondPage(c, entries, result.TotalCount, result.Page, result.Limit, result.TotalPages, result.Unavailable)
}

func queryInt(c echo.Context, name string, defaultValue int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
