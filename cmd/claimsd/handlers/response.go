package handlers

import "github.com/labstack/echo/v4"

// Every endpoint answers with the same envelope:
// {success, data?, message?, error?}; paginated responses add the page math.

func respondData(c echo.Context, status int, data any) error {
	return c.JSON(status, map[string]any{
		"success": true,
		"data":    data,
	})
}

func respondMessage(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, map[string]any{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func respondError(c echo.Context, status int, errText, message string) error {
	return c.JSON(status, map[string]any{
		"success": false,
		"error":   errText,
		"message": message,
	})
}

func respondPage(c echo.Context, data any, totalCount, page, limit, totalPages int, unavailable bool) error {
	body := map[string]any{
		"success":    true,
		"data":       data,
		"totalCount": totalCount,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages,
	}
	if unavailable {
		body["history_unavailable"] = true
	}
	return c.JSON(200, body)
}
