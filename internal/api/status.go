package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evensia-dev/evensia/internal/common"
	"github.com/evensia-dev/evensia/internal/sheetdb"
)

// SheetsStatus classifies the health of the record store backend so the
// frontend can tell a missing deployment apart from a broken one.
func (h *Handler) SheetsStatus(c *gin.Context) {
	if h.ScriptURL == "" {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "embedded",
			"message": "using the embedded record store",
		})
		return
	}

	_, err := h.Records.List(c.Request.Context(), sheetdb.SheetMessages)
	switch {
	case err == nil, errors.Is(err, common.ErrSheetNotFound):
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "connected",
			"message": "record store endpoint is reachable",
		})
	case errors.Is(err, common.ErrEndpointNotConfigured):
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"status":  "not_configured",
			"message": "record store endpoint is not configured",
		})
	case errors.Is(err, common.ErrEndpointMisconfigured):
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"status":  "login_required",
			"message": "endpoint answered with a sign-in page; redeploy the script with public access",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"status":  "connection_failed",
			"message": "record store endpoint is unreachable",
			"error":   err.Error(),
		})
	}
}
