// Package api exposes the site's HTTP surface: the authorization flow, the
// upload relay, and the RSVP/photo record endpoints.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evensia-dev/evensia/internal/auth"
	"github.com/evensia-dev/evensia/internal/common"
	"github.com/evensia-dev/evensia/internal/drive"
	"github.com/evensia-dev/evensia/internal/sheetdb"
)

// Handler carries the wired services behind the API routes.
type Handler struct {
	Auth    *auth.Service
	Jar     *auth.CookieJar
	Flows   *auth.Broker
	Drive   *drive.Service
	Records sheetdb.Recorder

	// AppURL is the public site base, used for non-popup callback redirects.
	AppURL string
	// ScriptURL is the configured external record store endpoint; empty means
	// the embedded store is serving.
	ScriptURL string

	Log zerolog.Logger

	now func() time.Time
}

// Now returns the handler clock, defaulting to time.Now.
func (h *Handler) Now() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

// Mount registers all API routes on a router group.
func (h *Handler) Mount(api *gin.RouterGroup) {
	google := api.Group("/auth/google")
	{
		google.GET("", h.requireAuth, h.BeginAuth)
		google.GET("/callback", h.requireAuth, h.Callback)
		google.GET("/wait", h.WaitFlow)
		google.POST("/closed", h.PopupClosed)
		google.GET("/status", h.Status)
		google.POST("/logout", h.Logout)
		google.POST("/test-token", h.requireAuth, h.TestToken)
	}

	api.POST("/upload", h.Upload)
	api.GET("/messages", h.ListMessages)
	api.POST("/messages", h.CreateMessage)
	api.GET("/photos", h.ListPhotos)
	api.POST("/photos", h.CreatePhoto)
	api.GET("/sheets/status", h.SheetsStatus)
}

// requireAuth rejects sign-in routes when the daemon runs without an OAuth
// client. The daemon stays useful for the record store either way; these
// routes answer with a structured envelope instead of faulting.
func (h *Handler) requireAuth(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "sign-in is not configured on this server",
		})
	}
}

// fail maps a service error onto the taxonomy's HTTP status and renders the
// uniform error envelope. Nothing propagates as an unhandled fault.
func (h *Handler) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrBadInput),
		errors.Is(err, common.ErrPayloadTooLarge),
		errors.Is(err, common.ErrUnsupportedType),
		errors.Is(err, common.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrSheetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// CORS allows the statically hosted frontend to call the API from another
// origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Set("request_id", reqID)

		c.Next()

		log.Info().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
