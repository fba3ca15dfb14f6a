package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evensia-dev/evensia/internal/common"
	"github.com/evensia-dev/evensia/internal/sheetdb"
	"github.com/evensia-dev/evensia/pkg/schema"
)

// ListMessages returns every RSVP message. A sheet that has never been
// written to simply reads as empty.
func (h *Handler) ListMessages(c *gin.Context) {
	records, err := h.Records.List(c.Request.Context(), sheetdb.SheetMessages)
	if err != nil && !errors.Is(err, common.ErrSheetNotFound) {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []sheetdb.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// CreateMessage records an RSVP. Attendance defaults to yes when the caller
// leaves it out.
func (h *Handler) CreateMessage(c *gin.Context) {
	var body struct {
		Fullname  string `json:"fullname"`
		IsPresent *bool  `json:"is_present"`
		Message   string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, fmt.Errorf("%w: invalid request body", common.ErrBadInput))
		return
	}
	if body.Fullname == "" {
		h.fail(c, fmt.Errorf("%w: fullname is required", common.ErrBadInput))
		return
	}

	isPresent := true
	if body.IsPresent != nil {
		isPresent = *body.IsPresent
	}

	msg := schema.NewMessage(body.Fullname, isPresent, body.Message, h.Now())
	stored, err := sheetdb.SubmitRSVP(c.Request.Context(), h.Records, msg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})
}

// ListPhotos returns every guest photo record.
func (h *Handler) ListPhotos(c *gin.Context) {
	records, err := h.Records.List(c.Request.Context(), sheetdb.SheetPhotos)
	if err != nil && !errors.Is(err, common.ErrSheetNotFound) {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []sheetdb.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// CreatePhoto records an already-uploaded photo so it shows up in the gallery.
func (h *Handler) CreatePhoto(c *gin.Context) {
	var body struct {
		Image   string `json:"image"`
		Caption string `json:"caption"`
		From    string `json:"from"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, fmt.Errorf("%w: invalid request body", common.ErrBadInput))
		return
	}
	if body.Image == "" || body.Caption == "" || body.From == "" {
		h.fail(c, fmt.Errorf("%w: image, caption and from are required", common.ErrBadInput))
		return
	}

	photo := schema.NewPhoto(body.From, body.Image, body.Caption, h.Now())
	stored, err := sheetdb.SubmitPhoto(c.Request.Context(), h.Records, photo)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})
}
