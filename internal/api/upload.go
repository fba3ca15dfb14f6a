package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evensia-dev/evensia/internal/drive"
)

// Upload relays a multipart photo to cloud storage and returns the public
// URLs. Validation and the make-public handshake live in the drive service;
// this route only unpacks the form and picks the token source.
func (h *Handler) Upload(c *gin.Context) {
	in := drive.UploadInput{
		Caption:     c.PostForm("caption"),
		AccessToken: h.Jar.AccessToken(c.Request),
	}
	if in.AccessToken == "" {
		in.AccessToken = c.PostForm("accessToken")
	}

	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.fail(c, err)
			return
		}
		defer f.Close()

		// Bounded read: one byte past the limit is enough for the relay's
		// size check to reject, without buffering an arbitrarily large body.
		data, err := io.ReadAll(io.LimitReader(f, drive.MaxUploadSize+1))
		if err != nil {
			h.fail(c, err)
			return
		}
		in.Data = data
		in.Filename = fh.Filename
		in.ContentType = fh.Header.Get("Content-Type")
	}

	result, err := h.Drive.Upload(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
