package schema

import (
	"strconv"
	"time"
)

// Photo represents an album entry pointing at an already-public storage
// object. The record store only ever sees the URL, never binary data.
// Stored in the 'post' sheet.
type Photo struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Image     string `json:"image"`
	Caption   string `json:"caption"`
	CreatedAt string `json:"createdAt"`
}

// NewPhoto builds a Photo record. The image URL must come from the upload
// relay; creating a record for a non-public object violates the album
// contract.
func NewPhoto(from, imageURL, caption string, now time.Time) Photo {
	return Photo{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		From:      from,
		Image:     imageURL,
		Caption:   caption,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}
