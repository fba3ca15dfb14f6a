package sdk

import (
	"context"

	"github.com/evensia-dev/evensia/pkg/schema"
)

// Record is one schemaless row from the record store. Values read back as
// strings regardless of the type they were written with.
type Record map[string]any

// --- Functional Interfaces (Interface Segregation) ---

// GuestbookReader lists RSVP messages.
type GuestbookReader interface {
	Messages(ctx context.Context) ([]Record, error)
}

// GuestbookWriter appends RSVP messages.
type GuestbookWriter interface {
	SubmitRSVP(ctx context.Context, fullname string, isPresent bool, message string) (Record, error)
}

// AlbumReader lists guest photo records.
type AlbumReader interface {
	Photos(ctx context.Context) ([]Record, error)
}

// AlbumWriter appends photo records for already-public images.
type AlbumWriter interface {
	SubmitPhoto(ctx context.Context, from, imageURL, caption string) (Record, error)
}

// Uploader relays image bytes into cloud storage.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*schema.UploadResult, error)
}

// HealthChecker reports backend reachability.
type HealthChecker interface {
	AuthStatus(ctx context.Context) (bool, error)
	SheetsStatus(ctx context.Context) (*SheetsStatus, error)
}

// --- Composite Interface ---

// EvensiaAPI combines everything a frontend or tool needs from the site.
type EvensiaAPI interface {
	GuestbookReader
	GuestbookWriter
	AlbumReader
	AlbumWriter
	Uploader
	HealthChecker
}

// UploadRequest carries one image through the upload relay.
type UploadRequest struct {
	Filename    string
	ContentType string
	Caption     string
	AccessToken string
	Data        []byte
}

// SheetsStatus is the classified health of the record store backend.
type SheetsStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
