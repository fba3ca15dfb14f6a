package sheetdb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/evensia-dev/evensia/pkg/schema"
)

// New selects the record store based on configuration. A non-empty script URL
// selects the remote scripting endpoint; otherwise the embedded engine is
// used with JSON persistence under dataDir. Callers only see the Recorder
// interface either way.
func New(scriptURL, dataDir string, log zerolog.Logger) (Recorder, *Store, error) {
	if scriptURL != "" {
		return NewClient(scriptURL, nil), nil, nil
	}

	p, err := NewPersistence(dataDir, log)
	if err != nil {
		return nil, nil, err
	}
	all, err := p.LoadAll()
	if err != nil {
		return nil, nil, err
	}

	store := NewStore(all, p)
	return store, store, nil
}

// SubmitRSVP appends an RSVP message to the messages sheet with the rsvp
// action tag. Field order mirrors the site's write path so the column
// registry stays stable.
func SubmitRSVP(ctx context.Context, r Recorder, msg schema.Message) (Record, error) {
	rec := Record{
		"id":         msg.ID,
		"fullname":   msg.Fullname,
		"is_present": msg.IsPresent,
		"message":    msg.Message,
		"created_at": msg.CreatedAt,
		"updated_at": msg.UpdatedAt,
	}
	if s, ok := r.(*Store); ok {
		return s.CreateOrdered(ctx, SheetMessages, ActionRSVP, rec,
			[]string{"id", "fullname", "is_present", "message", "created_at", "updated_at"})
	}
	return r.Create(ctx, SheetMessages, ActionRSVP, rec)
}

// SubmitPhoto appends a photo record to the post sheet with the upload_photo
// action tag. The image URL must already be publicly fetchable.
func SubmitPhoto(ctx context.Context, r Recorder, photo schema.Photo) (Record, error) {
	rec := Record{
		"id":        photo.ID,
		"from":      photo.From,
		"image":     photo.Image,
		"caption":   photo.Caption,
		"createdAt": photo.CreatedAt,
	}
	if s, ok := r.(*Store); ok {
		return s.CreateOrdered(ctx, SheetPhotos, ActionUploadPhoto, rec,
			[]string{"id", "from", "image", "caption", "createdAt"})
	}
	return r.Create(ctx, SheetPhotos, ActionUploadPhoto, rec)
}

// Migrate copies the named sheets from a source store to a destination.
// Works embedded→remote for go-live and remote→embedded for backups.
func Migrate(ctx context.Context, src, dst Recorder, sheets []string) error {
	for _, sheet := range sheets {
		records, err := src.List(ctx, sheet)
		if err != nil {
			return fmt.Errorf("failed to list sheet %s: %w", sheet, err)
		}
		for _, rec := range records {
			if _, err := dst.Create(ctx, sheet, ActionCreate, rec); err != nil {
				return fmt.Errorf("failed to copy record into sheet %s: %w", sheet, err)
			}
		}
	}
	return nil
}
