// Package drive relays guest uploads to the cloud storage provider and hands
// back a publicly fetchable URL. The record store never sees binary data,
// only the URL this relay returns.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/evensia-dev/evensia/internal/common"
	"github.com/evensia-dev/evensia/pkg/schema"
)

// MaxUploadSize is the admission limit for a single file.
const MaxUploadSize = 5 << 20 // 5 MiB

// allowedTypes is the image whitelist. Anything else is rejected before any
// network call.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Public URL templates, derived deterministically from the object ID.
const (
	publicURLFormat    = "https://drive.google.com/uc?id=%s"
	viewURLFormat      = "https://drive.google.com/file/d/%s/view"
	thumbnailURLFormat = "https://drive.google.com/thumbnail?id=%s&sz=w1000"
)

// Service is the upload relay.
type Service struct {
	apiBase    string
	uploadBase string
	http       *http.Client
	log        zerolog.Logger
	now        func() time.Time
}

// NewService builds a relay against the given provider endpoints. httpClient
// may be nil.
func NewService(apiBase, uploadBase string, httpClient *http.Client, log zerolog.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Service{
		apiBase:    apiBase,
		uploadBase: uploadBase,
		http:       httpClient,
		log:        log,
		now:        time.Now,
	}
}

// UploadInput carries one admission-checked upload.
type UploadInput struct {
	Data        []byte
	ContentType string
	Filename    string
	Caption     string
	AccessToken string
}

// Upload pushes a file to the storage provider, names and describes it, and
// makes it public. The result is returned only once the object is confirmed
// publicly readable; on a failed visibility grant the object is deleted so no
// record can ever point at a private object.
//
// Admission checks run in a fixed order before any network call: token, file
// presence, size, content type.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*schema.UploadResult, error) {
	if in.AccessToken == "" {
		return nil, fmt.Errorf("%w: authentication required", common.ErrUnauthorized)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: no file provided", common.ErrBadInput)
	}
	if len(in.Data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds 5MB limit", common.ErrPayloadTooLarge)
	}
	if !allowedTypes[in.ContentType] {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedType, in.ContentType)
	}

	objectID, err := s.uploadMedia(ctx, in)
	if err != nil {
		return nil, err
	}

	name := s.objectName(in)
	storedName, err := s.patchMetadata(ctx, in.AccessToken, objectID, name, in.Caption)
	if err != nil {
		s.deleteObject(ctx, in.AccessToken, objectID)
		return nil, err
	}

	if err := s.makePublic(ctx, in.AccessToken, objectID); err != nil {
		// A non-public object must not be reported as a success; drop it so
		// nothing downstream can reference it.
		s.deleteObject(ctx, in.AccessToken, objectID)
		return nil, err
	}

	return &schema.UploadResult{
		ID:            objectID,
		Name:          storedName,
		URL:           fmt.Sprintf(publicURLFormat, objectID),
		WebViewLink:   fmt.Sprintf(viewURLFormat, objectID),
		ThumbnailLink: fmt.Sprintf(thumbnailURLFormat, objectID),
	}, nil
}

// objectName builds the unique object name: timestamp prefix, optional
// caption infix, then the original filename.
func (s *Service) objectName(in UploadInput) string {
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if in.Caption != "" {
		return fmt.Sprintf("%s_%s_%s", stamp, in.Caption, in.Filename)
	}
	return fmt.Sprintf("%s_%s", stamp, in.Filename)
}

func (s *Service) uploadMedia(ctx context.Context, in UploadInput) (string, error) {
	url := s.uploadBase + "/files?uploadType=media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(in.Data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", in.ContentType)
	req.ContentLength = int64(len(in.Data))

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: token rejected by storage provider", common.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: media upload returned HTTP %d", common.ErrUploadFailed, resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		return "", fmt.Errorf("%w: media upload returned no object id", common.ErrUploadFailed)
	}
	return out.ID, nil
}

func (s *Service) patchMetadata(ctx context.Context, token, objectID, name, caption string) (string, error) {
	body, _ := json.Marshal(map[string]string{"name": name, "description": caption})
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.apiBase+"/files/"+objectID, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: metadata patch returned HTTP %d", common.ErrUploadFailed, resp.StatusCode)
	}

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: invalid metadata response", common.ErrUploadFailed)
	}
	if out.Name == "" {
		return name, nil
	}
	return out.Name, nil
}

func (s *Service) makePublic(ctx context.Context, token, objectID string) error {
	body, _ := json.Marshal(map[string]string{"role": "reader", "type": "anyone"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/files/"+objectID+"/permissions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: visibility grant returned HTTP %d", common.ErrUploadFailed, resp.StatusCode)
	}
	return nil
}

// deleteObject removes an orphaned object after a failed step. Best effort;
// a leftover private object is invisible to guests either way.
func (s *Service) deleteObject(ctx context.Context, token, objectID string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.apiBase+"/files/"+objectID, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Str("object", objectID).Msg("could not delete orphaned object")
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn().Int("status", resp.StatusCode).Str("object", objectID).Msg("could not delete orphaned object")
	}
}
