// Package common defines shared constants and sentinel errors used across the
// Evensia services. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Request validation errors.
	ErrBadInput        = errors.New("bad input")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUnsupportedType = errors.New("unsupported file type")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrAuthExchange = errors.New("authorization code exchange failed")
	ErrInvalidState = errors.New("invalid state parameter")

	// Upstream provider errors.
	ErrUploadFailed           = errors.New("upload failed")
	ErrEndpointMisconfigured  = errors.New("record store endpoint misconfigured")
	ErrEndpointNotConfigured  = errors.New("record store endpoint not configured")
	ErrRecordStoreUnavailable = errors.New("record store unavailable")

	// Lookup errors.
	ErrNotFound      = errors.New("not found")
	ErrSheetNotFound = errors.New("sheet not found")
)
