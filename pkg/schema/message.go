// Package schema defines universal data structures used across the Evensia platform.
package schema

import (
	"strconv"
	"time"
)

// Message represents a single RSVP entry left by a guest.
// Stored in the 'messages' sheet of the record store.
type Message struct {
	ID        string `json:"id"`
	Fullname  string `json:"fullname"`
	IsPresent bool   `json:"is_present"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewMessage builds a Message with a caller-assigned millisecond-timestamp ID
// and RFC3339 creation/update stamps. The record store enforces no uniqueness;
// the timestamp ID is advisory.
func NewMessage(fullname string, isPresent bool, text string, now time.Time) Message {
	stamp := now.UTC().Format(time.RFC3339)
	return Message{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Fullname:  fullname,
		IsPresent: isPresent,
		Message:   text,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
}
