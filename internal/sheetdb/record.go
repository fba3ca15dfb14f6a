// Package sheetdb implements the spreadsheet-as-table record store: an
// embeddable engine with JSON persistence, an HTTP server exposing the
// scripting-endpoint contract, and a remote client for an externally hosted
// endpoint. The store is schemaless; each write unions the record's field
// names into an append-only column registry.
package sheetdb

import (
	"fmt"
	"strconv"
)

// Sheet names used by the site flows.
const (
	SheetMessages = "messages"
	SheetPhotos   = "post"
)

// Action tags understood by the scripting endpoint. create, rsvp and
// upload_photo all append a row; the latter two additionally stamp creation
// timestamps when absent.
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionRSVP        = "rsvp"
	ActionUploadPhoto = "upload_photo"
)

// Record is a single row keyed by the sheet's header registry. Cells read
// back from a sheet are always strings; missing cells render as "".
type Record map[string]any

// cellString renders a record value the way a spreadsheet cell stores it.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
