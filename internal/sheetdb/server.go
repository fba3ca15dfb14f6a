package sheetdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evensia-dev/evensia/internal/common"
)

// Server exposes the Store over the scripting-endpoint contract: GET with a
// ?sheet= query returning {data: [...]}, POST with an {action, data, id?}
// envelope returning {success, data|error}. Responses are always 200 with the
// outcome in the body, matching the hosted endpoint's behavior.
type Server struct {
	store *Store
}

// NewServer wraps a store.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Mount registers the two endpoints on a router group.
func (s *Server) Mount(g *gin.RouterGroup) {
	g.GET("", s.handleGet)
	g.POST("", s.handlePost)
}

func (s *Server) handleGet(c *gin.Context) {
	sheet := c.DefaultQuery("sheet", SheetMessages)

	records, err := s.store.List(c.Request.Context(), sheet)
	if err != nil {
		if errors.Is(err, common.ErrSheetNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": "Sheet not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []Record{}
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

type postEnvelope struct {
	Action string          `json:"action"`
	ID     string          `json:"id"`
	Data   json.RawMessage `json:"data"`
}

func (s *Server) handlePost(c *gin.Context) {
	sheet := c.DefaultQuery("sheet", SheetMessages)

	var env postEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	rec, fieldOrder, err := decodeOrdered(env.Data)
	if err != nil && len(env.Data) > 0 {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch env.Action {
	case ActionCreate, ActionRSVP, ActionUploadPhoto:
		stored, err := s.store.CreateOrdered(ctx, sheet, env.Action, rec, fieldOrder)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})

	case ActionUpdate:
		if err := s.store.Update(ctx, sheet, env.ID, rec); err != nil {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})

	case ActionDelete:
		if err := s.store.Delete(ctx, sheet, env.ID); err != nil {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Record deleted successfully"})

	default:
		c.JSON(http.StatusOK, gin.H{"success": false, "error": fmt.Sprintf("Invalid action: %s", env.Action)})
	}
}

// decodeOrdered unmarshals a JSON object while recording its top-level key
// order, so the column registry extends in the order the writer sent fields.
func decodeOrdered(raw json.RawMessage) (Record, []string, error) {
	rec := Record{}
	if len(raw) == 0 {
		return rec, nil, nil
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected JSON object")
	}

	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		key, ok := keyTok.(string)
		if !ok {
			break
		}
		// Consume the value, nested or not.
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			break
		}
		if !contains(order, key) {
			order = append(order, key)
		}
	}
	return rec, order, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
