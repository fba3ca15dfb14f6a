package sheetdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// tableSnapshot is the on-disk form of one sheet.
type tableSnapshot struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Persistence handles disk I/O for the embedded store.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
	log     zerolog.Logger
}

// NewPersistence initializes a persistence handler rooted at dir.
func NewPersistence(dir string, log zerolog.Logger) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Persistence{DataDir: dir, log: log}, nil
}

// SaveSheet writes a single sheet to a JSON file atomically: the snapshot is
// written to a temp file first, then renamed over the old one, so a crash
// leaves either the old file or the new one, never a torn write.
func (p *Persistence) SaveSheet(sheet string, snap tableSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := filepath.Join(p.DataDir, fmt.Sprintf("%s.json", sheet))
	tempPath := filePath + ".tmp"

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tempPath, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}

// LoadAll returns every sheet found in the data directory, skipping files it
// cannot read or parse.
func (p *Persistence) LoadAll() (map[string]tableSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := make(map[string]tableSnapshot)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		sheet := file.Name()[:len(file.Name())-5]

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			p.log.Warn().Err(err).Str("file", file.Name()).Msg("could not read sheet file")
			continue
		}

		var snap tableSnapshot
		if err := json.Unmarshal(content, &snap); err != nil {
			p.log.Warn().Err(err).Str("file", file.Name()).Msg("could not parse sheet file")
			continue
		}
		all[sheet] = snap
	}
	return all, nil
}
