// Package sink persists scrape results for mode=save requests.
package sink

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Suleiman700/mercantile-scraper/models"
)

// Sink writes one scrape result to durable storage and returns the name it
// was stored under.
type Sink interface {
	Write(result *models.ScrapeResult) (filename string, err error)
}

// FileSink stores results as pretty-printed JSON files in one directory.
type FileSink struct {
	dir string
}

// NewFileSink creates the directory if needed and returns the sink.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: create output dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Write stores the result under a collision-resistant name. The timestamp
// gives ordering, the random suffix keeps two writes in the same millisecond
// from colliding.
func (s *FileSink) Write(result *models.ScrapeResult) (string, error) {
	filename := Filename(time.Now().UTC())

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("sink: marshal result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o600); err != nil {
		return "", fmt.Errorf("sink: write %s: %w", filename, err)
	}
	return filename, nil
}

// Load reads a previously written result back. Mostly a diagnostic aid; it
// also pins down that Write round-trips losslessly.
func (s *FileSink) Load(filename string) (*models.ScrapeResult, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("sink: read %s: %w", filename, err)
	}
	var result models.ScrapeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("sink: decode %s: %w", filename, err)
	}
	return &result, nil
}

// Filename builds the storage name for a result written at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("scrape-%s-%s.json", t.Format("20060102-150405.000"), randomID())
}

// randomID returns 4 random bytes hex-encoded.
func randomID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the clock rather than refuse to save.
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b)
}
