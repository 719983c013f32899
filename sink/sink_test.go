package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Suleiman700/mercantile-scraper/models"
)

func sampleResult() *models.ScrapeResult {
	return &models.ScrapeResult{
		Success:   true,
		Timestamp: time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC),
		Views: map[string]models.ViewResult{
			models.ViewAccounts: {
				Data: []models.Account{{Number: "104-123456", Label: "Private", Branch: "104"}},
			},
			models.ViewLoans: {
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeElementNotFound,
					Message: "loans table did not appear",
				},
			},
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	s, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	original := sampleResult()
	name, err := s.Write(original)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(name, "scrape-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected filename %q", name)
	}

	loaded, err := s.Load(name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Data fields are `any`, so compare the JSON forms.
	wantJSON, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	gotJSON, err := json.Marshal(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("round trip changed the result:\n got %s\nwant %s", gotJSON, wantJSON)
	}
}

func TestWriteCreatesFileWithTightPermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	name, err := s.Write(sampleResult())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("result file mode = %o, want 600", perm)
	}
}

func TestNewFileSink_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	if _, err := NewFileSink(dir); err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output dir was not created: %v", err)
	}
}

func TestFilename_CollisionResistant(t *testing.T) {
	now := time.Now().UTC()
	a := Filename(now)
	b := Filename(now)
	if a == b {
		t.Errorf("two filenames for the same instant collided: %q", a)
	}
	if !strings.Contains(a, now.Format("20060102")) {
		t.Errorf("filename %q does not embed the date", a)
	}
}
