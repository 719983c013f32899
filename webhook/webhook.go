// Package webhook notifies an external endpoint when a save-mode scrape
// finishes. Notifications are diagnostic fan-out: delivery failure never
// affects the scrape's own result.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is the payload sent to webhook endpoints. Data never contains
// credentials or raw view data, only the envelope (success, filename).
type Event struct {
	Type      string `json:"type"` // "scrape.completed" or "scrape.failed"
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Mercantile-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mercantile-Scraper-Webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Mercantile-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event in the background with up to 3
// attempts, backing off 2s then 4s between them.
func DeliverAsync(url, secret string, event *Event) {
	go func() {
		for attempt := 1; attempt <= 3; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				return
			}
			slog.Warn("webhook delivery failed", "attempt", attempt, "error", err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt) * 2 * time.Second)
			}
		}
	}()
}
