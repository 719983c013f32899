package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Observer is the injectable observability sink. It receives side-channel
// diagnostics only: implementations must never influence control flow, and
// every method is best-effort.
type Observer interface {
	// Attach subscribes to the page's CDP events. Called once per session,
	// before the first navigation.
	Attach(page *rod.Page)

	// Event records a named diagnostic event with slog-style key/values.
	Event(kind string, kv ...any)

	// Capture stores a point-in-time screenshot under the given label.
	Capture(label string, png []byte)
}

// NopObserver is the default: no diagnostics.
type NopObserver struct{}

func (NopObserver) Attach(*rod.Page)       {}
func (NopObserver) Event(string, ...any)   {}
func (NopObserver) Capture(string, []byte) {}

// DebugObserver logs browser console output, page errors and network
// traffic through slog, and writes screenshot captures to a directory.
// Enable it only for postmortems; it subscribes to the Network CDP domain,
// which is noisy.
type DebugObserver struct {
	dir string
}

// NewDebugObserver creates an observer writing captures under dir.
func NewDebugObserver(dir string) *DebugObserver {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("debug observer: cannot create capture dir", "dir", dir, "error", err)
	}
	return &DebugObserver{dir: dir}
}

// Attach subscribes to console, exception and network events. The goroutine
// ends when the page closes.
func (o *DebugObserver) Attach(page *rod.Page) {
	go page.EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			args := make([]string, 0, len(e.Args))
			for _, a := range e.Args {
				args = append(args, a.Value.String())
			}
			slog.Debug("browser console", "type", string(e.Type), "args", args)
		},
		func(e *proto.RuntimeExceptionThrown) {
			slog.Debug("browser page error", "text", e.ExceptionDetails.Text)
		},
		func(e *proto.NetworkRequestWillBeSent) {
			slog.Debug("browser request", "method", e.Request.Method, "url", e.Request.URL)
		},
		func(e *proto.NetworkResponseReceived) {
			slog.Debug("browser response", "status", e.Response.Status, "url", e.Response.URL)
		},
	)()
}

// Event logs the diagnostic event at debug level.
func (o *DebugObserver) Event(kind string, kv ...any) {
	slog.Debug("scrape event", append([]any{"kind", kind}, kv...)...)
}

// Capture writes the PNG under a timestamped name. Failures are logged and
// swallowed; a lost screenshot must never fail a scrape.
func (o *DebugObserver) Capture(label string, png []byte) {
	if len(png) == 0 {
		return
	}
	name := fmt.Sprintf("%s-%s.png", time.Now().UTC().Format("20060102-150405.000"), label)
	path := filepath.Join(o.dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		slog.Warn("debug observer: capture write failed", "path", path, "error", err)
		return
	}
	slog.Debug("debug capture written", "label", label, "path", path)
}

// Snapshot takes and stores a screenshot of the session under label.
// Used at the login checkpoints and on errors.
func Snapshot(ctx context.Context, obs Observer, sess Session, label string) {
	if obs == nil {
		return
	}
	if _, nop := obs.(NopObserver); nop {
		return
	}
	png, err := sess.Screenshot(ctx)
	if err != nil {
		obs.Event("capture-failed", "label", label, "error", err.Error())
		return
	}
	obs.Capture(label, png)
}
