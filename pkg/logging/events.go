package logging

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"geotrail/pkg/model"
)

// journal is the append-only tracking event log. The file is opened on the
// first event and kept open until the path changes.
var journal struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// SetEventLogPath points the event journal at path. "" disables the file and
// closes any open one; events are still mirrored to GlobalEventCapture.
func SetEventLogPath(path string) {
	journal.mu.Lock()
	defer journal.mu.Unlock()
	if journal.file != nil {
		_ = journal.file.Close()
		journal.file = nil
	}
	journal.path = path
}

// FormatEvent renders "[2006-01-02 15:04:05] [type] Title - Summary".
func FormatEvent(event *model.Event) string {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	line := fmt.Sprintf("[%s] [%s] %s", ts.Format(time.DateTime), event.Type, event.Title)
	if event.Summary != "" {
		line += " - " + event.Summary
	}
	return line
}

// LogEvent appends a tracking event to the journal.
func LogEvent(event *model.Event) {
	line := FormatEvent(event)
	_, _ = GlobalEventCapture.Write([]byte(line))

	journal.mu.Lock()
	defer journal.mu.Unlock()
	if journal.path == "" {
		return
	}
	if journal.file == nil {
		f, err := openLog(journal.path)
		if err != nil {
			slog.Error("Failed to open event log", "path", journal.path, "error", err)
			return
		}
		journal.file = f
	}
	if _, err := journal.file.WriteString(line + "\n"); err != nil {
		slog.Error("Failed to write event log", "error", err)
	}
}
