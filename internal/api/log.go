package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"geotrail/pkg/logging"
)

// Regex to capture key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// maxParamLen drops values (errors, paths) that would swamp the status line.
const maxParamLen = 20

// recentEvents is how many tracking events /api/log/latest returns.
const recentEvents = 5

// LatestLogResponse is the status-bar view of the logs.
type LatestLogResponse struct {
	Log    string   `json:"log"`
	Event  string   `json:"event"`
	Recent []string `json:"recent"`
}

// handleLatestLog returns the last server log line and the recent tracking events.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LatestLogResponse{
		Log:    formatLogLine(logging.GlobalLogCapture.Last()),
		Event:  strings.TrimSpace(logging.GlobalEventCapture.Last()),
		Recent: logging.GlobalEventCapture.Recent(recentEvents),
	})
}

// statusLine is a slog text record reduced to what a status bar shows.
type statusLine struct {
	clock  string
	level  string
	msg    string
	params []string
}

func (s statusLine) String() string {
	var b strings.Builder
	if s.clock != "" {
		b.WriteString(s.clock)
		b.WriteByte(' ')
	}
	if s.level != "" && s.level != "INFO" {
		fmt.Fprintf(&b, "[%s] ", s.level)
	}
	b.WriteString(s.msg)
	if len(s.params) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(s.params, ", "))
	}
	return b.String()
}

// formatLogLine turns "time=... level=... msg=... k=v" into
// "HH:MM:SS [LEVEL] msg (k=v, ...)" with sorted params and INFO left implicit.
// Lines that are not slog text records are returned unchanged.
func formatLogLine(raw string) string {
	matches := logRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var s statusLine
	for _, m := range matches {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				s.clock = t.Format("15:04:05")
			}
		case "level":
			s.level = strings.ToUpper(val)
		case "msg":
			s.msg = val
		default:
			if len(val) <= maxParamLen {
				s.params = append(s.params, key+"="+val)
			}
		}
	}

	if s.msg == "" {
		return raw
	}
	sort.Strings(s.params)
	return s.String()
}
