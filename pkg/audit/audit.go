package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// SDID constants for structured data IDs (RFC5424). 32473 is the
// documentation enterprise number from RFC 5612.
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDMeta    = "meta@32473"
)

// AppName is the APP-NAME field of every line.
const AppName = "bouncer"

// Syslog facility constants
const (
	FacilityAuth     = 4  // LOG_AUTH - security/authorization messages
	FacilityAuthPriv = 10 // LOG_AUTHPRIV - security/authorization messages (private)
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger writes audit events in RFC5424 syslog format
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	hostname string
	pid      int
	now      func() time.Time
}

// NewLogger creates a logger writing to w, or stdout when w is nil
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   w,
		hostname: hostname,
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

// Log writes an audit event as one line:
// <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) {
	pri := event.Facility()*8 + int(event.Severity())
	timestamp := l.now().UTC().Format("2006-01-02T15:04:05.000Z")

	sd := formatStructuredData(event.StructuredData())
	if sd == "" {
		sd = "-"
	}

	hostname := l.hostname
	if hostname == "" {
		hostname = "-"
	}

	line := fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		pri,
		timestamp,
		hostname,
		AppName,
		l.pid,
		event.MessageID(),
		sd,
		event.Message(),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write([]byte(line))
}

// formatStructuredData renders [sdid k="v" ...] blocks with SDIDs and
// params in sorted order so lines are stable.
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	ids := make([]string, 0, len(sd))
	for sdid := range sd {
		ids = append(ids, sdid)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, sdid := range ids {
		params := sd[sdid]
		keys := make([]string, 0, len(params))
		for k, v := range params {
			if v != "" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		sb.WriteString("[" + sdid)
		for _, k := range keys {
			sb.WriteString(" " + k + "=" + escapeSDValue(params[k]))
		}
		sb.WriteString("]")
	}
	return sb.String()
}

// escapeSDValue escapes special characters in structured data values per RFC5424
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func severity(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}

func withError(msg, errorMessage string) string {
	if errorMessage != "" {
		return msg + ": " + errorMessage
	}
	return msg
}
