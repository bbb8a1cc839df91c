package logger

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Well known event names.
const (
	EventSessionStart = "session_start"
	EventSessionEnd   = "session_end"
	EventCommand      = "command"
	EventBuiltin      = "builtin"
	EventLaunch       = "launch"
	EventReap         = "reap"
	EventError        = "error"
)

// Well known entry keys.
const (
	KeyEvent           = "event"
	KeySessionID       = "session_id"
	KeyTimestampMicros = "timestamp_micros"
)

// Fields holds the event specific values of a log entry.
type Fields map[string]interface{}

// Recorder stores events.
type Recorder interface {
	Record(event string, fields Fields) error
}

// NopRecorder drops all events.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(string, Fields) error {
	return nil
}

var _ Recorder = NopRecorder{}

// LogRecorder is a callback that stores entries in an external datastore.
type LogRecorder func(entry *structpb.Struct) error

// Logger turns events into log entries and hands them to a LogRecorder.
type Logger struct {
	Record LogRecorder

	now func() time.Time
}

// NewJSONLinesLogRecorder creates a Logger that exports entries in newline
// delimited JSON object format.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex

	return &Logger{
		Record: func(entry *structpb.Struct) error {
			line, err := protojson.Marshal(entry)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(line))
			return err
		},
		now: time.Now,
	}
}

func (l *Logger) record(sessionID, event string, fields Fields) error {
	now := l.now
	if now == nil {
		now = time.Now
	}

	values := map[string]interface{}{
		KeyEvent:           event,
		KeySessionID:       sessionID,
		KeyTimestampMicros: now().UnixMicro(),
	}
	for k, v := range fields {
		values[k] = normalize(v)
	}

	entry, err := structpb.NewStruct(values)
	if err != nil {
		return fmt.Errorf("event %q: %w", event, err)
	}

	return l.Record(entry)
}

// NewSession creates a recorder that tags entries with a new session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

var _ Recorder = (*SessionLogger)(nil)

// SessionID returns the ID attached to every entry.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record implements Recorder.
func (l *SessionLogger) Record(event string, fields Fields) error {
	return l.record(l.sessionID, event, fields)
}

// normalize converts values structpb can't represent directly.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}
