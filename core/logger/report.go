package logger

import (
	"encoding/json"
	"io"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(entry *structpb.Struct)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var entry structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &entry); err != nil {
			return err
		}

		handler(&entry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Sessions   StrCounter `json:"sessions"`
	Events     StrCounter `json:"events"`

	Programs StrCounter `json:"programs"`
	Builtins StrCounter `json:"builtins"`
	Modes    StrCounter `json:"modes"`

	ExitStatuses *PathCounter `json:"exit_statuses"`
	Errors       *PathCounter `json:"errors"`
}

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{
		ExitStatuses: NewPathCounter("program", "status"),
		Errors:       NewPathCounter("kind", "error"),
	}
}

// Update adds a log entry to the report.
func (r *Report) Update(entry *structpb.Struct) {
	r.LogEntries++

	fields := entry.GetFields()
	r.Events.Increment(stringField(fields, KeyEvent))

	switch stringField(fields, KeyEvent) {
	case EventSessionStart:
		r.Sessions.Increment(stringField(fields, KeySessionID))
	case EventCommand:
		r.Programs.Increment(firstArg(fields, "argv"))
		if fields["background"].GetBoolValue() {
			r.Modes.Increment("background")
		} else {
			r.Modes.Increment("foreground")
		}
		if fields["pipelining"].GetBoolValue() {
			r.Modes.Increment("pipeline")
		}
	case EventBuiltin:
		r.Builtins.Increment(firstArg(fields, "argv"))
	case EventReap:
		r.ExitStatuses.Increment(firstArg(fields, "argv"), numberField(fields, "status"))
	case EventError:
		r.Errors.Increment(stringField(fields, "kind"), stringField(fields, "error"))
	}
}

func stringField(fields map[string]*structpb.Value, key string) string {
	return fields[key].GetStringValue()
}

func numberField(fields map[string]*structpb.Value, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	out, _ := json.Marshal(v.GetNumberValue())
	return string(out)
}

func firstArg(fields map[string]*structpb.Value, key string) string {
	values := fields[key].GetListValue().GetValues()
	if len(values) == 0 {
		return ""
	}
	return values[0].GetStringValue()
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

// NewPathCounter creates a counter keyed by a tuple of the given columns.
func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns the number of times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
