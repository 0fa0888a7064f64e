package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"Warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name      string
		field     Field
		wantKey   string
		wantValue any
	}{
		{"String", String("k", "v"), "k", "v"},
		{"Int", Int("count", 7), "count", 7},
		{"Bool", Bool("ok", true), "ok", true},
		{"Duration", Duration("timeout", 5 * time.Second), "timeout", "5s"},
		{"Error", Error(errors.New("boom")), "error", "boom"},
		{"Error nil", Error(nil), "error", nil},
		{"Component", Component("importer"), "component", "importer"},
		{"ProjectID", ProjectID("p1"), "project_id", "p1"},
		{"Standard", Standard("DIN 277"), "standard", "DIN 277"},
		{"Operation", Operation("ComputeAreas"), "operation", "ComputeAreas"},
		{"Count", Count(3), "count", 3},
		{"Path", Path("/health"), "path", "/health"},
		{"Latency", Latency(250 * time.Millisecond), "latency", "250ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.wantKey || tt.field.Value != tt.wantValue {
				t.Errorf("field = %+v, want {%s %v}", tt.field, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func lastRecord(t *testing.T, buf *bytes.Buffer) record {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec record
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	return rec
}

func TestJSONLoggerRecordShape(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("snapshot imported", ProjectID("p1"), Count(12))

	rec := lastRecord(t, &buf)
	if rec.Level != "INFO" || rec.Message != "snapshot imported" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Time == "" {
		t.Error("record has no timestamp")
	}
	if rec.Fields["project_id"] != "p1" {
		t.Errorf("project_id = %v, want p1", rec.Fields["project_id"])
	}
	// JSON numbers decode as float64.
	if rec.Fields["count"] != float64(12) {
		t.Errorf("count = %v, want 12", rec.Fields["count"])
	}
}

func TestJSONLoggerOmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("plain")

	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("fieldless record must omit the fields object: %s", buf.String())
	}
}

func TestJSONLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("records = %d, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"WARN"`) || !strings.Contains(lines[1], `"ERROR"`) {
		t.Errorf("unexpected records:\n%s", buf.String())
	}
}

func TestWithInheritsAndExtends(t *testing.T) {
	var buf bytes.Buffer
	root := NewJSONLogger(&buf, InfoLevel)
	child := root.With(Component("store")).With(ProjectID("p1"))

	child.Info("saved", Count(1))

	rec := lastRecord(t, &buf)
	if rec.Fields["component"] != "store" || rec.Fields["project_id"] != "p1" {
		t.Errorf("child fields not carried: %+v", rec.Fields)
	}

	// The parent stays free of the child's fields.
	buf.Reset()
	root.Info("root record")
	if strings.Contains(buf.String(), "store") {
		t.Errorf("parent carries child fields: %s", buf.String())
	}
}

func TestDefaultLoggerReplaceable(t *testing.T) {
	orig := DefaultLogger()
	defer SetDefaultLogger(orig)

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	DefaultLogger().Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Error("replaced default logger not used")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// Callable at every level and chainable without output.
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d", Error(errors.New("boom")))
	if logger.With(Component("x")) == nil {
		t.Error("With() returned nil")
	}
}
