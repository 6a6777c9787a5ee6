package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Director != "logs" {
		t.Errorf("expected Director 'logs', got '%s'", cfg.Director)
	}
	if cfg.Level != "info" {
		t.Errorf("expected Level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected Format 'json', got '%s'", cfg.Format)
	}
	if !cfg.LogInTerminal || !cfg.LogInFile {
		t.Error("expected terminal and file output to be enabled")
	}
	if cfg.MaxAge != 7 || cfg.MaxSize != 100 || cfg.MaxBackups != 10 {
		t.Errorf("unexpected rotation defaults: %+v", cfg)
	}
}

func TestConfigTransportLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"dpanic", zapcore.DPanicLevel},
		{"panic", zapcore.PanicLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{Level: tt.level}
			if got := cfg.TransportLevel(); got != tt.expected {
				t.Errorf("TransportLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfigApplyDefaultsKeepsExplicitFalse(t *testing.T) {
	cfg := Config{LogInTerminal: false, LogInFile: false}
	cfg.applyDefaults()
	if cfg.LogInTerminal || cfg.LogInFile {
		t.Error("applyDefaults must not flip explicit booleans")
	}
	if cfg.Director != "logs" || cfg.TimeFormat == "" {
		t.Errorf("string defaults not applied: %+v", cfg)
	}
}

func TestNewLoggerWritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	defer CloseAllWriters()

	l := NewLogger(Config{
		Director:  dir,
		Level:     "info",
		Format:    "json",
		LogInFile: true,
	})
	l.Debug("hidden")
	l.Info("compose finished", zap.Int("width", 800))
	l.Error("upload failed")
	_ = l.Sync()

	date := time.Now().Format("2006-01-02")
	info, err := os.ReadFile(filepath.Join(dir, date, "info.log"))
	if err != nil {
		t.Fatalf("read info.log: %v", err)
	}
	if !strings.Contains(string(info), `"message":"compose finished"`) || !strings.Contains(string(info), `"width":800`) {
		t.Errorf("info.log = %s", info)
	}
	if strings.Contains(string(info), "upload failed") {
		t.Error("error entry leaked into info.log")
	}
	if _, err := os.Stat(filepath.Join(dir, date, "debug.log")); !os.IsNotExist(err) {
		t.Error("debug.log should not exist below the configured level")
	}
	errLog, _ := os.ReadFile(filepath.Join(dir, date, "error.log"))
	if !strings.Contains(string(errLog), "upload failed") {
		t.Errorf("error.log = %s", errLog)
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	l := NewLogger(Config{Level: "debug", Format: "console", LogInTerminal: true})
	l.Named("editor").Warnf("crop %dx%d", 20, 20)

	out := buf.String()
	if !strings.Contains(out, "warn") || !strings.Contains(out, "editor") || !strings.Contains(out, "crop 20x20") {
		t.Errorf("console output = %q", out)
	}
}

func TestHooks(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var levels []zapcore.Level
	l := WithHooks(FromZap(zap.New(core)), func(e zapcore.Entry) error {
		levels = append(levels, e.Level)
		return nil
	})

	l.Info("a")
	l.With(zap.String("k", "v")).Error("b")

	if len(levels) != 2 || levels[1] != zapcore.ErrorLevel {
		t.Errorf("hook saw %v", levels)
	}
	if logs.Len() != 2 {
		t.Errorf("wrapped core got %d entries", logs.Len())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := FromZap(zap.New(core))

	ctx := SetSessionID(SetTraceID(context.Background(), "trace-1"), "sess-9")
	WithContext(base, ctx).Info("drag")

	fields := logs.All()[0].ContextMap()
	if fields["trace_id"] != "trace-1" || fields["session_id"] != "sess-9" {
		t.Errorf("fields = %v", fields)
	}

	if WithContext(base, context.Background()) != base {
		t.Error("empty context should return the same logger")
	}
	var nilCtx context.Context
	if WithContext(base, nilCtx) != base {
		t.Error("nil context should return the same logger")
	}
}

func TestContextLoggerStorage(t *testing.T) {
	globalMu.RLock()
	old := globalLogger
	globalMu.RUnlock()
	defer SetGlobal(old)
	SetGlobal(Nop())

	l := Nop().Named("x")
	ctx := ToContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext did not return stored logger")
	}
	if FromContext(context.Background()) != Global() {
		t.Error("FromContext without logger should fall back to Global")
	}
}

func TestSetGlobal(t *testing.T) {
	globalMu.RLock()
	old := globalLogger
	globalMu.RUnlock()
	defer SetGlobal(old)

	core, logs := observer.New(zapcore.InfoLevel)
	SetGlobal(FromZap(zap.New(core)))
	Info("global info")
	Named("svc").Warn("global warn")

	if logs.Len() != 2 || logs.All()[1].LoggerName != "svc" {
		t.Errorf("global entries = %+v", logs.All())
	}
}

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	h := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(loggerKey{}).(Logger); !ok {
			t.Error("handler should see the request logger")
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x", nil)
	req = req.WithContext(SetTraceID(req.Context(), "t-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn for 404", e.Level)
	}
	fields := e.ContextMap()
	if fields["status"] != int64(404) || fields["bytes"] != int64(7) || fields["trace_id"] != "t-1" {
		t.Errorf("fields = %v", fields)
	}
}
