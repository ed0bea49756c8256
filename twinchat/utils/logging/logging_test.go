package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSplitLoggerRoutesErrors(t *testing.T) {
	appCore, appLogs := observer.New(zap.InfoLevel)
	errCore, errLogs := observer.New(zap.ErrorLevel)
	l := splitLogger{app: zap.New(appCore), err: zap.New(errCore)}

	l.Info("chat sent", zap.String("agent_id", "agent-1"))
	l.Error("chat failed", zap.Int("status", 500))

	if appLogs.Len() != 2 {
		t.Errorf("expected 2 app entries, got %d", appLogs.Len())
	}
	if errLogs.Len() != 1 {
		t.Fatalf("expected 1 error entry, got %d", errLogs.Len())
	}
	if got := errLogs.All()[0].Message; got != "chat failed" {
		t.Errorf("unexpected error entry %q", got)
	}
}

func TestInitLoggerCreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	InitLogger(dir)
	t.Cleanup(func() {
		AppLogger, RequestLogger, TimerLogger, ErrorLogger = zap.NewNop(), zap.NewNop(), zap.NewNop(), zap.NewNop()
	})

	Default().Info("hello")
	defer LogDuration(context.WithValue(context.Background(), RequestIDKey, "req-1"), "test")()
	Sync()

	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Errorf("expected app.log: %v", err)
	}
}
