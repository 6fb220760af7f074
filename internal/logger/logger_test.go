package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("calling provider", "api_key", "sk-123", "Authorization", "Bearer x", "model", "flux", "dangling")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["api_key"] != redacted {
		t.Errorf("api_key not redacted: %v", fields["api_key"])
	}
	if fields["Authorization"] != redacted {
		t.Errorf("Authorization not redacted: %v", fields["Authorization"])
	}
	if fields["model"] != "flux" {
		t.Errorf("model should pass through, got %v", fields["model"])
	}
}

func TestWithRedacts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("access_key", "abc", "run_id", "r1")
	l.Warn("x")

	fields := logs.All()[0].ContextMap()
	if fields["access_key"] != redacted || fields["run_id"] != "r1" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New("dev", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	l, err := New("prod", "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.SugaredLogger.Desugar().Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Debug("a", "k", 1)
	l.Error("b")
	l.Sync()
}
