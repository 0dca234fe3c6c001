package logging

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Fatalf("level %s: %v", level, err)
		}
	}
	if _, err := New("loud"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("postgres://portal:hunter2@db:5432/portal?sslmode=disable")
	if got != "postgres://[REDACTED]@db:5432/portal?sslmode=disable" {
		t.Fatalf("unexpected redaction %q", got)
	}
	if RedactURL("redis://localhost:6379") != "redis://localhost:6379" {
		t.Fatalf("url without credentials must be untouched")
	}
}
