package s3archive

import (
	"testing"
	"time"
)

func TestGetObjectKey(t *testing.T) {
	cfg := &Config{}
	day := time.Date(2026, time.March, 7, 15, 4, 5, 0, time.UTC)

	got := cfg.GetObjectKey(day)
	want := "audit/2026/03/audit-2026-03-07.jsonl"
	if got != want {
		t.Fatalf("GetObjectKey = %q, want %q", got, want)
	}
}

func TestLoadConfigDisabledByDefault(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsEnabled() {
		t.Fatal("archive should be disabled without S3_ARCHIVE_ENABLED")
	}
}

func TestLoadConfigRequiresCredentialsWhenEnabled(t *testing.T) {
	t.Setenv("S3_ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	t.Setenv("S3_SECRET_ACCESS_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for enabled archive without credentials")
	}

	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "goldlock-audit")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsEnabled() {
		t.Fatal("archive should be enabled")
	}
}
