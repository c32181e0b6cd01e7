package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		in        string
		wantKey   string
		wantValue string
		wantOK    bool
	}{
		{"DB_HOST=localhost", "DB_HOST", "localhost", true},
		{"  DB_PORT = 5432 ", "DB_PORT", "5432", true},
		{`MAIL_FROM="noreply@example.com"`, "MAIL_FROM", "noreply@example.com", true},
		{"export JWT_SECRET=abc", "JWT_SECRET", "abc", true},
		{"# a comment", "", "", false},
		{"", "", "", false},
		{"no-equals-sign", "", "", false},
		{"=value-without-key", "", "", false},
	}
	for _, tc := range cases {
		key, value, ok := parseEnvLine(tc.in)
		if ok != tc.wantOK || key != tc.wantKey || value != tc.wantValue {
			t.Errorf("parseEnvLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, key, value, ok, tc.wantKey, tc.wantValue, tc.wantOK)
		}
	}
}

func TestLoadEnvFilePreservesExistingEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "FROM_FILE=file\nALREADY_SET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("ALREADY_SET", "env")
	t.Setenv("FROM_FILE", "")
	os.Unsetenv("FROM_FILE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("FROM_FILE"); got != "file" {
		t.Fatalf("expected FROM_FILE from the file, got %q", got)
	}
	if got := os.Getenv("ALREADY_SET"); got != "env" {
		t.Fatalf("real env must win over the file, got %q", got)
	}
}

func TestLoadEnvFileMissingIsNoError(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file should be tolerated: %v", err)
	}
}
