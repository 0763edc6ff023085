package support

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PROXYCHECK_TEST_ENV", "value")
	if got := GetEnv("PROXYCHECK_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("GetEnv returned %s, want value", got)
	}

	if got := GetEnv("PROXYCHECK_TEST_ENV_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv returned %s, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PROXYCHECK_TEST_INT", " 42 ")
	if got := GetEnvInt("PROXYCHECK_TEST_INT", 1); got != 42 {
		t.Fatalf("GetEnvInt returned %d, want 42", got)
	}

	t.Setenv("PROXYCHECK_TEST_INT", "nope")
	if got := GetEnvInt("PROXYCHECK_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt returned %d, want fallback 7", got)
	}
}

func TestGetEnvBoolAndFloat(t *testing.T) {
	t.Setenv("PROXYCHECK_TEST_BOOL", "true")
	if !GetEnvBool("PROXYCHECK_TEST_BOOL", false) {
		t.Fatal("GetEnvBool returned false, want true")
	}

	t.Setenv("PROXYCHECK_TEST_FLOAT", "2.5")
	if got := GetEnvFloat("PROXYCHECK_TEST_FLOAT", 0); got != 2.5 {
		t.Fatalf("GetEnvFloat returned %v, want 2.5", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxies.txt")
	if FileExists(path) {
		t.Fatal("FileExists returned true for a missing file")
	}
	if err := os.WriteFile(path, []byte("1.1.1.1:80"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !FileExists(path) {
		t.Fatal("FileExists returned false for an existing file")
	}
	if FileExists(dir) {
		t.Fatal("FileExists returned true for a directory")
	}
}
