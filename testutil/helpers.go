package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}

	return hex.EncodeToString(bytes)[:length]
}

func RandomInt(minVal, maxVal int64) int64 {
	if minVal >= maxVal {
		return minVal
	}

	n, err := rand.Int(rand.Reader, big.NewInt(maxVal-minVal+1))
	if err != nil {
		return minVal
	}

	return n.Int64() + minVal
}

// RandomSymbol returns an upper-case ticker that the fake API does not know.
func RandomSymbol() string {
	return "ZZ" + strings.ToUpper(RandomString(4))
}

func Eventually(t *testing.T, condition func() bool, timeout time.Duration, interval time.Duration) {
	t.Helper()

	EventuallyWithMessage(t, condition, timeout, interval, "")
}

func EventuallyWithMessage(t *testing.T, condition func() bool, timeout time.Duration, interval time.Duration, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}

		time.Sleep(interval)
	}

	if message == "" {
		t.Fatal("Condition not met within timeout")
	}

	t.Fatalf("Condition not met within timeout: %s", message)
}

func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping test in short mode")
	}
}

// RequireEnv skips the test unless key is set, for suites that hit the live API.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()

	value := os.Getenv(key)

	if value == "" {
		t.Skipf("Environment variable %s is required but not set", key)
	}

	return value
}

// WriteFile writes content to name inside a per-test temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}

	return path
}
