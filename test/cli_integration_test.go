//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TestTrackStatusPipeline runs the core accounting loop through the
// binary: track events, read status, query the journal.
func TestTrackStatusPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := writeTestConfig(t, tmpDir, `
limits:
  daily_cost_limit: "10.00"

ledger:
  backend: "file"
  path: "%[1]s/stats.json"

journal:
  backend: "sqlite"
  sqlite:
    path: "%[1]s/journal.db"

telemetry:
  logging:
    level: "warn"
  metrics:
    enabled: false
`)

	binaryPath := buildSpendguardBinary(t)

	// Track two events. gpt-4o is on the built-in price sheet.
	for i := 0; i < 2; i++ {
		cmd := exec.Command(binaryPath, "track",
			"--config", configFile,
			"--model", "gpt-4o",
			"--input", "1000",
			"--output", "200")
		output, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("track failed: %v\nOutput: %s", err, output)
		}
		if !bytes.Contains(output, []byte("Recorded gpt-4o")) {
			t.Errorf("expected 'Recorded gpt-4o' in output, got: %s", output)
		}
	}

	// Status must show both events, accumulated exactly.
	// 2 x (1000 * 0.005/1K + 200 * 0.015/1K) = 0.016
	statusCmd := exec.Command(binaryPath, "status", "--config", configFile, "--format", "json")
	output, err := statusCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("status failed: %v\nOutput: %s", err, output)
	}

	var status struct {
		Enabled bool `json:"enabled"`
		Totals  struct {
			Daily struct {
				Requests    int64  `json:"requests"`
				InputTokens int64  `json:"input_tokens"`
				Cost        string `json:"cost"`
			} `json:"daily"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(output, &status); err != nil {
		t.Fatalf("failed to parse status JSON: %v\nOutput: %s", err, output)
	}
	if !status.Enabled {
		t.Error("expected tracking enabled")
	}
	if status.Totals.Daily.Requests != 2 {
		t.Errorf("expected 2 requests, got %d", status.Totals.Daily.Requests)
	}
	if status.Totals.Daily.InputTokens != 2000 {
		t.Errorf("expected 2000 input tokens, got %d", status.Totals.Daily.InputTokens)
	}
	if status.Totals.Daily.Cost != "0.016" {
		t.Errorf("expected daily cost %q, got %q", "0.016", status.Totals.Daily.Cost)
	}

	// Both events must be in the journal.
	queryCmd := exec.Command(binaryPath, "journal", "query",
		"--config", configFile, "--format", "json")
	output, err = queryCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("journal query failed: %v\nOutput: %s", err, output)
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal(output, &entries); err != nil {
		t.Fatalf("failed to parse journal JSON: %v\nOutput: %s", err, output)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 journal entries, got %d", len(entries))
	}
}

// TestHardLimitExitCode verifies the exit code contract: a breached hard
// limit exits 2, and the triggering usage is still recorded.
func TestHardLimitExitCode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := writeTestConfig(t, tmpDir, `
limits:
  daily_cost_limit: "0.01"
  enforce_hard_limit: true

ledger:
  backend: "file"
  path: "%[1]s/stats.json"

journal:
  enabled: false

telemetry:
  logging:
    level: "warn"
  metrics:
    enabled: false
`)

	binaryPath := buildSpendguardBinary(t)

	// 5000 input tokens on gpt-4o cost 0.025, past the 0.01 limit.
	trackCmd := exec.Command(binaryPath, "track",
		"--config", configFile,
		"--model", "gpt-4o",
		"--input", "5000")
	output, err := trackCmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected track to fail, output: %s", output)
	}
	if code := exitCode(t, err); code != 2 {
		t.Errorf("expected exit code 2, got %d\nOutput: %s", code, output)
	}
	if !bytes.Contains(output, []byte("spending threshold exceeded")) {
		t.Errorf("expected threshold message, got: %s", output)
	}

	// The usage was recorded before the breach was reported.
	statusCmd := exec.Command(binaryPath, "status", "--config", configFile, "--format", "json")
	output, err = statusCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("status failed: %v\nOutput: %s", err, output)
	}
	var status struct {
		Totals struct {
			Daily struct {
				Requests int64 `json:"requests"`
			} `json:"daily"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(output, &status); err != nil {
		t.Fatalf("failed to parse status JSON: %v", err)
	}
	if status.Totals.Daily.Requests != 1 {
		t.Errorf("expected the breaching event recorded, got %d requests", status.Totals.Daily.Requests)
	}

	// Preflight over exhausted budget also exits 2.
	preflightCmd := exec.Command(binaryPath, "preflight",
		"--config", configFile,
		"--model", "gpt-4o",
		"--input", "1000")
	output, err = preflightCmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected preflight denial, output: %s", output)
	}
	if code := exitCode(t, err); code != 2 {
		t.Errorf("expected exit code 2 from preflight, got %d\nOutput: %s", code, output)
	}
}

// TestValidateExitCodes checks the validate command against valid and
// invalid documents.
func TestValidateExitCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildSpendguardBinary(t)

	t.Run("valid config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := writeTestConfig(t, tmpDir, `
limits:
  daily_cost_limit: "5.00"

ledger:
  backend: "file"
  path: "%[1]s/stats.json"

journal:
  backend: "sqlite"
  sqlite:
    path: "%[1]s/journal.db"
`)

		cmd := exec.Command(binaryPath, "validate", "--config", configFile)
		output, err := cmd.CombinedOutput()
		if err != nil {
			t.Errorf("validate should succeed: %v\nOutput: %s", err, output)
		}
		if !bytes.Contains(output, []byte("Configuration valid")) {
			t.Errorf("expected success message, got: %s", output)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := writeTestConfig(t, tmpDir, `
ledger:
  backend: "cassandra"
  path: "%[1]s/stats.json"
`)

		cmd := exec.Command(binaryPath, "validate", "--config", configFile)
		output, err := cmd.CombinedOutput()
		if err == nil {
			t.Fatalf("validate should fail\nOutput: %s", output)
		}
		if code := exitCode(t, err); code != 3 {
			t.Errorf("expected exit code 3, got %d\nOutput: %s", code, output)
		}
	})
}

// TestInitCommand exercises sample config generation.
func TestInitCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "nested", "config.yaml")
	binaryPath := buildSpendguardBinary(t)

	// First run creates the file and its parent directory.
	cmd := exec.Command(binaryPath, "init", "--config", configFile)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("init failed: %v\nOutput: %s", err, output)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if !bytes.Contains(data, []byte("pricing:")) || !bytes.Contains(data, []byte("limits:")) {
		t.Errorf("sample config missing expected sections:\n%s", data)
	}

	// The sample must itself validate.
	cmd = exec.Command(binaryPath, "validate", "--config", configFile)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Errorf("sample config should validate: %v\nOutput: %s", err, output)
	}

	// Second run without --force must refuse.
	cmd = exec.Command(binaryPath, "init", "--config", configFile)
	if output, err := cmd.CombinedOutput(); err == nil {
		t.Errorf("expected init to refuse overwrite\nOutput: %s", output)
	}

	// --force overwrites.
	cmd = exec.Command(binaryPath, "init", "--config", configFile, "--force")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Errorf("init --force failed: %v\nOutput: %s", err, output)
	}
}

// TestDaemonStartStop starts the daemon with the telemetry listener and
// verifies health, metrics, and graceful shutdown.
func TestDaemonStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := writeTestConfig(t, tmpDir, `
limits:
  daily_cost_limit: "10.00"

ledger:
  backend: "file"
  path: "%[1]s/stats.json"

journal:
  backend: "sqlite"
  sqlite:
    path: "%[1]s/journal.db"

telemetry:
  logging:
    level: "info"
    format: "json"
  metrics:
    listen_address: "127.0.0.1:19090"
`)

	binaryPath := buildSpendguardBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "run", "--config", configFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start daemon: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	if !waitForHealthy("http://127.0.0.1:19090/healthz", 10*time.Second) {
		t.Fatalf("daemon failed to start\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	// Readiness probes the ledger and journal backends.
	resp, err := http.Get("http://127.0.0.1:19090/readyz")
	if err != nil {
		t.Fatalf("readiness check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected ready status 200, got %d", resp.StatusCode)
	}

	// Metrics are exported under the spendguard namespace.
	resp, err = http.Get("http://127.0.0.1:19090/metrics")
	if err != nil {
		t.Fatalf("metrics fetch failed: %v", err)
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(body.Bytes(), []byte("spendguard")) {
		t.Error("expected spendguard metrics in /metrics output")
	}

	// Version endpoint reports build info.
	resp, err = http.Get("http://127.0.0.1:19090/version")
	if err != nil {
		t.Fatalf("version fetch failed: %v", err)
	}
	var version map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		t.Errorf("failed to decode version JSON: %v", err)
	}
	resp.Body.Close()
	if version["version"] == nil {
		t.Errorf("version endpoint missing version field: %+v", version)
	}

	// Graceful shutdown on SIGINT.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected shutdown error: %v\nStdout: %s\nStderr: %s",
				err, stdout.String(), stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Error("daemon did not shut down within 5 seconds")
	}
}

// TestVersionOutput checks the version command.
func TestVersionOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildSpendguardBinary(t)

	cmd := exec.Command(binaryPath, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("spendguard")) {
		t.Errorf("version output should contain 'spendguard', got: %s", output)
	}
}

// Helper functions

// buildSpendguardBinary builds the spendguard binary for testing.
func buildSpendguardBinary(t *testing.T) string {
	t.Helper()

	binaryPath := "../bin/spendguard"
	if _, err := os.Stat(binaryPath); err == nil {
		return binaryPath
	}

	t.Log("Building spendguard binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../cmd/spendguard")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build spendguard: %v\nOutput: %s", err, output)
	}

	return binaryPath
}

// writeTestConfig writes a config document into dir, substituting the
// directory path for %[1]s so backends stay inside the temp dir.
func writeTestConfig(t *testing.T, dir, template string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(template, dir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// waitForHealthy waits for a health endpoint to return 200.
func waitForHealthy(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// exitCode extracts the process exit code from an exec error.
func exitCode(t *testing.T, err error) int {
	t.Helper()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	return exitErr.ExitCode()
}
