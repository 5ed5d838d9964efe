//go:build integration

// Package integration runs the srclient CLI and library against a live
// SimplyRESTful API. Set SRCLIENT_API and SRCLIENT_MEDIA_TYPE to enable it.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	API        string
	MediaType  string
	BinaryPath string
	// Resource is a JSON object the API accepts for creation.
	Resource string
	Verbose  bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	resource := os.Getenv("SRCLIENT_TEST_RESOURCE")
	if resource == "" {
		resource = fmt.Sprintf(`{"name": %q}`, GenerateTestName("srclient-integration"))
	}

	return &TestConfig{
		API:        os.Getenv("SRCLIENT_API"),
		MediaType:  os.Getenv("SRCLIENT_MEDIA_TYPE"),
		BinaryPath: getBinaryPath(),
		Resource:   resource,
		Verbose:    os.Getenv("SRCLIENT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the srclient binary.
func getBinaryPath() string {
	if path := os.Getenv("SRCLIENT_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../srclient", "./srclient", "../srclient"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "srclient"
}

// SkipIfMissingAPI skips the test unless a live API is configured.
func (config *TestConfig) SkipIfMissingAPI(t *testing.T) {
	t.Helper()

	if config.API == "" || config.MediaType == "" {
		t.Skip("SRCLIENT_API or SRCLIENT_MEDIA_TYPE not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test unless the srclient binary exists.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	config.SkipIfMissingAPI(t)

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("srclient binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs srclient commands against the configured API.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a srclient command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a srclient command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--api", runner.config.API, "--media-type", runner.config.MediaType}, args...)

	// #nosec G204
	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// CleanupResource attempts to delete a test resource.
func (runner *CommandRunner) CleanupResource(location string) {
	stdout, stderr, err := runner.Run("delete", location, "--force")
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s: %s\nStderr: %s", location, stdout, stderr)
	}
}

// GenerateTestName creates a unique test resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var value interface{}

	err := yaml.Unmarshal([]byte(output), &value)
	if err != nil || value == nil {
		t.Errorf("Output is not YAML: %s", output)
	}
}
