package loadgen

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/streamwise/pkg/logger"
)

// SetupLogging initializes the logger. When logFile is set, output goes to
// both stdout and the file.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Streamwise Load Test Tool
=========================

Generates synthetic students, submits their marks and interest surveys
concurrently, then checks every recommendation against a local computation.
The service must run with STREAMWISE_AUTH_DEV_TOKENS=true.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -students int
        Number of students to generate (default 500)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        Time to wait for background snapshots (default 30s)
  -output string
        Write generated students to this JSON file
  -log string
        Also write logs to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/loadgen -students 5000 -workers 16 -url http://localhost:8080
`)
}
