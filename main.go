// Package main is the entry point for the Task Crafter application.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vishals9711/task-crafter/cmd"
	"github.com/vishals9711/task-crafter/internal/logging"
)

// main executes the root command and handles any errors that occur.
func main() {
	// Load .env if present; the environment wins over the file.
	_ = godotenv.Load()

	// Reapply the log level in case it came from the .env file, which is
	// not visible during package initialization.
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.SetupLogger(os.Stdout, logging.LogLevel(logLevel), os.Getenv("LOG_FORMAT"))

	logging.Info("starting task-crafter", "version", "1.0.0", "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
