package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// logSink is where logs go when no TUI owns the terminal
var logSink io.Writer = os.Stderr

// setupLogging configures logrus for the run. Debug enables debug logs,
// otherwise only warnings and errors are written. The returned function
// closes the log file, if any.
func setupLogging(debug bool, logFile string) (func(), error) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.WarnLevel)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if logFile == "" {
		logSink = os.Stderr
		logrus.SetOutput(logSink)
		return func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logSink = f
	logrus.SetOutput(f)
	return func() { f.Close() }, nil
}

// quietLogs stops terminal logging while a TUI is running. Logs written to a
// file are unaffected. The returned function restores the previous output.
func quietLogs() func() {
	if logSink != os.Stderr {
		return func() {}
	}
	logrus.SetOutput(io.Discard)
	return func() { logrus.SetOutput(logSink) }
}
