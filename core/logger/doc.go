// Package logger is the shell's structured event log. Each pipeline execution
// is recorded as a sequence of JSON-lines events sharing an execution id.
package logger
