// Package logger is a standardized event log for the shell. Events are
// google.protobuf.Struct messages written as newline delimited JSON.
package logger
