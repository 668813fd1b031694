// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing a console encoding to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Nothing here terminates the process; the CLI boundary owns exit codes.
package logger
