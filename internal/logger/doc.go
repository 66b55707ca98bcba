// Package logger wraps zap for the room automation daemons:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and configuration from the YAML settings,
//   - leveled helpers (Infof, WarnKV, ErrorKV, ...).
//
// Services receive a context and log through it, so activation and booking
// identifiers added with WithKV appear on every line logged for them.
package logger
