// Package logger wraps zap for the controller:
//   - a global sugared logger with a timestamped console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - leveled convenience functions (Infof, ErrorKV, etc.).
//
// Every service receives a context and pulls its logger from it, so a task
// running inside the scheduler logs under "ward-monitor.scheduler.sense".
package logger
