// Package logx configures jotter's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Levels adjustable at runtime (the remind daemon reloads them)
package logx
