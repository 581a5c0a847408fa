// Package audit provides audit trail logging for rv operations.
//
// Every mutation (init, set, rm, approve, revoke, import) and every hook
// decision is recorded in an append-only log, so a human can reconstruct
// what the agent asked for and what rv decided, without ever seeing a
// secret value.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	$RV_HOME/audit.jsonl
//
// Each entry contains:
//   - Random event UUID
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Operation name
//   - Operation-specific details (key name, project, decision, reason)
//
// Secret values are never written to the log.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error. Operations should never
// fail just because audit logging failed.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
