// Package usage records token consumption reported by the chat client.
//
// Two recorders are provided: Tracker keeps in-memory per-model totals
// for the lifetime of the process, and Ledger persists one row per
// request to a SQLite database so consumption survives restarts.
// MultiRecorder combines them, and Scheduler prunes ledger rows past
// the configured retention window on a cron schedule.
package usage
