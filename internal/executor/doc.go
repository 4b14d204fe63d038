// Package executor runs conversion tasks on a bounded worker pool with a
// hard per-task wall-clock deadline. Isolation is the contract: a panic or
// hang inside one task becomes a failure result for that task alone. A task
// that outlives its deadline is abandoned, not cancelled mid-flight — the
// worker slot is freed immediately and the orphaned goroutine finishes (or
// not) on its own, which is why task bodies that spawn subprocesses must
// carry their own subprocess-level timeout.
package executor
