// Package goal implements the authoritative in-memory store for goal state.
// All mutations to a single goal are serialized through a per-goal lock
// while distinct goals proceed fully concurrently; every successful mutation
// emits the matching SystemEvent before the lock is released so per-goal
// event order always equals mutation order.
package goal
