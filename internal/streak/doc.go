// Package streak implements the streak state engine: the pure day-difference
// decision function, the mutex-guarded write-through store over the full
// guild document, and the reward-role resolver.
package streak
