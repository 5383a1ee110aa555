// Package session serializes access to conversation state.
//
// Each session holds the slot map and message history that agent turns
// read and write. The Manager guards every store operation with a
// per-session mutex so that concurrent turns against the same session
// never interleave, while turns on different sessions proceed in
// parallel. An optional distributed locker extends the same guarantee
// across processes.
package session
