// Package session drives conversations: it dispatches protocol requests,
// pipes the resulting event streams into the store, and settles the
// streaming flag when a turn ends however it ends.
//
// At most one response stream is live per session. Starting a new turn
// cancels the previous one, and only the newest turn settles the shared
// session state (last writer wins).
package session
