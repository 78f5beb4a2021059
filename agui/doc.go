// Package agui bridges conversation streams to the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an open, event-based protocol for
// connecting AI agents to user-facing applications. This package converts
// thread stream events into AG-UI's Start-Content-End sequences so an
// AG-UI frontend can render a conversation turn without knowing the
// thread protocol.
//
// Create a [Mapper] per response stream and feed it events in order; it
// tracks which messages have been opened so deltas and finalizations
// produce well-formed AG-UI sequences.
//
// The package does not provide HTTP handlers or transports; pair it with
// the AG-UI SDK's SSE writer or your own.
package agui
