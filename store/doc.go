// Package store holds the client-side projection of the conversation
// state. It is event-sourced: stream events are applied through a single
// reducer, and every other mutation goes through a named method. Readers
// observe the state only through immutable snapshots, either on demand or
// via subscription.
package store
