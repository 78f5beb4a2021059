// Package client is the typed façade over the streaming transport.
//
// The protocol has a closed set of request kinds, all POSTed to one
// endpoint as {"type": ..., "params": {...}}. Streaming kinds return a
// channel of typed events decoded from the event-stream response;
// non-streaming kinds perform one request and decode a single JSON
// document, failing on non-2xx.
//
// Only a caller-supplied endpoint is supported. A configuration naming
// the hosted/managed mode is rejected at construction, before any network
// activity.
package client
