// Package audit provides asynchronous audit-event dispatch for the
// authentication flows. Events are buffered and forwarded to a pluggable
// sink off the request path; the engine never blocks on audit delivery
// when drop-if-full is configured.
package audit
