// Package routeros implements the RouterOS binary API protocol: length
// prefixed words grouped into sentences over TCP or TLS, with commands
// answered by !re data rows and a !done or !trap terminator.
//
// A Session owns one connection and runs one command at a time. The
// wire carries no correlation identifiers, so replies match commands
// purely by arrival order; Session enforces that ordering with an
// internal command lock instead of leaving it to callers.
//
// Ownership boundary:
//   - routeros: session lifecycle, login, command round trips, streams
//   - internal/protocol: sentence classification and command words
//   - internal/protocol/frame: length-prefix wire format
package routeros
