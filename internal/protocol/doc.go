// Package protocol owns the RouterOS API sentence contract.
//
// Ownership boundary:
// - control word classification (!re, !done, !trap, !fatal)
// - attribute word folding into key/value rows
// - command word construction
//
// Byte-level framing lives in protocol/frame.
package protocol
