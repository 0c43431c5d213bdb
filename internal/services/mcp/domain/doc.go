// Package domain translates MCP tool invocations into LODA API calls.
//
// The package is intentionally explicit about that mapping:
// - validate tool arguments into fully typed inputs,
// - route calls to the remote LODA HTTP API,
// - and surface structured outputs plus a rendered text summary that
//   MCP clients can display as-is.
//
// All failures crossing the dispatch boundary are normalized into the
// three-kind Error taxonomy so transports never see raw adapter errors.
package domain
