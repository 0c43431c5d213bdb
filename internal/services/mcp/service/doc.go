// Package service wires protocol transport to domain handlers.
//
// It is the transport adapter layer: the package knows how to run MCP over
// stdio or HTTP sessions and delegates business meaning to the domain
// package, routing every tool call through a single dispatch path.
package service
